// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/railwise/railwise/internal/snapshot"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep status snapshots warm by refreshing on an interval",
		Long: `Refresh line status on a fixed interval using the autofetch key pool until
interrupted. Other railwise invocations sharing the same store then read
fresh snapshots without calling the upstream.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().Duration("interval", 0, "refresh interval (default status.refresh_interval)")

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	interval, _ := cmd.Flags().GetDuration("interval")

	return runWithApp(cmd, func(ctx context.Context, app *App) error {
		if interval <= 0 {
			interval = app.Config.Status.RefreshInterval
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched := snapshot.NewScheduler(app.Refresher, interval)
		sched.Start(ctx)
		defer sched.Stop()

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Refreshing line status every %s. Press Ctrl-C to stop.\n", interval)
		<-ctx.Done()
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("stopping"))
		return nil
	})
}
