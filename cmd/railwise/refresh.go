// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/railwise/railwise/internal/store"
)

func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch line status now and store it as a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, func(ctx context.Context, app *App) error {
				snap, err := app.Cache.Refresh(ctx, store.SourceManualRefresh)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s stored snapshot %s with %d lines (valid at %s)\n",
					successStyle.Render("ok"), snap.ID, len(snap.Payload), snap.ValidAt.Local().Format(time.RFC3339))
				return err
			})
		},
	}
}
