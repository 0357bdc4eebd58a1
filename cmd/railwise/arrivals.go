// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

func newArrivalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arrivals <stop>...",
		Short: "Show live arrivals at one or more stops",
		Long: `Show live arrival predictions. Arguments are stop ids such as 940GZZLUOXC,
or stop names with --search, in which case the best match for each name is
used. A stop whose predictions cannot be fetched is skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runArrivals,
	}

	cmd.Flags().Bool("search", false, "treat arguments as stop names")
	cmd.Flags().StringSlice("line", nil, "only show these line ids")
	cmd.Flags().Int("limit", 10, "maximum predictions to show")

	return cmd
}

func runArrivals(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetBool("search")
	lines, _ := cmd.Flags().GetStringSlice("line")
	limit, _ := cmd.Flags().GetInt("limit")

	return runWithApp(cmd, func(ctx context.Context, app *App) error {
		ids := args
		if search {
			var err error
			if ids, err = resolveStopNames(ctx, app.Transit, args); err != nil {
				return err
			}
		}

		var (
			arrivals []transit.Arrival
			err      error
		)
		if len(lines) > 0 && len(ids) == 1 {
			arrivals, err = app.Transit.LineArrivals(ctx, lines, ids[0])
		} else {
			arrivals, err = app.Transit.MultipleArrivals(ctx, ids)
		}
		if err != nil {
			return err
		}

		renderArrivals(cmd.OutOrStdout(), filterArrivalLines(arrivals, lines), limit)
		return nil
	})
}

// resolveStopNames maps each name to its best-ranked stop id.
func resolveStopNames(ctx context.Context, client *transit.Client, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		stops, err := client.SearchStopPoints(ctx, name, nil)
		if err != nil {
			return nil, err
		}
		if len(stops) == 0 {
			return nil, rwerr.Errorf(rwerr.CodeCLIInputInvalid, "no stop matches %q", name)
		}
		ids = append(ids, stops[0].ID)
	}
	return ids, nil
}

func filterArrivalLines(arrivals []transit.Arrival, lines []string) []transit.Arrival {
	if len(lines) == 0 {
		return arrivals
	}
	want := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		want[l] = struct{}{}
	}
	out := arrivals[:0:0]
	for _, a := range arrivals {
		if _, ok := want[a.LineID]; ok {
			out = append(out, a)
		}
	}
	return out
}

func renderArrivals(w io.Writer, arrivals []transit.Arrival, limit int) {
	if len(arrivals) == 0 {
		_, _ = fmt.Fprintln(w, "No arrivals predicted.")
		return
	}

	sorted := append([]transit.Arrival(nil), arrivals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimeToStation < sorted[j].TimeToStation
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	station := ""
	for _, a := range sorted {
		if a.StationName != station {
			station = a.StationName
			_, _ = fmt.Fprintln(w, titleStyle.Render(station))
		}
		_, _ = fmt.Fprintf(w, "  %s %-14s %-28s %s\n",
			labelStyle.Render(fmt.Sprintf("%3s", dueIn(a.TimeToStation))),
			a.LineName, a.DestinationName, dimStyle.Render(a.PlatformName))
	}
}

// dueIn renders seconds-to-station as whole minutes, or "due" under one.
func dueIn(seconds int) string {
	if seconds < 60 {
		return "due"
	}
	return fmt.Sprintf("%dm", seconds/60)
}
