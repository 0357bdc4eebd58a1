// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/railwise/railwise/internal/geocode"
	"github.com/railwise/railwise/internal/planner"
	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search stops by name, or places with --places",
		Long: `Search transit stops by name, ranked by relevance. With --places the
geocoder is queried instead; with --near the stops around a "lat,lon" point
are listed.`,
		Args: cobra.ArbitraryArgs,
		RunE: runSearch,
	}

	cmd.Flags().StringSlice("mode", nil, "restrict stops to these modes")
	cmd.Flags().Bool("places", false, "search places with the geocoder")
	cmd.Flags().String("near", "", "list stops near a lat,lon point")
	cmd.Flags().Int("radius", 500, "radius in metres for --near")
	cmd.Flags().Int("limit", 10, "maximum results to show")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	modes, _ := cmd.Flags().GetStringSlice("mode")
	places, _ := cmd.Flags().GetBool("places")
	near, _ := cmd.Flags().GetString("near")
	radius, _ := cmd.Flags().GetInt("radius")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	return runWithApp(cmd, func(ctx context.Context, app *App) error {
		out := cmd.OutOrStdout()
		switch {
		case near != "":
			lat, lon, ok := planner.ParseLatLon(near)
			if !ok {
				return rwerr.Errorf(rwerr.CodeCLIInputInvalid, "invalid --near %q: want lat,lon", near)
			}
			stops, err := app.Transit.NearbyStopPoints(ctx, lat, lon, radius, modes, nil)
			if err != nil {
				return err
			}
			renderNearby(out, stops, limit)
		case places:
			found, err := app.Geocoder.Search(ctx, query)
			if err != nil {
				return err
			}
			renderPlaces(out, found, limit)
		default:
			stops, err := app.Transit.SearchStopPoints(ctx, query, modes)
			if err != nil {
				return err
			}
			renderStops(out, stops, limit)
		}
		return nil
	})
}

func renderStops(w io.Writer, stops []transit.StopMatch, limit int) {
	if len(stops) == 0 {
		_, _ = fmt.Fprintln(w, "No stops found.")
		return
	}
	for _, s := range head(stops, limit) {
		_, _ = fmt.Fprintf(w, "%-14s %s %s\n", labelStyle.Render(s.ID), s.Name, dimStyle.Render(strings.Join(s.Modes, ",")))
	}
}

func renderNearby(w io.Writer, stops []transit.StopPoint, limit int) {
	if len(stops) == 0 {
		_, _ = fmt.Fprintln(w, "No stops nearby.")
		return
	}
	for _, s := range head(stops, limit) {
		_, _ = fmt.Fprintf(w, "%-14s %s %s\n", labelStyle.Render(s.StopID()), s.CommonName, dimStyle.Render(fmt.Sprintf("%.0fm", s.Distance)))
	}
}

func renderPlaces(w io.Writer, places []geocode.Place, limit int) {
	if len(places) == 0 {
		_, _ = fmt.Fprintln(w, "No places found.")
		return
	}
	for _, p := range head(places, limit) {
		_, _ = fmt.Fprintf(w, "%s %s %s\n", labelStyle.Render(fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lon)), p.Name, dimStyle.Render(p.Type))
	}
}

func head[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
