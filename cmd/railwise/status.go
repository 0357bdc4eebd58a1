// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"

	"github.com/railwise/railwise/internal/snapshot"
	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [line...]",
		Short: "Show current line status",
		Long: `Show line status from the snapshot cache. A stored snapshot younger than
--max-age is served as is; otherwise the cache refreshes, then falls back to a
live fetch, and finally to the newest stale snapshot.`,
		RunE: runStatus,
	}

	cmd.Flags().Duration("max-age", 0, "freshness bound (default status.max_age)")
	cmd.Flags().Bool("disrupted", false, "only show lines without good service")
	cmd.Flags().Bool("reasons", false, "print the reason text for each disruption")
	cmd.Flags().Bool("csv", false, "write one CSV row per line status entry")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	maxAge, _ := cmd.Flags().GetDuration("max-age")
	onlyDisrupted, _ := cmd.Flags().GetBool("disrupted")
	reasons, _ := cmd.Flags().GetBool("reasons")
	asCSV, _ := cmd.Flags().GetBool("csv")

	return runWithApp(cmd, func(ctx context.Context, app *App) error {
		if maxAge <= 0 {
			maxAge = app.Config.Status.MaxAge
		}
		res, err := app.Cache.LineStatus(ctx, maxAge)
		if err != nil {
			return err
		}

		lines := filterLines(res.Lines, args, onlyDisrupted)
		if asCSV {
			return writeStatusCSV(cmd.OutOrStdout(), res, lines)
		}
		renderStatus(cmd.OutOrStdout(), res, lines, time.Now(), reasons)
		return nil
	})
}

// filterLines keeps lines whose id or name matches one of names (all when
// empty), optionally dropping lines with good service.
func filterLines(lines []transit.LineStatus, names []string, onlyDisrupted bool) []transit.LineStatus {
	out := make([]transit.LineStatus, 0, len(lines))
	for _, l := range lines {
		if onlyDisrupted && transit.IsGoodService(l) {
			continue
		}
		if len(names) > 0 && !matchesAny(l, names) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesAny(l transit.LineStatus, names []string) bool {
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == strings.ToLower(l.ID) || n == strings.ToLower(l.Name) {
			return true
		}
	}
	return false
}

func renderStatus(w io.Writer, res *snapshot.Result, lines []transit.LineStatus, now time.Time, reasons bool) {
	header := fmt.Sprintf("%s\n%s",
		titleStyle.Render("Line status"),
		dimStyle.Render(fmt.Sprintf("%s, %s old (%s)", res.Origin, formatAge(res.Age(now)), res.Source)),
	)
	_, _ = fmt.Fprintln(w, boxStyle.Render(header))

	if res.Origin == snapshot.OriginStale {
		_, _ = fmt.Fprintln(w, warnStyle.Render("Live status is unavailable; showing the newest stored snapshot."))
	}
	if len(lines) == 0 {
		_, _ = fmt.Fprintln(w, "No matching lines.")
		return
	}

	for _, l := range lines {
		_, _ = fmt.Fprintf(w, "%-22s %s\n", lineName(l), statusSummary(l))
		if !reasons {
			continue
		}
		for _, s := range l.LineStatuses {
			if s.Reason != "" {
				_, _ = fmt.Fprintf(w, "  %s\n", dimStyle.Render(s.Reason))
			}
		}
	}
}

type statusRow struct {
	LineID   string    `csv:"line_id"`
	Line     string    `csv:"line"`
	Mode     string    `csv:"mode"`
	Severity int       `csv:"severity"`
	Status   string    `csv:"status"`
	Reason   string    `csv:"reason"`
	ValidAt  time.Time `csv:"valid_at"`
}

func statusRows(res *snapshot.Result, lines []transit.LineStatus) []statusRow {
	rows := make([]statusRow, 0, len(lines))
	for _, l := range lines {
		row := statusRow{LineID: l.ID, Line: lineName(l), Mode: l.ModeName, ValidAt: res.ValidAt.UTC()}
		if len(l.LineStatuses) == 0 {
			row.Severity = transit.GoodServiceSeverity
			row.Status = "Good Service"
			rows = append(rows, row)
			continue
		}
		for _, s := range l.LineStatuses {
			r := row
			r.Severity = s.StatusSeverity
			r.Status = s.StatusSeverityDescription
			r.Reason = strings.TrimSpace(s.Reason)
			rows = append(rows, r)
		}
	}
	return rows
}

func writeStatusCSV(w io.Writer, res *snapshot.Result, lines []transit.LineStatus) error {
	b, err := csvutil.Marshal(statusRows(res, lines))
	if err != nil {
		return rwerr.Wrap(err, rwerr.CodeCLIRequestFailure, "encoding status as CSV")
	}
	_, err = w.Write(b)
	return err
}

func lineName(l transit.LineStatus) string {
	if l.Name != "" {
		return l.Name
	}
	return l.ID
}

// statusSummary joins the distinct severity descriptions of a line, each
// coloured by its severity.
func statusSummary(l transit.LineStatus) string {
	if len(l.LineStatuses) == 0 {
		return successStyle.Render("Good Service")
	}
	seen := make(map[string]struct{}, len(l.LineStatuses))
	parts := make([]string, 0, len(l.LineStatuses))
	for _, s := range l.LineStatuses {
		desc := s.StatusSeverityDescription
		if desc == "" {
			desc = fmt.Sprintf("Severity %d", s.StatusSeverity)
		}
		if _, dup := seen[desc]; dup {
			continue
		}
		seen[desc] = struct{}{}
		parts = append(parts, severityStyle(s.StatusSeverity).Render(desc))
	}
	return strings.Join(parts, ", ")
}

func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return d.Round(time.Minute).String()
	}
}
