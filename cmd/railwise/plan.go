// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/railwise/railwise/internal/planner"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [question...]",
		Short: "Plan a journey from a question or explicit endpoints",
		Long: `Plan a journey. The question may be free text such as
"step-free from Waterloo to King's Cross by tube"; --from and --to override
whatever is read from it. Endpoints may be place names, stop names, or
"lat,lon" pairs.`,
		Example: `  railwise plan "from Bank to Canary Wharf avoiding stairs"
  railwise plan --from "51.5031,-0.1132" --to Paddington --mode tube,elizabeth-line`,
		RunE: runPlan,
	}

	cmd.Flags().String("from", "", "origin place, stop, or lat,lon")
	cmd.Flags().String("to", "", "destination place, stop, or lat,lon")
	cmd.Flags().Bool("step-free", false, "require step-free routes")
	cmd.Flags().StringSlice("mode", nil, "transport modes to use (repeatable or comma separated)")
	cmd.Flags().String("at", "", "travel time as HH:MM today or RFC 3339")
	cmd.Flags().Bool("arrive", false, "treat --at as the arrival time")
	cmd.Flags().Int("options", 3, "maximum journey options to show")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	from, _ := flags.GetString("from")
	to, _ := flags.GetString("to")
	stepFree, _ := flags.GetBool("step-free")
	modes, _ := flags.GetStringSlice("mode")
	at, _ := flags.GetString("at")
	arrive, _ := flags.GetBool("arrive")
	maxOptions, _ := flags.GetInt("options")

	when, err := parseWhen(at, time.Now())
	if err != nil {
		return err
	}
	req := planner.Request{
		Text:       strings.Join(args, " "),
		From:       from,
		To:         to,
		Accessible: stepFree,
		Modes:      modes,
		When:       when,
	}
	if !when.IsZero() {
		req.TimeIs = "Departing"
		if arrive {
			req.TimeIs = "Arriving"
		}
	}

	return runWithApp(cmd, func(ctx context.Context, app *App) error {
		plan, err := app.Planner.Plan(ctx, req)
		if err != nil {
			return err
		}
		renderPlan(cmd.OutOrStdout(), plan, maxOptions)
		return nil
	})
}

// parseWhen accepts "", "HH:MM" (today, local time), or RFC 3339.
func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("15:04", s, now.Location()); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, rwerr.Errorf(rwerr.CodeCLIInputInvalid, "invalid --at %q: want HH:MM or RFC 3339", s)
}

func renderPlan(w io.Writer, plan *planner.Plan, maxOptions int) {
	_, _ = fmt.Fprintf(w, "%s %s %s %s\n",
		labelStyle.Render("From"), endpointLabel(plan.From),
		labelStyle.Render("to"), endpointLabel(plan.To))
	if plan.Accessible {
		_, _ = fmt.Fprintln(w, dimStyle.Render("Step-free routes requested."))
	}

	if len(plan.Options) == 0 {
		_, _ = fmt.Fprintln(w, "No journeys found.")
		return
	}
	if maxOptions <= 0 || maxOptions > len(plan.Options) {
		maxOptions = len(plan.Options)
	}

	for i, opt := range plan.Options[:maxOptions] {
		_, _ = fmt.Fprintln(w, boxStyle.Render(renderOption(i+1, opt)))
	}

	if plan.StatusOrigin != "" {
		_, _ = fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Line status: %s at %s", plan.StatusOrigin, plan.StatusAt.Local().Format("15:04"))))
	}
}

func renderOption(n int, opt planner.Option) string {
	var b strings.Builder

	title := fmt.Sprintf("Option %d  %d min, %s", n, opt.Duration, pluralise(opt.Transfers, "change", "changes"))
	b.WriteString(titleStyle.Render(title))
	if opt.Journey.StartDateTime != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s to %s", clock(opt.Journey.StartDateTime), clock(opt.Journey.ArrivalDateTime))))
	}
	b.WriteString("\n")

	for _, leg := range opt.Journey.Legs {
		fmt.Fprintf(&b, "  %-10s %s (%d min)\n", leg.Mode.Name, leg.Instruction.Summary, leg.Duration)
	}

	if len(opt.DisruptedLines) > 0 {
		b.WriteString(warnStyle.Render("  Disrupted: "+strings.Join(opt.DisruptedLines, ", ")) + "\n")
	}
	for _, a := range opt.Departures {
		fmt.Fprintf(&b, "  %s %s to %s %s\n",
			labelStyle.Render(fmt.Sprintf("%3d min", a.TimeToStation/60)),
			a.LineName, a.DestinationName, dimStyle.Render(a.PlatformName))
	}
	if opt.Accessibility != "" {
		b.WriteString("  " + opt.Accessibility)
	}

	return strings.TrimRight(b.String(), "\n")
}

func endpointLabel(ep planner.Endpoint) string {
	name := ep.Name
	if name == "" {
		name = ep.Query
	}
	return fmt.Sprintf("%s %s", name, dimStyle.Render("("+ep.Source+")"))
}

// clock trims an upstream "2006-01-02T15:04:05" timestamp to HH:MM.
func clock(ts string) string {
	if t, err := time.Parse("2006-01-02T15:04:05", ts); err == nil {
		return t.Format("15:04")
	}
	return ts
}

func pluralise(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
