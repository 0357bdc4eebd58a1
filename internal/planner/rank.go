// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package planner

import (
	"slices"
	"sort"
	"strings"

	"github.com/railwise/railwise/internal/transit"
)

const walkingMode = "walking"

// RankOptions orders options by fewest disrupted lines, then shortest
// duration, then fewest transfers. Equal options keep planner order.
func RankOptions(opts []Option) {
	sort.SliceStable(opts, func(i, j int) bool {
		a, b := opts[i], opts[j]
		if len(a.DisruptedLines) != len(b.DisruptedLines) {
			return len(a.DisruptedLines) < len(b.DisruptedLines)
		}
		if a.Duration != b.Duration {
			return a.Duration < b.Duration
		}
		return a.Transfers < b.Transfers
	})
}

func buildOption(j transit.Journey, status map[string]transit.LineStatus, arrivals []transit.Arrival, accessible bool, capDepartures int) Option {
	opt := Option{
		Journey:   j,
		Duration:  j.Duration,
		Transfers: Transfers(j),
		Lines:     JourneyLines(j),
	}

	disrupted := map[string]bool{}
	for _, leg := range j.Legs {
		if leg.IsDisrupted {
			for _, id := range legLines(leg) {
				disrupted[id] = true
			}
		}
	}
	for _, id := range opt.Lines {
		ls, ok := status[id]
		if !ok {
			continue
		}
		opt.LineStatus = append(opt.LineStatus, ls)
		if !transit.IsGoodService(ls) {
			disrupted[id] = true
		}
	}
	for id := range disrupted {
		opt.DisruptedLines = append(opt.DisruptedLines, id)
	}
	slices.Sort(opt.DisruptedLines)

	if leg, ok := firstBoardingLeg(j); ok && capDepartures > 0 {
		opt.Departures = departuresFor(leg, arrivals, capDepartures)
	}

	opt.Accessibility = DescribeAccessibility(j, accessible, opt.DisruptedLines)
	return opt
}

// Transfers counts changes between non-walking legs.
func Transfers(j transit.Journey) int {
	n := 0
	for _, leg := range j.Legs {
		if !isWalking(leg) {
			n++
		}
	}
	return max(n-1, 0)
}

// JourneyLines lists the line ids a journey rides, in order of first use.
func JourneyLines(j transit.Journey) []string {
	var out []string
	for _, leg := range j.Legs {
		for _, id := range legLines(leg) {
			if !slices.Contains(out, id) {
				out = append(out, id)
			}
		}
	}
	return out
}

func legLines(leg transit.Leg) []string {
	if isWalking(leg) {
		return nil
	}
	var out []string
	for _, ro := range leg.RouteOptions {
		id := ""
		if ro.LineIdentifier != nil {
			id = ro.LineIdentifier.ID
		}
		if id == "" {
			id = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(ro.Name)), " ", "-")
		}
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func isWalking(leg transit.Leg) bool {
	return strings.EqualFold(leg.Mode.ID, walkingMode) || strings.EqualFold(leg.Mode.Name, walkingMode)
}

// firstBoardingLeg is the first non-walking leg departing from a known stop.
func firstBoardingLeg(j transit.Journey) (transit.Leg, bool) {
	for _, leg := range j.Legs {
		if isWalking(leg) {
			continue
		}
		if leg.DeparturePoint.NaptanID == "" {
			return transit.Leg{}, false
		}
		return leg, true
	}
	return transit.Leg{}, false
}

// departuresFor picks the soonest arrivals at the leg's stop, preferring the
// leg's own lines when any match.
func departuresFor(leg transit.Leg, arrivals []transit.Arrival, limit int) []transit.Arrival {
	lines := legLines(leg)
	var atStop, onLine []transit.Arrival
	for _, a := range arrivals {
		if a.NaptanID != leg.DeparturePoint.NaptanID {
			continue
		}
		atStop = append(atStop, a)
		if slices.Contains(lines, a.LineID) {
			onLine = append(onLine, a)
		}
	}
	picked := atStop
	if len(onLine) > 0 {
		picked = onLine
	}
	sort.SliceStable(picked, func(i, k int) bool {
		return picked[i].TimeToStation < picked[k].TimeToStation
	})
	if len(picked) > limit {
		picked = picked[:limit]
	}
	return picked
}
