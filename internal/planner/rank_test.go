// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package planner_test

import (
	"testing"

	"github.com/railwise/railwise/internal/planner"
	"github.com/railwise/railwise/internal/transit"
	"github.com/stretchr/testify/assert"
)

func TestRankOptions(t *testing.T) {
	opts := []planner.Option{
		{Duration: 30, Transfers: 0, DisruptedLines: []string{"central"}},
		{Duration: 35, Transfers: 2},
		{Duration: 35, Transfers: 1},
		{Duration: 40, Transfers: 0},
		{Duration: 20, Transfers: 0, DisruptedLines: []string{"central", "district"}},
	}
	planner.RankOptions(opts)

	type key struct{ d, t, n int }
	var got []key
	for _, o := range opts {
		got = append(got, key{o.Duration, o.Transfers, len(o.DisruptedLines)})
	}
	assert.Equal(t, []key{{35, 1, 0}, {35, 2, 0}, {40, 0, 0}, {30, 0, 1}, {20, 0, 2}}, got)
}

func TestTransfersAndLines(t *testing.T) {
	j := transit.Journey{Legs: []transit.Leg{
		walkLeg(4),
		tubeLeg("victoria", "940GZZLUVIC", "Victoria", "Green Park", 3),
		walkLeg(2),
		tubeLeg("jubilee", "940GZZLUGPK", "Green Park", "Bond Street", 2),
		tubeLeg("victoria", "940GZZLUBST", "Bond Street", "Oxford Circus", 2),
	}}
	assert.Equal(t, 2, planner.Transfers(j))
	assert.Equal(t, []string{"victoria", "jubilee"}, planner.JourneyLines(j))
	assert.Zero(t, planner.Transfers(transit.Journey{Legs: []transit.Leg{walkLeg(10)}}))
}

func TestDescribeAccessibility(t *testing.T) {
	tests := []struct {
		name      string
		legs      []transit.Leg
		stepFree  bool
		disrupted []string
		want      string
	}{
		{
			name: "walking only",
			legs: []transit.Leg{walkLeg(12)},
			want: "Walking only. Includes 12 min of walking. Long walking sections may not suit limited mobility.",
		},
		{
			name:     "direct step free",
			legs:     []transit.Leg{tubeLeg("dlr", "a", "Bank", "Canary Wharf", 12)},
			stepFree: true,
			want:     "Direct journey with no changes. Planned with step-free access preferences.",
		},
		{
			name: "one change",
			legs: []transit.Leg{
				tubeLeg("central", "a", "Bank", "Liverpool Street", 2),
				walkLeg(3),
				tubeLeg("elizabeth", "b", "Liverpool Street", "Stratford", 7),
			},
			want: "1 change at Liverpool Street. Includes 3 min of walking.",
		},
		{
			name: "two changes and disruption",
			legs: []transit.Leg{
				tubeLeg("victoria", "a", "Brixton", "Green Park", 10),
				tubeLeg("jubilee", "b", "Green Park", "Bond Street", 2),
				tubeLeg("central", "c", "Bond Street", "Bank", 12),
			},
			disrupted: []string{"central", "jubilee"},
			want:      "2 changes at Green Park and Bond Street. Disruption on central and jubilee may affect lifts and step-free access.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planner.DescribeAccessibility(transit.Journey{Legs: tt.legs}, tt.stepFree, tt.disrupted)
			assert.Equal(t, tt.want, got)
		})
	}
}
