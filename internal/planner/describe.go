// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package planner

import (
	"fmt"
	"strings"

	"github.com/railwise/railwise/internal/transit"
)

// longWalkMinutes is the walking total above which a journey is flagged for
// travellers with limited mobility.
const longWalkMinutes = 10

// DescribeAccessibility summarises how demanding a journey is to make,
// deterministically from its legs.
func DescribeAccessibility(j transit.Journey, stepFree bool, disrupted []string) string {
	var parts []string

	var interchanges []string
	walk := 0
	rides := 0
	for i, leg := range j.Legs {
		if isWalking(leg) {
			walk += leg.Duration
			continue
		}
		rides++
		if i < len(j.Legs)-1 && hasLaterRide(j.Legs[i+1:]) {
			if name := leg.ArrivalPoint.CommonName; name != "" {
				interchanges = append(interchanges, name)
			}
		}
	}

	switch {
	case rides == 0:
		parts = append(parts, "Walking only.")
	case len(interchanges) == 0 && rides == 1:
		parts = append(parts, "Direct journey with no changes.")
	case len(interchanges) == 0:
		parts = append(parts, fmt.Sprintf("%d changes.", rides-1))
	case len(interchanges) == 1:
		parts = append(parts, "1 change at "+interchanges[0]+".")
	default:
		parts = append(parts, fmt.Sprintf("%d changes at %s.", len(interchanges), joinNames(interchanges)))
	}

	if walk > 0 {
		parts = append(parts, fmt.Sprintf("Includes %d min of walking.", walk))
	}

	if stepFree {
		parts = append(parts, "Planned with step-free access preferences.")
	} else if walk > longWalkMinutes {
		parts = append(parts, "Long walking sections may not suit limited mobility.")
	}

	if len(disrupted) > 0 {
		parts = append(parts, "Disruption on "+joinNames(disrupted)+" may affect lifts and step-free access.")
	}

	return strings.Join(parts, " ")
}

func hasLaterRide(legs []transit.Leg) bool {
	for _, leg := range legs {
		if !isWalking(leg) {
			return true
		}
	}
	return false
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
