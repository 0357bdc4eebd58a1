// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package health

import "time"

// Metrics exposes the current state of a single upstream credential or
// provider for operator visibility. All fields are point-in-time snapshots
// safe to serialize to JSON.
type Metrics struct {
	Label          string     `json:"label"`
	SuccessCount   int64      `json:"success_count"`
	RateLimitCount int64      `json:"rate_limit_count"`
	FailureCount   int64      `json:"failure_count"`
	LastFailureAt  *time.Time `json:"last_failure_at,omitempty"`
	CooldownUntil  *time.Time `json:"cooldown_until,omitempty"`
	Available      bool       `json:"available"`
}

// CoolingDown reports whether the metrics describe an entity whose cooldown
// has not yet elapsed at now.
func (m Metrics) CoolingDown(now time.Time) bool {
	return m.CooldownUntil != nil && m.CooldownUntil.After(now)
}
