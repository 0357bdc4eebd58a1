// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package provider

import (
	"sync"
	"time"

	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/railwise/railwise/pkg/health"
)

// HealthTracker provides simple health state tracking for providers.
// A provider is considered healthy until RecordFailure is called.
// After a failure, the provider is marked unhealthy for a cooldown
// period, after which it becomes available again to allow recovery.
type HealthTracker struct {
	mu           sync.RWMutex
	label        string
	healthy      bool
	failedAt     time.Time
	cooldown     time.Duration
	failureCount int64
	successCount int64
	nowFunc      func() time.Time
}

// DefaultHealthCooldown is the duration after which an unhealthy provider
// becomes eligible for retry.
const DefaultHealthCooldown = 30 * time.Second

// NewHealthTracker creates a HealthTracker that starts healthy.
// Returns an error if cooldown is zero or negative.
func NewHealthTracker(label string, cooldown time.Duration) (*HealthTracker, error) {
	if cooldown <= 0 {
		return nil, rwerr.Errorf(rwerr.CodeConfigValidateInvalidValue,
			"health tracker cooldown must be positive, got %s", cooldown)
	}
	return &HealthTracker{
		label:    label,
		healthy:  true,
		cooldown: cooldown,
		nowFunc:  time.Now,
	}, nil
}

// isHealthyLocked reports whether the provider is healthy or the cooldown
// has elapsed. The caller MUST hold at least h.mu.RLock.
func (h *HealthTracker) isHealthyLocked() bool {
	if h.healthy {
		return true
	}
	return h.nowFunc().Sub(h.failedAt) >= h.cooldown
}

// IsHealthy returns true if the provider is healthy or the cooldown has elapsed.
func (h *HealthTracker) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.isHealthyLocked()
}

// RecordSuccess marks the provider as healthy.
func (h *HealthTracker) RecordSuccess() {
	h.mu.Lock()
	h.healthy = true
	h.successCount++
	h.mu.Unlock()
}

// RecordFailure marks the provider as unhealthy and increments the
// cumulative failure count.
func (h *HealthTracker) RecordFailure() {
	h.mu.Lock()
	h.healthy = false
	h.failedAt = h.nowFunc()
	h.failureCount++
	h.mu.Unlock()
}

// SetNowFunc overrides the time source (for testing).
func (h *HealthTracker) SetNowFunc(fn func() time.Time) {
	h.mu.Lock()
	h.nowFunc = fn
	h.mu.Unlock()
}

// HealthMetrics returns a point-in-time snapshot of the tracker's state.
func (h *HealthTracker) HealthMetrics() health.Metrics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	m := health.Metrics{
		Label:        h.label,
		SuccessCount: h.successCount,
		FailureCount: h.failureCount,
	}

	if h.failureCount > 0 {
		t := h.failedAt
		m.LastFailureAt = &t
	}

	m.Available = h.isHealthyLocked()
	if !m.Available {
		cooldownEnd := h.failedAt.Add(h.cooldown)
		m.CooldownUntil = &cooldownEnd
	}
	return m
}
