// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package keypool

import (
	"sync"
	"time"
)

// State is the mutable rotation bookkeeping for one pool: the cursor and the
// cooldown table. It is owned by exactly one Pool; two pools never share a
// State unless a caller passes the same one to both via WithState.
type State struct {
	mu          sync.Mutex
	cursor      int
	cooldowns   map[string]time.Time
	successes   map[string]int64
	rateLimits  map[string]int64
	lastFailure map[string]time.Time
}

// NewState returns an empty State with the cursor at zero.
func NewState() *State {
	return &State{
		cooldowns:   make(map[string]time.Time),
		successes:   make(map[string]int64),
		rateLimits:  make(map[string]int64),
		lastFailure: make(map[string]time.Time),
	}
}

// cursorLocked clamps the cursor into [0, n). The caller MUST hold s.mu.
func (s *State) cursorLocked(n int) int {
	if n <= 0 {
		return 0
	}
	if s.cursor < 0 || s.cursor >= n {
		s.cursor = ((s.cursor % n) + n) % n
	}
	return s.cursor
}
