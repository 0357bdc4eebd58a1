// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package keypool owns an ordered pool of upstream API credentials and
// decides which of them may be tried for the next outbound call.
package keypool

import (
	"strings"
	"time"

	"github.com/railwise/railwise/pkg/health"
)

// DefaultCooldown is applied when a rate-limited response carries no
// Retry-After hint.
const DefaultCooldown = 60 * time.Second

// AnonymousLabel is how the no-credential sentinel appears in logs and metrics.
const AnonymousLabel = "anonymous"

// Candidate is one credential the caller may try, in priority order. The
// zero-credential sentinel has Index -1 and an empty Key.
type Candidate struct {
	Key   string
	Index int
}

// Anonymous reports whether the candidate is the last-resort sentinel that
// calls the upstream without a credential.
func (c Candidate) Anonymous() bool {
	return c.Index < 0
}

// Label returns a log-safe representation of the credential.
func (c Candidate) Label() string {
	if c.Anonymous() {
		return AnonymousLabel
	}
	return Mask(c.Key)
}

var anonymous = Candidate{Index: -1}

// Pool is an ordered, de-duplicated set of credentials with its rotation
// state. A Pool is safe for concurrent use.
type Pool struct {
	keys    []string
	state   *State
	nowFunc func() time.Time
}

// Option configures a Pool.
type Option func(*Pool)

// WithClock overrides the time source (for testing).
func WithClock(fn func() time.Time) Option {
	return func(p *Pool) { p.nowFunc = fn }
}

// WithState injects rotation state. Without it every Pool gets a fresh State.
func WithState(s *State) Option {
	return func(p *Pool) { p.state = s }
}

// New creates a Pool from keys. Duplicates are removed keeping the first
// occurrence and blank entries are dropped. An empty pool is valid and only
// ever yields the anonymous candidate.
func New(keys []string, opts ...Option) *Pool {
	p := &Pool{
		keys:    Dedupe(keys),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.state == nil {
		p.state = NewState()
	}
	return p
}

// Size returns the number of real credentials in the pool.
func (p *Pool) Size() int {
	return len(p.keys)
}

// Candidates returns the credentials to try for one logical call: starting at
// the rotation cursor, each pool member once (wrapping around) unless it is
// cooling down, followed by the anonymous sentinel. It has no side effects.
func (p *Pool) Candidates() []Candidate {
	n := len(p.keys)
	if n == 0 {
		return []Candidate{anonymous}
	}

	now := p.nowFunc()

	p.state.mu.Lock()
	defer p.state.mu.Unlock()

	start := p.state.cursorLocked(n)
	out := make([]Candidate, 0, n+1)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		key := p.keys[idx]
		if until, ok := p.state.cooldowns[key]; ok && until.After(now) {
			continue
		}
		out = append(out, Candidate{Key: key, Index: idx})
	}
	return append(out, anonymous)
}

// Advance moves the cursor to the slot after the credential that just served
// a call successfully. The anonymous sentinel never moves the cursor.
func (p *Pool) Advance(c Candidate) {
	n := len(p.keys)
	if c.Anonymous() || n == 0 {
		return
	}

	p.state.mu.Lock()
	defer p.state.mu.Unlock()

	p.state.cursor = (c.Index + 1) % n
	p.state.successes[c.Key]++
}

// CoolDown excludes the credential from Candidates until now+d, overwriting
// any earlier cooldown. It returns the new deadline. Non-positive durations
// fall back to DefaultCooldown.
func (p *Pool) CoolDown(c Candidate, d time.Duration) time.Time {
	if c.Anonymous() {
		return time.Time{}
	}
	if d <= 0 {
		d = DefaultCooldown
	}

	now := p.nowFunc()
	until := now.Add(d)

	p.state.mu.Lock()
	defer p.state.mu.Unlock()

	p.state.cooldowns[c.Key] = until
	p.state.rateLimits[c.Key]++
	p.state.lastFailure[c.Key] = now
	return until
}

// CooldownUntil returns the active cooldown deadline for key, if any.
func (p *Pool) CooldownUntil(key string) (time.Time, bool) {
	now := p.nowFunc()

	p.state.mu.Lock()
	defer p.state.mu.Unlock()

	until, ok := p.state.cooldowns[key]
	if !ok || !until.After(now) {
		return time.Time{}, false
	}
	return until, true
}

// Cursor returns the current rotation index, always in [0, Size()).
func (p *Pool) Cursor() int {
	p.state.mu.Lock()
	defer p.state.mu.Unlock()
	return p.state.cursorLocked(len(p.keys))
}

// Metrics returns a per-credential snapshot in pool order.
func (p *Pool) Metrics() []health.Metrics {
	now := p.nowFunc()

	p.state.mu.Lock()
	defer p.state.mu.Unlock()

	out := make([]health.Metrics, 0, len(p.keys))
	for _, key := range p.keys {
		m := health.Metrics{
			Label:          Mask(key),
			SuccessCount:   p.state.successes[key],
			RateLimitCount: p.state.rateLimits[key],
			Available:      true,
		}
		if t, ok := p.state.lastFailure[key]; ok {
			m.LastFailureAt = &t
		}
		if until, ok := p.state.cooldowns[key]; ok && until.After(now) {
			u := until
			m.CooldownUntil = &u
			m.Available = false
		}
		out = append(out, m)
	}
	return out
}

// Dedupe trims whitespace, drops blanks, and removes duplicates keeping the
// first occurrence.
func Dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Mask hides all but the first and last two characters of a credential.
func Mask(key string) string {
	if len(key) <= 6 {
		return strings.Repeat("*", len(key))
	}
	return key[:2] + strings.Repeat("*", len(key)-4) + key[len(key)-2:]
}
