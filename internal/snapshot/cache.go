// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package snapshot

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/railwise/railwise/internal/store"
	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// DefaultMaxAge is the freshness bound for interactive reads.
const DefaultMaxAge = 2 * time.Minute

// Origin names the read strategy that produced a Result.
type Origin string

const (
	OriginCache   Origin = "cache"
	OriginRefresh Origin = "refresh"
	OriginLive    Origin = "live"
	OriginStale   Origin = "stale"
)

// Result is line status with its provenance.
type Result struct {
	Lines   []transit.LineStatus
	Source  string
	ValidAt time.Time
	Origin  Origin
}

// Age returns how old the result is at now.
func (r *Result) Age(now time.Time) time.Duration {
	return now.Sub(r.ValidAt)
}

// Cache answers line-status reads from the snapshot store. Strategies are
// tried in order: a fresh stored snapshot, a forced refresh then re-read, a
// live fetch through the interactive client. If all three fail to produce
// fresh data the newest snapshot seen is returned as stale; an error is
// returned only when there is nothing at all.
type Cache struct {
	store     store.SnapshotStore
	refresher SnapshotRefresher
	live      StatusFetcher
	modes     []string
	nowFunc   func() time.Time

	refreshGroup singleflight.Group
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheClock overrides the time source used for freshness checks.
func WithCacheClock(fn func() time.Time) CacheOption {
	return func(c *Cache) { c.nowFunc = fn }
}

// WithLiveModes limits the modes of the live fallback fetch.
func WithLiveModes(modes []string) CacheOption {
	return func(c *Cache) { c.modes = modes }
}

// NewCache creates a Cache. live is the interactive client, which holds a
// different credential pool than the refresher's autofetch client.
func NewCache(st store.SnapshotStore, refresher SnapshotRefresher, live StatusFetcher, opts ...CacheOption) *Cache {
	c := &Cache{store: st, refresher: refresher, live: live, nowFunc: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LineStatus returns line status no older than maxAge when any strategy can
// produce it. maxAge <= 0 uses DefaultMaxAge.
func (c *Cache) LineStatus(ctx context.Context, maxAge time.Duration) (*Result, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	var newest *store.Snapshot

	snap := c.latest(ctx)
	newest = newer(newest, snap)
	if c.fresh(snap, maxAge) {
		return fromSnapshot(snap, OriginCache), nil
	}

	if c.refresh(ctx) {
		snap = c.latest(ctx)
		newest = newer(newest, snap)
		if c.fresh(snap, maxAge) {
			return fromSnapshot(snap, OriginRefresh), nil
		}
		slog.Warn("status snapshot still stale after refresh", "max_age", maxAge)
	}

	lines, err := c.live.LineStatus(ctx, c.modes)
	if err == nil {
		now := c.nowFunc()
		c.persistLive(ctx, lines, now)
		return &Result{Lines: lines, Source: store.SourceLive, ValidAt: now, Origin: OriginLive}, nil
	}

	if newest != nil {
		slog.Warn("live status fetch failed, serving stale snapshot",
			"error", err,
			"snapshot_id", newest.ID,
			"age", newest.Age(c.nowFunc()),
		)
		return fromSnapshot(newest, OriginStale), nil
	}
	return nil, rwerr.Wrap(err, rwerr.CodeStatusUnavailable, "line status unavailable")
}

// Refresh forces a refresh outside the read path.
func (c *Cache) Refresh(ctx context.Context, source string) (*store.Snapshot, error) {
	return c.refresher.Refresh(ctx, source)
}

// latest reads the newest snapshot, treating store failures as a miss.
func (c *Cache) latest(ctx context.Context) *store.Snapshot {
	snap, err := c.store.Latest(ctx)
	if err != nil {
		if !rwerr.IsNotFound(err) {
			slog.Warn("reading status snapshot failed", "error", err)
		}
		return nil
	}
	return snap
}

func (c *Cache) fresh(snap *store.Snapshot, maxAge time.Duration) bool {
	return snap != nil && snap.Age(c.nowFunc()) <= maxAge
}

// refresh runs the manual refresh, collapsing concurrent callers into one
// upstream fetch. It reports whether the refresh succeeded.
func (c *Cache) refresh(ctx context.Context) bool {
	_, err, shared := c.refreshGroup.Do(store.SourceManualRefresh, func() (any, error) {
		return c.refresher.Refresh(ctx, store.SourceManualRefresh)
	})
	if err != nil {
		slog.Warn("status refresh failed, falling back to live fetch", "error", err, "shared", shared)
		return false
	}
	return true
}

func (c *Cache) persistLive(ctx context.Context, lines []transit.LineStatus, now time.Time) {
	if err := c.store.Insert(ctx, store.NewSnapshot(lines, store.SourceLive, now)); err != nil {
		slog.Warn("persisting live status failed", "error", err)
	}
}

func newer(a, b *store.Snapshot) *store.Snapshot {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.ValidAt.After(a.ValidAt):
		return b
	default:
		return a
	}
}

func fromSnapshot(s *store.Snapshot, origin Origin) *Result {
	return &Result{Lines: s.Payload, Source: s.Source, ValidAt: s.ValidAt, Origin: origin}
}
