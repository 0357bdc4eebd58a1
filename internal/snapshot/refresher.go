// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package snapshot serves line status from persisted snapshots, refreshing
// and falling back to live fetches when they go stale.
package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/railwise/railwise/internal/store"
	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// StatusFetcher fetches live line status. *transit.Client implements it.
type StatusFetcher interface {
	LineStatus(ctx context.Context, modes []string) ([]transit.LineStatus, error)
}

// SnapshotRefresher fetches status and persists it as a new snapshot tagged
// with source.
type SnapshotRefresher interface {
	Refresh(ctx context.Context, source string) (*store.Snapshot, error)
}

var _ SnapshotRefresher = (*Refresher)(nil)

// Refresher fetches status through a dedicated autofetch client and stores
// it. Both the read path and the scheduler share one Refresher.
type Refresher struct {
	fetcher StatusFetcher
	store   store.SnapshotStore
	modes   []string
	nowFunc func() time.Time
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshModes limits the refreshed modes. Nil means the client default.
func WithRefreshModes(modes []string) RefresherOption {
	return func(r *Refresher) { r.modes = modes }
}

// WithRefresherClock overrides the time source stamped as valid_at.
func WithRefresherClock(fn func() time.Time) RefresherOption {
	return func(r *Refresher) { r.nowFunc = fn }
}

// NewRefresher creates a Refresher writing to st.
func NewRefresher(fetcher StatusFetcher, st store.SnapshotStore, opts ...RefresherOption) *Refresher {
	r := &Refresher{fetcher: fetcher, store: st, nowFunc: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh fetches line status and inserts it as a snapshot valid at the
// fetch time.
func (r *Refresher) Refresh(ctx context.Context, source string) (*store.Snapshot, error) {
	lines, err := r.fetcher.LineStatus(ctx, r.modes)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeStatusUnavailable, "refreshing line status", rwerr.Field("source", source))
	}

	snap := store.NewSnapshot(lines, source, r.nowFunc())
	if err := r.store.Insert(ctx, snap); err != nil {
		return nil, err
	}

	slog.Debug("status snapshot stored",
		"snapshot_id", snap.ID,
		"source", source,
		"lines", len(lines),
	)
	return snap, nil
}
