// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// Source tags recorded on snapshots.
const (
	SourceCron          = "cron"
	SourceManualRefresh = "manual-refresh"
	SourceLive          = "live"
)

// Snapshot is a persisted, timestamped copy of line status.
type Snapshot struct {
	ID        string
	Payload   []transit.LineStatus
	Source    string
	ValidAt   time.Time
	CreatedAt time.Time
}

// NewSnapshot builds a snapshot for payload with a fresh ID. CreatedAt is
// left for the backend to stamp.
func NewSnapshot(payload []transit.LineStatus, source string, validAt time.Time) *Snapshot {
	return &Snapshot{
		ID:      uuid.NewString(),
		Payload: payload,
		Source:  source,
		ValidAt: validAt.UTC(),
	}
}

// Age returns how old the snapshot is at now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.ValidAt)
}

// Validate checks that the snapshot can be stored.
func (s *Snapshot) Validate() error {
	if s == nil {
		return rwerr.New(rwerr.CodeStoreSnapshotInvalid, "snapshot: nil")
	}
	if s.ID == "" {
		return rwerr.New(rwerr.CodeStoreSnapshotInvalid, "snapshot: ID is required")
	}
	if s.Source == "" {
		return rwerr.New(rwerr.CodeStoreSnapshotInvalid, "snapshot: Source is required")
	}
	if s.ValidAt.IsZero() {
		return rwerr.New(rwerr.CodeStoreSnapshotInvalid, "snapshot: ValidAt is required")
	}
	return nil
}

// SnapshotStore persists status snapshots. Latest returns the most recent by
// valid_at, then created_at, and a not-found coded error when empty.
// Concurrent inserts are allowed; the newest wins on read.
type SnapshotStore interface {
	Insert(ctx context.Context, snap *Snapshot) error
	Latest(ctx context.Context) (*Snapshot, error)
	Close() error
}
