// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

func init() {
	RegisterBackend("memory", func(_ context.Context, cfg StorageConfig) (SnapshotStore, error) {
		return NewMemoryStore(cfg.EffectiveRetention()), nil
	})
}

var _ SnapshotStore = (*MemoryStore)(nil)

// MemoryStore keeps snapshots in process memory. It is used by tests and by
// one-shot CLI runs that do not need persistence.
type MemoryStore struct {
	mu        sync.Mutex
	snaps     []*Snapshot
	retention int
	nowFunc   func() time.Time
}

// NewMemoryStore creates an empty store keeping at most retention snapshots
// (negative keeps all).
func NewMemoryStore(retention int) *MemoryStore {
	return &MemoryStore{retention: retention, nowFunc: time.Now}
}

// Insert stores a copy of snap, stamping CreatedAt when unset.
func (m *MemoryStore) Insert(_ context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	cp := *snap
	cp.Payload = slices.Clone(snap.Payload)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = m.nowFunc().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snaps = append(m.snaps, &cp)
	// Stable sort keeps insertion order among identical timestamps, newest last.
	slices.SortStableFunc(m.snaps, func(a, b *Snapshot) int {
		if c := a.ValidAt.Compare(b.ValidAt); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if m.retention > 0 && len(m.snaps) > m.retention {
		m.snaps = slices.Clone(m.snaps[len(m.snaps)-m.retention:])
	}
	return nil
}

// Latest returns the newest snapshot.
func (m *MemoryStore) Latest(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.snaps) == 0 {
		return nil, ErrNoSnapshot("memory")
	}
	cp := *m.snaps[len(m.snaps)-1]
	cp.Payload = slices.Clone(cp.Payload)
	return &cp, nil
}

// Len reports how many snapshots are held.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
