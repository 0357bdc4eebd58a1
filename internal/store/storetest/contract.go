// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package storetest holds the behaviour every SnapshotStore backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwise/railwise/internal/store"
	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// Opener returns an empty store keeping at most retention snapshots.
type Opener func(t *testing.T, retention int) store.SnapshotStore

var base = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func lines(ids ...string) []transit.LineStatus {
	out := make([]transit.LineStatus, len(ids))
	for i, id := range ids {
		out[i] = transit.LineStatus{
			ID:   id,
			Name: id,
			LineStatuses: []transit.StatusEntry{
				{StatusSeverity: transit.GoodServiceSeverity, StatusSeverityDescription: "Good Service"},
			},
		}
	}
	return out
}

// Run exercises open against the SnapshotStore contract.
func Run(t *testing.T, open Opener) {
	t.Run("empty store reports not found", func(t *testing.T) {
		s := open(t, 10)
		_, err := s.Latest(context.Background())
		require.Error(t, err)
		assert.True(t, rwerr.IsNotFound(err))
	})

	t.Run("round trip", func(t *testing.T) {
		s := open(t, 10)
		ctx := context.Background()

		snap := store.NewSnapshot(lines("victoria", "central"), store.SourceCron, base)
		require.NoError(t, s.Insert(ctx, snap))

		got, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, snap.ID, got.ID)
		assert.Equal(t, store.SourceCron, got.Source)
		assert.True(t, base.Equal(got.ValidAt), "valid_at %s", got.ValidAt)
		assert.False(t, got.CreatedAt.IsZero())
		require.Len(t, got.Payload, 2)
		assert.Equal(t, "victoria", got.Payload[0].ID)
		assert.True(t, transit.IsGoodService(got.Payload[1]))
	})

	t.Run("latest orders by valid_at", func(t *testing.T) {
		s := open(t, 10)
		ctx := context.Background()

		newest := store.NewSnapshot(lines("new"), store.SourceLive, base.Add(time.Minute))
		older := store.NewSnapshot(lines("old"), store.SourceCron, base)
		require.NoError(t, s.Insert(ctx, newest))
		require.NoError(t, s.Insert(ctx, older))

		got, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, newest.ID, got.ID)
	})

	t.Run("equal valid_at breaks on created_at", func(t *testing.T) {
		s := open(t, 10)
		ctx := context.Background()

		first := store.NewSnapshot(lines("a"), store.SourceCron, base)
		first.CreatedAt = base.Add(time.Second)
		second := store.NewSnapshot(lines("b"), store.SourceManualRefresh, base)
		second.CreatedAt = base.Add(2 * time.Second)
		require.NoError(t, s.Insert(ctx, first))
		require.NoError(t, s.Insert(ctx, second))

		got, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, second.ID, got.ID)
	})

	t.Run("retention keeps newest", func(t *testing.T) {
		s := open(t, 2)
		ctx := context.Background()

		var last *store.Snapshot
		for i := range 5 {
			last = store.NewSnapshot(lines("l"), store.SourceCron, base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, s.Insert(ctx, last))
		}

		got, err := s.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, last.ID, got.ID)
	})

	t.Run("rejects invalid snapshot", func(t *testing.T) {
		s := open(t, 10)
		err := s.Insert(context.Background(), &store.Snapshot{ID: "x"})
		require.Error(t, err)
		assert.Equal(t, rwerr.CodeStoreSnapshotInvalid, rwerr.CodeOf(err))
	})
}
