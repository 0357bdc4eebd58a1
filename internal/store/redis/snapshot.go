// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package redis stores status snapshots in a Redis list, newest first.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/railwise/railwise/internal/store"
	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

const (
	backendName = "redis"

	// DefaultKey is the list holding encoded snapshots.
	DefaultKey = "railwise:status:snapshots"

	// latestWindow is how many list heads Latest inspects. Concurrent
	// refreshers can push slightly out of valid_at order; the window absorbs
	// that.
	latestWindow = 16
)

func init() {
	store.RegisterBackend(backendName, func(ctx context.Context, cfg store.StorageConfig) (store.SnapshotStore, error) {
		if cfg.DSN == "" {
			return nil, rwerr.New(rwerr.CodeConfigValidateInvalidValue, "redis: storage.dsn (redis URL) is required")
		}
		client, err := NewClient(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return NewSnapshotStore(client, DefaultKey, cfg.EffectiveRetention()), nil
	})
}

// NewClient parses redisURL and verifies the server answers.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeConfigValidateInvalidValue, "parsing redis URL")
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, store.DatabaseError(err, backendName, "pinging redis")
	}
	return client, nil
}

type record struct {
	ID        string               `json:"id"`
	Payload   []transit.LineStatus `json:"payload"`
	Source    string               `json:"source"`
	ValidAt   time.Time            `json:"valid_at"`
	CreatedAt time.Time            `json:"created_at"`
}

var _ store.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore implements store.SnapshotStore with LPUSH and LTRIM.
type SnapshotStore struct {
	client    *redis.Client
	key       string
	retention int
	nowFunc   func() time.Time
}

// NewSnapshotStore wraps client. The store owns client and closes it.
func NewSnapshotStore(client *redis.Client, key string, retention int) *SnapshotStore {
	if key == "" {
		key = DefaultKey
	}
	return &SnapshotStore{client: client, key: key, retention: retention, nowFunc: time.Now}
}

// Insert pushes snap to the head of the list and trims it to retention.
func (s *SnapshotStore) Insert(ctx context.Context, snap *store.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.nowFunc().UTC()
	}

	b, err := json.Marshal(record{
		ID:        snap.ID,
		Payload:   snap.Payload,
		Source:    snap.Source,
		ValidAt:   snap.ValidAt.UTC(),
		CreatedAt: snap.CreatedAt.UTC(),
	})
	if err != nil {
		return rwerr.Wrap(err, rwerr.CodeStoreSnapshotInvalid, "encoding snapshot")
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, b)
	if s.retention > 0 {
		pipe.LTrim(ctx, s.key, 0, int64(s.retention-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return rwerr.With(store.DatabaseError(err, backendName, "inserting snapshot"), rwerr.Field("snapshot_id", snap.ID))
	}
	return nil
}

// Latest returns the newest snapshot among the list head.
func (s *SnapshotStore) Latest(ctx context.Context) (*store.Snapshot, error) {
	vals, err := s.client.LRange(ctx, s.key, 0, latestWindow-1).Result()
	if err != nil {
		return nil, store.DatabaseError(err, backendName, "reading latest snapshot")
	}
	if len(vals) == 0 {
		return nil, store.ErrNoSnapshot(backendName)
	}

	var best *record
	for _, v := range vals {
		var r record
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, rwerr.Wrap(err, rwerr.CodeStoreDatabaseFailure, "decoding snapshot", rwerr.Field("backend", backendName))
		}
		if best == nil || newer(&r, best) {
			rr := r
			best = &rr
		}
	}

	return &store.Snapshot{
		ID:        best.ID,
		Payload:   best.Payload,
		Source:    best.Source,
		ValidAt:   best.ValidAt,
		CreatedAt: best.CreatedAt,
	}, nil
}

func newer(a, b *record) bool {
	if !a.ValidAt.Equal(b.ValidAt) {
		return a.ValidAt.After(b.ValidAt)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// Close closes the client.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}
