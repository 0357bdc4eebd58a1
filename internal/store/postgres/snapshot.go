// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package postgres stores status snapshots in PostgreSQL via pgxpool.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/railwise/railwise/internal/store"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

const backendName = "postgres"

func init() {
	store.RegisterBackend(backendName, func(ctx context.Context, cfg store.StorageConfig) (store.SnapshotStore, error) {
		if cfg.DSN == "" {
			return nil, rwerr.New(rwerr.CodeConfigValidateInvalidValue, "postgres: storage.dsn (database URL) is required")
		}
		pool, err := NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		s, err := NewSnapshotStore(ctx, pool, cfg.EffectiveRetention())
		if err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	})
}

// NewPool parses databaseURL and opens a connection pool sized for a single
// status writer and occasional readers.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeConfigValidateInvalidValue, "parsing database URL")
	}

	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, store.DatabaseError(err, backendName, "creating pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, store.DatabaseError(err, backendName, "pinging database")
	}

	return pool, nil
}

var _ store.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore implements store.SnapshotStore on a pgx pool. It owns the
// pool and closes it on Close.
type SnapshotStore struct {
	pool      *pgxpool.Pool
	retention int
	nowFunc   func() time.Time
}

// NewSnapshotStore creates the snapshots table if needed.
func NewSnapshotStore(ctx context.Context, pool *pgxpool.Pool, retention int) (*SnapshotStore, error) {
	const ddl = `
CREATE TABLE IF NOT EXISTS status_snapshots (
	id         UUID PRIMARY KEY,
	payload    JSONB NOT NULL,
	source     TEXT NOT NULL,
	valid_at   TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_status_snapshots_recency ON status_snapshots (valid_at DESC, created_at DESC);
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return nil, store.DatabaseError(err, backendName, "migrating schema")
	}
	return &SnapshotStore{pool: pool, retention: retention, nowFunc: time.Now}, nil
}

// Insert stores snap and prunes rows beyond the retention limit.
func (s *SnapshotStore) Insert(ctx context.Context, snap *store.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	payload, err := store.EncodePayload(snap.Payload)
	if err != nil {
		return err
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.nowFunc().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO status_snapshots (id, payload, source, valid_at, created_at) VALUES ($1, $2, $3, $4, $5)`,
		snap.ID, payload, snap.Source, snap.ValidAt, snap.CreatedAt,
	)
	if err != nil {
		return rwerr.With(store.DatabaseError(err, backendName, "inserting snapshot"), rwerr.Field("snapshot_id", snap.ID))
	}

	if s.retention > 0 {
		_, err = s.pool.Exec(ctx,
			`DELETE FROM status_snapshots WHERE id NOT IN (
				SELECT id FROM status_snapshots ORDER BY valid_at DESC, created_at DESC LIMIT $1
			)`,
			s.retention,
		)
		if err != nil {
			return store.DatabaseError(err, backendName, "pruning snapshots")
		}
	}
	return nil
}

// Latest returns the most recent snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) (*store.Snapshot, error) {
	var (
		snap    store.Snapshot
		payload []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, payload, source, valid_at, created_at
		 FROM status_snapshots ORDER BY valid_at DESC, created_at DESC LIMIT 1`,
	).Scan(&snap.ID, &payload, &snap.Source, &snap.ValidAt, &snap.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNoSnapshot(backendName)
	}
	if err != nil {
		return nil, store.DatabaseError(err, backendName, "reading latest snapshot")
	}

	if snap.Payload, err = store.DecodePayload(payload); err != nil {
		return nil, err
	}
	snap.ValidAt = snap.ValidAt.UTC()
	snap.CreatedAt = snap.CreatedAt.UTC()
	return &snap, nil
}

// Close closes the pool.
func (s *SnapshotStore) Close() error {
	s.pool.Close()
	return nil
}
