// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/railwise/railwise/internal/store"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

const backendName = "sqlite"

// Compile-time interface check.
var _ store.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore implements store.SnapshotStore backed by SQLite.
type SnapshotStore struct {
	db        *sql.DB
	retention int
	nowFunc   func() time.Time
}

// NewSnapshotStore opens (or creates) a SQLite database at dbPath and
// initialises the snapshots table. retention <= 0 disables pruning.
func NewSnapshotStore(ctx context.Context, dbPath string, retention int) (*SnapshotStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, store.DatabaseError(err, backendName, "creating data directory")
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, store.DatabaseError(err, backendName, "opening db")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, store.DatabaseError(err, backendName, "pinging db")
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, store.DatabaseError(err, backendName, "migrating db")
	}

	return &SnapshotStore{db: db, retention: retention, nowFunc: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS status_snapshots (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	source     TEXT NOT NULL,
	valid_at   INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_status_snapshots_recency ON status_snapshots(valid_at DESC, created_at DESC);
`
	_, err := db.ExecContext(ctx, ddl)
	return err
}

// Close closes the underlying database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
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

	const q = `INSERT INTO status_snapshots (id, payload, source, valid_at, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		snap.ID,
		string(payload),
		snap.Source,
		snap.ValidAt.UnixNano(),
		snap.CreatedAt.UnixNano(),
	); err != nil {
		return rwerr.With(store.DatabaseError(err, backendName, "inserting snapshot"), rwerr.Field("snapshot_id", snap.ID))
	}

	if s.retention > 0 {
		const prune = `DELETE FROM status_snapshots WHERE id NOT IN (
	SELECT id FROM status_snapshots ORDER BY valid_at DESC, created_at DESC LIMIT ?
)`
		if _, err := s.db.ExecContext(ctx, prune, s.retention); err != nil {
			return store.DatabaseError(err, backendName, "pruning snapshots")
		}
	}
	return nil
}

// Latest returns the most recent snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) (*store.Snapshot, error) {
	const q = `SELECT id, payload, source, valid_at, created_at
FROM status_snapshots ORDER BY valid_at DESC, created_at DESC LIMIT 1`

	var (
		snap               store.Snapshot
		payload            string
		validAt, createdAt int64
	)
	err := s.db.QueryRowContext(ctx, q).Scan(&snap.ID, &payload, &snap.Source, &validAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNoSnapshot(backendName)
	}
	if err != nil {
		return nil, store.DatabaseError(err, backendName, "reading latest snapshot")
	}

	if snap.Payload, err = store.DecodePayload([]byte(payload)); err != nil {
		return nil, err
	}
	snap.ValidAt = time.Unix(0, validAt).UTC()
	snap.CreatedAt = time.Unix(0, createdAt).UTC()
	return &snap, nil
}

// Count returns the number of stored snapshots.
func (s *SnapshotStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM status_snapshots`).Scan(&n); err != nil {
		return 0, store.DatabaseError(err, backendName, "counting snapshots")
	}
	return n, nil
}
