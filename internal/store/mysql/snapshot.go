// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package mysql stores status snapshots in MySQL or MariaDB.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/railwise/railwise/internal/store"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

const backendName = "mysql"

func init() {
	store.RegisterBackend(backendName, func(ctx context.Context, cfg store.StorageConfig) (store.SnapshotStore, error) {
		if cfg.DSN == "" {
			return nil, rwerr.New(rwerr.CodeConfigValidateInvalidValue, "mysql: storage.dsn is required")
		}
		db, err := OpenDB(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		s, err := NewSnapshotStore(ctx, db, cfg.EffectiveRetention())
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	})
}

// ParseDSN validates a driver DSN (user:pass@tcp(host:port)/db) and forces
// UTC time parsing so DATETIME columns scan into time.Time.
func ParseDSN(dsn string) (*mysqldrv.Config, error) {
	cfg, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeConfigValidateInvalidValue, "parsing mysql DSN")
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg, nil
}

// OpenDB opens and pings a connection pool for dsn.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysqldrv.NewConnector(cfg)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeConfigValidateInvalidValue, "building mysql connector")
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, store.DatabaseError(err, backendName, "pinging database")
	}
	return db, nil
}

var _ store.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore implements store.SnapshotStore on database/sql with the
// MySQL driver. It owns db and closes it on Close.
type SnapshotStore struct {
	db        *sql.DB
	retention int
	nowFunc   func() time.Time
}

// NewSnapshotStore creates the snapshots table if needed.
func NewSnapshotStore(ctx context.Context, db *sql.DB, retention int) (*SnapshotStore, error) {
	const ddl = `
CREATE TABLE IF NOT EXISTS status_snapshots (
	id         CHAR(36) NOT NULL PRIMARY KEY,
	payload    MEDIUMTEXT NOT NULL,
	source     VARCHAR(32) NOT NULL,
	valid_at   DATETIME(6) NOT NULL,
	created_at DATETIME(6) NOT NULL,
	INDEX idx_status_snapshots_recency (valid_at DESC, created_at DESC)
)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, store.DatabaseError(err, backendName, "migrating schema")
	}
	return &SnapshotStore{db: db, retention: retention, nowFunc: time.Now}, nil
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
		snap.ValidAt.UTC(),
		snap.CreatedAt.UTC(),
	); err != nil {
		return rwerr.With(store.DatabaseError(err, backendName, "inserting snapshot"), rwerr.Field("snapshot_id", snap.ID))
	}

	if s.retention > 0 {
		// MySQL rejects LIMIT inside IN subqueries on the target table; the
		// derived table is materialised first.
		const prune = `DELETE FROM status_snapshots WHERE id NOT IN (
	SELECT id FROM (
		SELECT id FROM status_snapshots ORDER BY valid_at DESC, created_at DESC LIMIT ?
	) AS keep
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
		snap    store.Snapshot
		payload string
	)
	err := s.db.QueryRowContext(ctx, q).Scan(&snap.ID, &payload, &snap.Source, &snap.ValidAt, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNoSnapshot(backendName)
	}
	if err != nil {
		return nil, store.DatabaseError(err, backendName, "reading latest snapshot")
	}

	if snap.Payload, err = store.DecodePayload([]byte(payload)); err != nil {
		return nil, err
	}
	snap.ValidAt = snap.ValidAt.UTC()
	snap.CreatedAt = snap.CreatedAt.UTC()
	return &snap, nil
}

// Close closes the connection pool.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
