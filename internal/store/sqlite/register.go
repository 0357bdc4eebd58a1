// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package sqlite

import (
	"context"

	"github.com/railwise/railwise/internal/store"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

func init() {
	store.RegisterBackend("sqlite", newSnapshotStore)
}

func newSnapshotStore(ctx context.Context, cfg store.StorageConfig) (store.SnapshotStore, error) {
	if cfg.DSN == "" {
		return nil, rwerr.New(rwerr.CodeConfigValidateInvalidValue, "sqlite: storage.dsn (database path) is required")
	}
	return NewSnapshotStore(ctx, cfg.DSN, cfg.EffectiveRetention())
}
