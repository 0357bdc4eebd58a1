// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railwise/railwise/internal/store"
	_ "github.com/railwise/railwise/internal/store/sqlite" // register sqlite backend
	rwerr "github.com/railwise/railwise/pkg/errors"
)

func TestOpen_Memory(t *testing.T) {
	s, err := store.Open(context.Background(), store.StorageConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)
	require.NoError(t, s.Close())
}

func TestOpen_DefaultBackendIsSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "snapshots.db")
	s, err := store.Open(context.Background(), store.StorageConfig{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	assert.NotNil(t, s)
}

func TestOpen_SQLiteRequiresDSN(t *testing.T) {
	_, err := store.Open(context.Background(), store.StorageConfig{Backend: "sqlite"})
	require.Error(t, err)
	assert.True(t, rwerr.IsInvalidInput(err))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := store.Open(context.Background(), store.StorageConfig{Backend: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
	assert.Equal(t, rwerr.CodeStoreBackendUnsupported, rwerr.CodeOf(err))
}

func TestBackendsListsRegistered(t *testing.T) {
	names := store.Backends()
	assert.Contains(t, names, "memory")
	assert.Contains(t, names, "sqlite")
}

func TestEffectiveRetention(t *testing.T) {
	assert.Equal(t, store.DefaultRetention, store.StorageConfig{}.EffectiveRetention())
	assert.Equal(t, 7, store.StorageConfig{Retention: 7}.EffectiveRetention())
	assert.Equal(t, -1, store.StorageConfig{Retention: -1}.EffectiveRetention())
}
