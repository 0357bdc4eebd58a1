// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package store

import (
	"context"
	"sort"
	"sync"

	rwerr "github.com/railwise/railwise/pkg/errors"
)

// DefaultBackend is used when StorageConfig.Backend is empty.
const DefaultBackend = "sqlite"

// Factory opens a snapshot store for cfg.
type Factory func(ctx context.Context, cfg StorageConfig) (SnapshotStore, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Backends lists registered backend names in sorted order.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveBackend returns the effective backend name.
func resolveBackend(cfg StorageConfig) string {
	if cfg.Backend == "" {
		return DefaultBackend
	}
	return cfg.Backend
}

// Open creates the snapshot store selected by cfg.
func Open(ctx context.Context, cfg StorageConfig) (SnapshotStore, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, rwerr.Errorf(rwerr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	return factory(ctx, cfg)
}
