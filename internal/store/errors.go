// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package store

import (
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// ErrNoSnapshot builds the error Latest returns for an empty store.
func ErrNoSnapshot(backend string) error {
	return rwerr.New(rwerr.CodeStoreSnapshotNotFound, "no snapshot stored", rwerr.Field("backend", backend))
}

// DatabaseError wraps a backend failure for op.
func DatabaseError(err error, backend, op string) error {
	return rwerr.Wrapf(err, rwerr.CodeStoreDatabaseFailure, "%s: %s", backend, op)
}
