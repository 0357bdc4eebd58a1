// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package store

import (
	"encoding/json"

	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// EncodePayload serializes a snapshot payload for storage. A nil payload is
// stored as an empty list.
func EncodePayload(lines []transit.LineStatus) ([]byte, error) {
	if lines == nil {
		lines = []transit.LineStatus{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeStoreSnapshotInvalid, "encoding snapshot payload")
	}
	return b, nil
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(b []byte) ([]transit.LineStatus, error) {
	var lines []transit.LineStatus
	if err := json.Unmarshal(b, &lines); err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeStoreDatabaseFailure, "decoding snapshot payload")
	}
	return lines, nil
}
