// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package store

// DefaultRetention is how many snapshots a backend keeps when none is
// configured.
const DefaultRetention = 500

// StorageConfig controls which backend the store factory uses.
type StorageConfig struct {
	Backend   string // memory, sqlite, postgres, mysql, or redis; empty means sqlite.
	DSN       string // file path, database URL, driver DSN, or redis URL
	Retention int    // snapshots kept; 0 uses DefaultRetention, negative keeps all
}

// EffectiveRetention resolves Retention against its default.
func (c StorageConfig) EffectiveRetention() int {
	if c.Retention == 0 {
		return DefaultRetention
	}
	return c.Retention
}
