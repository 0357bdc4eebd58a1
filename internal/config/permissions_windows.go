// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

//go:build windows

package config

import (
	"io/fs"
	"log/slog"
)

// InsecurePermissions always reports false; Windows uses ACLs, not mode bits.
func InsecurePermissions(string) (fs.FileMode, bool) { return 0, false }

// WarnInsecurePermissions is a no-op on Windows.
func WarnInsecurePermissions(path string) {
	if path != "" {
		slog.Debug("config permission check not implemented on Windows", "path", path)
	}
}
