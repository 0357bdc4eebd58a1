// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

const (
	groupRead fs.FileMode = 0o040
	otherRead fs.FileMode = 0o004
)

// InsecurePermissions reports whether path is readable by group or others.
// A missing file is not insecure.
func InsecurePermissions(path string) (fs.FileMode, bool) {
	if path == "" {
		return 0, false
	}
	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return 0, false
	}
	mode := info.Mode()
	return mode, mode.Perm()&(groupRead|otherRead) != 0
}

// WarnInsecurePermissions logs a warning when the config file, which may
// hold transit and model API keys, is readable by other users. It never
// fails startup.
func WarnInsecurePermissions(path string) {
	if mode, bad := InsecurePermissions(path); bad {
		slog.Warn(
			"config file is readable by other users; API keys may be exposed",
			"path", path,
			"mode", mode,
			"recommended", "0600",
		)
	}
}
