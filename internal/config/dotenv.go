// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
)

// DefaultDotenvFile is read from the working directory when present.
const DefaultDotenvFile = ".env"

// LoadDotenv loads KEY=VALUE files into the process environment. Variables
// already set win over file values. Missing files are skipped; malformed
// ones are logged and skipped.
func LoadDotenv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{DefaultDotenvFile}
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		switch {
		case err == nil:
			slog.Debug("loaded env file", "path", p)
		case errors.Is(err, fs.ErrNotExist):
		default:
			slog.Warn("skipping unreadable env file", "path", p, "error", err)
		}
	}
}
