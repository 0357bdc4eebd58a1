// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	rwerr "github.com/railwise/railwise/pkg/errors"
)

//go:embed railwise.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/railwise/railwise.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", rwerr.Errorf(rwerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "railwise", "railwise.yaml"), nil
}

// DefaultDataDir returns ~/.local/share/railwise, where the sqlite snapshot
// database lives unless storage.dsn says otherwise.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", rwerr.Errorf(rwerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "railwise"), nil
}

// BootstrapConfig writes the default commented config to path if nothing is
// there yet. It returns the path written, or "" when the file existed or
// could not be written (logged, never fatal).
func BootstrapConfig(path string) string {
	if path == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			slog.Debug("skipping config bootstrap", "error", err)
			return ""
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		return ""
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Debug("skipping config bootstrap: cannot create directory", "path", dir, "error", err)
		return ""
	}

	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		slog.Debug("skipping config bootstrap: cannot write config", "path", path, "error", err)
		return ""
	}

	slog.Info("created default config", "path", path)
	return path
}
