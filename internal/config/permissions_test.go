// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

//go:build !windows

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const warnKeyword = "readable by other users"

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestWarnInsecurePermissions(t *testing.T) {
	tests := []struct {
		name       string
		perm       os.FileMode
		expectWarn bool
	}{
		{"secure 0600", 0o600, false},
		{"secure 0400", 0o400, false},
		{"group readable 0640", 0o640, true},
		{"other readable 0604", 0o604, true},
		{"everyone 0644", 0o644, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "railwise.yaml")
			require.NoError(t, os.WriteFile(path, []byte("transit:\n  primary_key: k\n"), 0o600))
			// Chmod sidesteps the process umask.
			require.NoError(t, os.Chmod(path, tt.perm))

			buf := captureLogs(t)
			WarnInsecurePermissions(path)

			_, bad := InsecurePermissions(path)
			assert.Equal(t, tt.expectWarn, bad)
			if tt.expectWarn {
				assert.Contains(t, buf.String(), warnKeyword)
				assert.Contains(t, buf.String(), path)
				assert.Contains(t, buf.String(), "0600")
			} else {
				assert.NotContains(t, buf.String(), warnKeyword)
			}
		})
	}
}

func TestWarnInsecurePermissions_EmptyPath(t *testing.T) {
	buf := captureLogs(t)
	WarnInsecurePermissions("")
	assert.Empty(t, buf.String())
}

func TestWarnInsecurePermissions_MissingFile(t *testing.T) {
	buf := captureLogs(t)
	WarnInsecurePermissions("/nonexistent/path/railwise.yaml")
	assert.NotContains(t, buf.String(), warnKeyword)
}
