// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"log/slog"
	"testing"

	"github.com/railwise/railwise/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"status", "refresh", "watch", "plan", "arrivals", "search", "keys", "init", "doctor", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "railwise dev")
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"config", "data-dir", "verbose"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}
}

func TestStatusCommand_MissingConfigFile(t *testing.T) {
	_, err := execute(t, "status", "--config", "/nonexistent/railwise.yaml")
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestSetupLogging_VerboseForcesDebug(t *testing.T) {
	orig := slog.Default()
	t.Cleanup(func() { slog.SetDefault(orig) })

	setupLogging(new(nopWriter), config.LogConfig{Level: "error", Format: "json"}, true)
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))

	setupLogging(new(nopWriter), config.LogConfig{Level: "error"}, false)
	assert.False(t, slog.Default().Enabled(t.Context(), slog.LevelWarn))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
