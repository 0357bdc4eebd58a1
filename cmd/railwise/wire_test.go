// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/railwise/railwise/internal/config"
	"github.com/railwise/railwise/internal/provider"
	"github.com/railwise/railwise/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguredBackendsAreLinked(t *testing.T) {
	assert.ElementsMatch(t, config.StorageBackends, store.Backends())
}

func TestStorageConfig_DefaultsSqlitePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	sc, err := storageConfig(config.StorageConfig{Backend: "sqlite"}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, sqliteFileName), sc.DSN)
	assert.DirExists(t, dir)

	sc, err = storageConfig(config.StorageConfig{Backend: "sqlite", DSN: "/tmp/custom.db"}, dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", sc.DSN)

	sc, err = storageConfig(config.StorageConfig{Backend: "memory"}, dir)
	require.NoError(t, err)
	assert.Empty(t, sc.DSN)
}

func TestWireApp_SqliteBackend(t *testing.T) {
	_, url := newUpstream(t)
	cfg, err := config.Load(writeConfig(t, url, ""), config.WithDotenv(), config.WithSecretStore(newMockSecretStore()))
	require.NoError(t, err)
	cfg.Storage.Backend = "sqlite"

	dir := t.TempDir()
	app, err := WireApp(context.Background(), cfg, dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.FileExists(t, filepath.Join(dir, sqliteFileName))
	assert.Equal(t, 1, app.Transit.Pool().Size())
	assert.Equal(t, 1, app.Autofetch.Pool().Size())
	assert.NotSame(t, app.Transit.Pool(), app.Autofetch.Pool())
	assert.Equal(t, 0, app.Providers.Len())
}

func TestWireApp_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "etcd"}}
	_, err := WireApp(context.Background(), cfg, t.TempDir())
	assert.Error(t, err)
}

func TestRegisterBuiltinProviders(t *testing.T) {
	orig := builtinProviderFactories
	t.Cleanup(func() { builtinProviderFactories = orig })

	var built []string
	builtinProviderFactories = map[provider.Name]providerFactory{
		provider.NameOpenAI: func(context.Context, config.ProviderConfig) (provider.Provider, error) {
			built = append(built, "openai")
			return orig[provider.NameOpenAI](context.Background(), config.ProviderConfig{APIKey: "sk"})
		},
		provider.NameGoogle: func(context.Context, config.ProviderConfig) (provider.Provider, error) {
			built = append(built, "google")
			return nil, errors.New("boom")
		},
	}

	cfg := &config.Config{Intent: config.IntentConfig{Providers: map[string]config.ProviderConfig{
		"openai":    {APIKey: "sk"},
		"google":    {APIKey: "g"},
		"anthropic": {},
		"mistral":   {APIKey: "m"},
	}}}

	reg := provider.NewRegistry()
	registerBuiltinProviders(context.Background(), cfg, reg)

	assert.ElementsMatch(t, []string{"openai", "google"}, built)
	assert.Equal(t, []string{"openai"}, reg.Names())
}

func TestIntentParser_FallsBackWithoutDefaultProvider(t *testing.T) {
	reg := provider.NewRegistry()
	p := intentParser(config.IntentConfig{Default: "openai/gpt-4.1-mini"}, reg)
	require.NotNil(t, p)

	// Heuristic parsing still answers.
	got := p.Parse(context.Background(), "from Bank to Oval")
	assert.Equal(t, "Bank", got.From)
	assert.Equal(t, "Oval", got.To)
}

func TestIntentParser_SkipsUnregisteredFailover(t *testing.T) {
	orig := builtinProviderFactories
	reg := provider.NewRegistry()
	p, err := orig[provider.NameOpenAI](context.Background(), config.ProviderConfig{APIKey: "sk"})
	require.NoError(t, err)
	reg.Register("openai", p)

	parser := intentParser(config.IntentConfig{
		Default:  "openai/gpt-4.1-mini",
		Failover: []string{"anthropic/claude-haiku-4-5", "openai/gpt-4.1"},
	}, reg)
	require.NotNil(t, parser)
	assert.Equal(t, 2, reg.MaxAttempts())
}
