// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/railwise/railwise/internal/config"
	"github.com/railwise/railwise/internal/geocode"
	"github.com/railwise/railwise/internal/intent"
	"github.com/railwise/railwise/internal/planner"
	"github.com/railwise/railwise/internal/provider"
	anthropicprov "github.com/railwise/railwise/internal/provider/anthropic"
	googleprov "github.com/railwise/railwise/internal/provider/google"
	openaiprov "github.com/railwise/railwise/internal/provider/openai"
	openrouterprov "github.com/railwise/railwise/internal/provider/openrouter"
	"github.com/railwise/railwise/internal/snapshot"
	"github.com/railwise/railwise/internal/store"
	"github.com/railwise/railwise/internal/transit"
	rwerr "github.com/railwise/railwise/pkg/errors"

	// Snapshot store backends register themselves with the store factory.
	_ "github.com/railwise/railwise/internal/store/mysql"
	_ "github.com/railwise/railwise/internal/store/postgres"
	_ "github.com/railwise/railwise/internal/store/redis"
	_ "github.com/railwise/railwise/internal/store/sqlite"
)

// sqliteFileName is the snapshot database created under the data directory.
const sqliteFileName = "snapshots.db"

// App holds every wired component for one CLI invocation.
type App struct {
	Config    *config.Config
	Store     store.SnapshotStore
	Transit   *transit.Client
	Autofetch *transit.Client
	Refresher *snapshot.Refresher
	Cache     *snapshot.Cache
	Providers *provider.Registry
	Geocoder  *geocode.Geocoder
	Planner   *planner.Planner
}

// WireApp builds the component graph from cfg. The interactive transit
// client and the autofetch client used by refreshes own separate key pools.
func WireApp(ctx context.Context, cfg *config.Config, dataDir string) (*App, error) {
	sc, err := storageConfig(cfg.Storage, dataDir)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, sc)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Store: st}
	if err := app.wireTransit(); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Refresher = snapshot.NewRefresher(app.Autofetch, st, snapshot.WithRefreshModes(cfg.Status.Modes))
	app.Cache = snapshot.NewCache(st, app.Refresher, app.Transit, snapshot.WithLiveModes(cfg.Status.Modes))

	app.Providers = provider.NewRegistry()
	registerBuiltinProviders(ctx, cfg, app.Providers)
	parser := intentParser(cfg.Intent, app.Providers)

	app.Geocoder, err = geocode.New(geocode.Config{
		BaseURL:   cfg.Geocode.BaseURL,
		UserAgent: cfg.Geocode.UserAgent,
		Email:     cfg.Geocode.Email,
		Viewbox:   cfg.Geocode.Viewbox,
		Limit:     cfg.Geocode.Limit,
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Planner = planner.New(app.Transit,
		planner.WithIntentParser(parser),
		planner.WithPlaceSearcher(app.Geocoder),
		planner.WithStatusSource(app.Cache, cfg.Status.MaxAge),
	)

	return app, nil
}

func (a *App) wireTransit() error {
	tc := a.Config.Transit
	base := transit.Config{
		BaseURL:            tc.BaseURL,
		KeyParam:           tc.KeyParam,
		UserAgent:          "railwise/" + version,
		Timeout:            tc.RequestTimeout,
		ArrivalConcurrency: tc.ArrivalConcurrency,
	}

	live := base
	live.Keys = tc.PoolKeys()
	client, err := transit.New(live)
	if err != nil {
		return err
	}

	auto := base
	auto.Keys = tc.RefreshKeys()
	autofetch, err := transit.New(auto)
	if err != nil {
		return err
	}

	a.Transit = client
	a.Autofetch = autofetch
	return nil
}

// Close releases the store and provider clients.
func (a *App) Close() error {
	var errs []error
	if a.Providers != nil {
		if err := a.Providers.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return rwerr.Join(errs...)
	}
	return nil
}

// storageConfig fills in the sqlite path under dataDir when none is set.
func storageConfig(sc config.StorageConfig, dataDir string) (store.StorageConfig, error) {
	out := sc.Store()
	backend := out.Backend
	if backend == "" {
		backend = store.DefaultBackend
	}
	if backend != "sqlite" || out.DSN != "" {
		return out, nil
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return out, rwerr.Errorf(rwerr.CodeCLISetupFailure, "creating data directory %s: %w", dataDir, err)
	}
	out.DSN = filepath.Join(dataDir, sqliteFileName)
	return out, nil
}

// providerFactory builds a provider from its config section.
type providerFactory func(ctx context.Context, pc config.ProviderConfig) (provider.Provider, error)

// builtinProviderFactories maps provider names to their constructors.
// Declared as a variable so tests can inject failing factories.
var builtinProviderFactories = map[provider.Name]providerFactory{
	provider.NameAnthropic: func(_ context.Context, pc config.ProviderConfig) (provider.Provider, error) {
		return anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL})
	},
	provider.NameGoogle: func(ctx context.Context, pc config.ProviderConfig) (provider.Provider, error) {
		return googleprov.New(ctx, googleprov.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL})
	},
	provider.NameOpenAI: func(_ context.Context, pc config.ProviderConfig) (provider.Provider, error) {
		return openaiprov.New(openaiprov.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL})
	},
	provider.NameOpenRouter: func(_ context.Context, pc config.ProviderConfig) (provider.Provider, error) {
		return openrouterprov.New(openrouterprov.Config{APIKey: pc.APIKey, BaseURL: pc.BaseURL})
	},
}

// registerBuiltinProviders registers every configured provider with an API
// key. Missing keys and construction failures are logged and skipped; the
// planner still works on the heuristic reader.
func registerBuiltinProviders(ctx context.Context, cfg *config.Config, reg *provider.Registry) {
	for name, pc := range cfg.Intent.Providers {
		if pc.APIKey == "" {
			continue
		}
		factory, ok := builtinProviderFactories[provider.Name(name)]
		if !ok {
			slog.Warn("unknown provider in config, skipping", "provider", name)
			continue
		}
		p, err := factory(ctx, pc)
		if err != nil {
			slog.Warn("failed to create provider", "provider", name, "error", err)
			continue
		}
		reg.Register(name, p)
		slog.Debug("registered provider", "provider", name)
	}
}

// intentParser returns a parser backed by reg when the default model's
// provider is registered, otherwise the heuristic-only parser.
func intentParser(ic config.IntentConfig, reg *provider.Registry) *intent.Parser {
	if ic.Default == "" || reg.Len() == 0 {
		return intent.NewParser(nil)
	}
	if err := reg.SetDefault(ic.Default); err != nil {
		slog.Warn("intent model unavailable, using heuristic parsing", "model", ic.Default, "error", err)
		return intent.NewParser(nil)
	}

	chain := make([]string, 0, len(ic.Failover))
	for _, ref := range ic.Failover {
		name, _, _ := strings.Cut(ref, "/")
		if _, err := reg.Get(name); err != nil {
			slog.Warn("skipping failover model without a registered provider", "model", ref)
			continue
		}
		chain = append(chain, ref)
	}
	if err := reg.SetFailover(chain); err != nil {
		slog.Warn("setting intent failover chain", "error", err)
	}

	return intent.NewParser(reg)
}

// runWithApp loads config, wires the app, runs fn, and closes the app.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dir, err := dataDir(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	app, err := WireApp(ctx, cfg, dir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			slog.Warn("closing app", "error", cerr)
		}
	}()

	return fn(ctx, app)
}
