// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/railwise/railwise/internal/config"
	"github.com/railwise/railwise/internal/secrets"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// secretStoreFactory creates the store keyring:// references and the keys
// command use. Tests substitute an in-memory implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// NewRootCmd creates the root railwise command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "railwise",
		Short:         "Railwise: London transit status and journey planning",
		Long:          "Railwise answers line-status, arrival, and journey questions against the TfL unified API, keeping status snapshots warm between calls.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogging(cmd.ErrOrStderr(), config.LogConfig{}, verbose)
			return nil
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newStatusCmd(),
		newRefreshCmd(),
		newWatchCmd(),
		newPlanCmd(),
		newArrivalsCmd(),
		newSearchCmd(),
		newKeysCmd(),
		newInitCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves the config path, bootstrapping a commented default on
// first run, loads it, and reconfigures logging from the log section.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return nil, rwerr.Wrap(err, rwerr.CodeCLISetupFailure, "locating config")
		}
		config.BootstrapConfig(p)
		if _, err := os.Stat(p); err == nil {
			path = p
		}
	}

	config.WarnInsecurePermissions(path)

	cfg, err := config.Load(path, config.WithSecretStore(secretStoreFactory()))
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(cmd.ErrOrStderr(), cfg.Log, verbose)
	return cfg, nil
}

// dataDir returns --data-dir, or the default data directory.
func dataDir(cmd *cobra.Command) (string, error) {
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		return dir, nil
	}
	dir, err := config.DefaultDataDir()
	if err != nil {
		return "", rwerr.Wrap(err, rwerr.CodeCLISetupFailure, "locating data directory")
	}
	return dir, nil
}

// setupLogging installs the default slog logger. Verbose forces debug.
func setupLogging(w io.Writer, cfg config.LogConfig, verbose bool) {
	level := parseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
