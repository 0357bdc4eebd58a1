// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/railwise/railwise/internal/config"
	"github.com/railwise/railwise/internal/provider"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// doctorTimeout bounds each network check.
const doctorTimeout = 10 * time.Second

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the railwise installation and configuration",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
	cmd.Flags().Bool("check-keys", false, "validate model provider keys against their models endpoints")
	return cmd
}

type doctorCheck struct {
	name string
	fn   func() string
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	checkKeys, _ := cmd.Flags().GetBool("check-keys")
	dir, err := dataDir(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, titleStyle.Render("railwise doctor"))

	checks := []doctorCheck{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Disk space", func() string { return checkDiskSpace(dir) }},
	}
	for _, c := range checks {
		_, _ = fmt.Fprintf(out, "%-20s %s\n", c.name+":", c.fn())
	}

	// The remaining checks need a config; a broken one is reported, not
	// returned, so the earlier lines still print.
	cfg, err := loadConfig(cmd)
	if err != nil {
		_, _ = fmt.Fprintf(out, "%-20s %s\n", "Config:", errorStyle.Render("error: "+err.Error()))
		return nil
	}
	cfgPath, _ := cmd.Flags().GetString("config")
	_, _ = fmt.Fprintf(out, "%-20s %s\n", "Config:", checkConfig(cfgPath))

	ctx := cmd.Context()
	app, err := WireApp(ctx, cfg, dir)
	if err != nil {
		_, _ = fmt.Fprintf(out, "%-20s %s\n", "Storage:", errorStyle.Render("error: "+err.Error()))
		return nil
	}
	defer func() { _ = app.Close() }()

	checks = []doctorCheck{
		{"Storage", func() string { return checkStorage(ctx, app) }},
		{"Transit keys", func() string { return checkTransitKeys(cfg) }},
		{"Transit API", func() string { return checkTransitAPI(ctx, app) }},
		{"Intent", func() string { return checkIntent(cfg, app.Providers) }},
	}
	if checkKeys {
		checks = append(checks, doctorCheck{"Provider keys", func() string { return checkProviderKeys(ctx, cfg) }})
	}
	for _, c := range checks {
		_, _ = fmt.Fprintf(out, "%-20s %s\n", c.name+":", c.fn())
	}
	return nil
}

func checkBinary() string {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Sprintf("unknown (%s)", err)
	}
	return fmt.Sprintf("%s (version %s)", exe, version)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s (%s)", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig(path string) string {
	if path != "" {
		return fmt.Sprintf("loaded from %s", path)
	}
	if p, err := config.DefaultConfigPath(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return fmt.Sprintf("loaded from %s", p)
		}
	}
	return "using defaults (no config file found)"
}

func checkStorage(ctx context.Context, app *App) string {
	backend := app.Config.Storage.Backend
	snap, err := app.Store.Latest(ctx)
	switch {
	case rwerr.IsNotFound(err):
		return fmt.Sprintf("%s, no snapshots yet (run 'railwise refresh')", backend)
	case err != nil:
		return errorStyle.Render(fmt.Sprintf("%s: %s", backend, err))
	}
	return fmt.Sprintf("%s, latest snapshot %s old (%s)", backend, formatAge(snap.Age(time.Now())), snap.Source)
}

func checkTransitKeys(cfg *config.Config) string {
	live := len(cfg.Transit.PoolKeys())
	auto := len(cfg.Transit.RefreshKeys())
	if live == 0 {
		return warnStyle.Render("none configured; anonymous requests are heavily rate limited")
	}
	return fmt.Sprintf("%d interactive, %d autofetch", live, auto)
}

func checkTransitAPI(ctx context.Context, app *App) string {
	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	start := time.Now()
	lines, err := app.Transit.LineStatus(ctx, []string{"tube"})
	if err != nil {
		return errorStyle.Render(fmt.Sprintf("error: %s", err))
	}
	return fmt.Sprintf("reachable, %d lines in %s", len(lines), time.Since(start).Round(time.Millisecond))
}

func checkIntent(cfg *config.Config, reg *provider.Registry) string {
	names := reg.Names()
	if len(names) == 0 || cfg.Intent.Default == "" {
		return "heuristic only (no model provider configured)"
	}
	sort.Strings(names)
	return fmt.Sprintf("%s via %s", cfg.Intent.Default, strings.Join(names, ", "))
}

func checkProviderKeys(ctx context.Context, cfg *config.Config) string {
	var parts []string
	for _, name := range provider.KnownNames {
		key := cfg.ProviderKey(name)
		if key == "" {
			continue
		}
		vctx, cancel := context.WithTimeout(ctx, doctorTimeout)
		err := provider.ValidateKey(vctx, initHTTPClient, name, key, "")
		cancel()
		if err != nil {
			parts = append(parts, errorStyle.Render(fmt.Sprintf("%s invalid", name)))
			continue
		}
		parts = append(parts, successStyle.Render(fmt.Sprintf("%s ok", name)))
	}
	if len(parts) == 0 {
		return "no provider keys configured"
	}
	return strings.Join(parts, ", ")
}

func checkDiskSpace(dataDir string) string {
	path := dataDir
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Fall back to home directory if data dir doesn't exist yet.
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
