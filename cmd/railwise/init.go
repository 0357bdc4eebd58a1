// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/railwise/railwise/internal/config"
	"github.com/railwise/railwise/internal/provider"
	anthropicprov "github.com/railwise/railwise/internal/provider/anthropic"
	googleprov "github.com/railwise/railwise/internal/provider/google"
	openaiprov "github.com/railwise/railwise/internal/provider/openai"
	openrouterprov "github.com/railwise/railwise/internal/provider/openrouter"
	"github.com/railwise/railwise/internal/secrets"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// initHTTPClient is the HTTP client used for provider key validation.
// Exposed as a variable so tests can replace it.
var initHTTPClient = &http.Client{Timeout: 10 * time.Second}

// initResult holds what init collected from its flags.
type initResult struct {
	TransitKeys []string
	Provider    provider.Name
	ProviderKey string
	Model       string
	Backend     string
	DSN         string
}

// initFile is the document init writes. Secrets appear only as keyring://
// references.
type initFile struct {
	Transit initTransit `yaml:"transit"`
	Storage initStorage `yaml:"storage"`
	Intent  *initIntent `yaml:"intent,omitempty"`
}

type initTransit struct {
	Keys []string `yaml:"keys,omitempty"`
}

type initStorage struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn,omitempty"`
}

type initIntent struct {
	Default   string                  `yaml:"default"`
	Providers map[string]initProvider `yaml:"providers"`
}

type initProvider struct {
	APIKey string `yaml:"api_key"`
}

const initHeader = "# railwise configuration, generated by railwise init.\n" +
	"# Every key and its default is listed in the commented default config;\n" +
	"# values may be overridden with RAILWISE_* environment variables.\n\n"

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file and store API keys in the OS keyring",
		Long: `Write a minimal config file. Transit and model API keys given as flags are
stored in the OS keyring and referenced from the file via keyring:// URIs, so
no secret is written in plain text. A model provider key is checked against
the provider's models endpoint unless --skip-validate is set.

After completion, run:
  railwise doctor   verify the setup
  railwise status   show line status`,
		Example: `  railwise init --transit-key "$TFL_KEY" --provider openai --provider-key "$OPENAI_API_KEY"`,
		Args:    cobra.NoArgs,
		RunE:    runInit,
	}

	cmd.Flags().StringSlice("transit-key", nil, "transit API key (repeatable; the first is preferred)")
	cmd.Flags().String("provider", "", "language model provider for free-text questions: anthropic, openai, google, or openrouter")
	cmd.Flags().String("provider-key", "", "API key for --provider")
	cmd.Flags().String("model", "", "model reference as provider/model (default: the provider's default model)")
	cmd.Flags().String("backend", "sqlite", "snapshot store backend: memory, sqlite, postgres, mysql, or redis")
	cmd.Flags().String("dsn", "", "snapshot store DSN (file path or database URL)")
	cmd.Flags().Bool("skip-validate", false, "do not check the provider key online")
	cmd.Flags().Bool("force", false, "overwrite an existing config file")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	transitKeys, _ := flags.GetStringSlice("transit-key")
	prov, _ := flags.GetString("provider")
	provKey, _ := flags.GetString("provider-key")
	model, _ := flags.GetString("model")
	backend, _ := flags.GetString("backend")
	dsn, _ := flags.GetString("dsn")
	skipValidate, _ := flags.GetBool("skip-validate")
	force, _ := flags.GetBool("force")

	result := initResult{
		TransitKeys: transitKeys,
		Provider:    provider.Name(strings.ToLower(prov)),
		ProviderKey: provKey,
		Model:       model,
		Backend:     backend,
		DSN:         dsn,
	}
	if err := result.validate(); err != nil {
		return err
	}

	if result.Provider != "" && !skipValidate {
		if err := provider.ValidateKey(cmd.Context(), initHTTPClient, result.Provider, result.ProviderKey, ""); err != nil {
			return err
		}
	}

	path, _ := flags.GetString("config")
	if path == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := storeSecretsAndWriteConfig(result, secretStoreFactory(), path, force); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s wrote %s\n", successStyle.Render("ok"), path)
	return nil
}

func (r initResult) validate() error {
	if !slices.Contains(config.StorageBackends, r.Backend) {
		return rwerr.Errorf(rwerr.CodeCLIInputInvalid, "--backend must be one of %v, got %q", config.StorageBackends, r.Backend)
	}
	if r.Backend != "memory" && r.Backend != "sqlite" && r.DSN == "" {
		return rwerr.Errorf(rwerr.CodeCLIInputInvalid, "--dsn is required for the %s backend", r.Backend)
	}
	if r.Provider == "" {
		if r.ProviderKey != "" || r.Model != "" {
			return rwerr.New(rwerr.CodeCLIInputInvalid, "--provider-key and --model require --provider")
		}
		return nil
	}
	if !slices.Contains(provider.KnownNames, r.Provider) {
		return rwerr.Errorf(rwerr.CodeCLIInputInvalid, "unknown provider %q", r.Provider)
	}
	if r.ProviderKey == "" {
		return rwerr.Errorf(rwerr.CodeCLIInputInvalid, "--provider-key is required for %s", r.Provider)
	}
	return nil
}

// transitSecretName names the keyring entry for the i-th transit key.
func transitSecretName(i int) string {
	return fmt.Sprintf("transit-key-%d", i+1)
}

func providerSecretName(p provider.Name) string {
	return string(p) + "-api-key"
}

// GenerateConfigYAML renders the config for result. Keys are referenced via
// keyring:// URIs; the secrets themselves are stored separately.
func GenerateConfigYAML(result initResult) ([]byte, error) {
	doc := initFile{
		Storage: initStorage{Backend: result.Backend, DSN: result.DSN},
	}
	for i := range result.TransitKeys {
		doc.Transit.Keys = append(doc.Transit.Keys, secrets.URI(secrets.DefaultService, transitSecretName(i)))
	}
	if result.Provider != "" {
		model := result.Model
		if model == "" {
			model = defaultModelForProvider(result.Provider)
		}
		doc.Intent = &initIntent{
			Default: model,
			Providers: map[string]initProvider{
				string(result.Provider): {APIKey: secrets.URI(secrets.DefaultService, providerSecretName(result.Provider))},
			},
		}
	}

	body, err := yaml.Marshal(doc)
	if err != nil {
		return nil, rwerr.Errorf(rwerr.CodeCLISetupFailure, "encoding config: %w", err)
	}
	return append([]byte(initHeader), body...), nil
}

// defaultModelForProvider returns the "provider/model" reference init uses
// when --model is not given.
func defaultModelForProvider(p provider.Name) string {
	switch p {
	case provider.NameAnthropic:
		return string(p) + "/" + anthropicprov.DefaultModel
	case provider.NameOpenAI:
		return string(p) + "/" + openaiprov.DefaultModel
	case provider.NameGoogle:
		return string(p) + "/" + googleprov.DefaultModel
	case provider.NameOpenRouter:
		return string(p) + "/" + openrouterprov.DefaultModel
	default:
		return string(p) + "/default"
	}
}

// storeSecretsAndWriteConfig saves keys to the keyring and writes the config
// to path. Secrets already stored are not rolled back if the write fails; a
// re-run overwrites them.
func storeSecretsAndWriteConfig(result initResult, store secrets.Store, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return rwerr.Errorf(rwerr.CodeCLIInputInvalid, "config file already exists at %s; use --force to overwrite", path)
		}
	}

	for i, key := range result.TransitKeys {
		if err := store.Store(secrets.DefaultService, transitSecretName(i), key); err != nil {
			return rwerr.Wrapf(err, rwerr.CodeSecretStoreFailure, "storing transit key %d", i+1)
		}
	}
	if result.Provider != "" {
		if err := store.Store(secrets.DefaultService, providerSecretName(result.Provider), result.ProviderKey); err != nil {
			return rwerr.Wrapf(err, rwerr.CodeSecretStoreFailure, "storing %s API key", result.Provider)
		}
	}

	body, err := GenerateConfigYAML(result)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return rwerr.Errorf(rwerr.CodeCLISetupFailure, "creating config directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return rwerr.Errorf(rwerr.CodeCLISetupFailure, "writing config to %s: %w", path, err)
	}
	return nil
}
