// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package config

import (
	"errors"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/railwise/railwise/internal/keypool"
	"github.com/railwise/railwise/internal/provider"
	"github.com/railwise/railwise/internal/secrets"
	"github.com/railwise/railwise/internal/store"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// EnvPrefix prefixes every environment override, e.g. RAILWISE_TRANSIT_BASE_URL.
const EnvPrefix = "RAILWISE"

// StorageBackends lists the snapshot store backends the CLI links in.
var StorageBackends = []string{"memory", "sqlite", "postgres", "mysql", "redis"}

// Config is the top-level railwise configuration.
type Config struct {
	Transit TransitConfig `mapstructure:"transit"`
	Status  StatusConfig  `mapstructure:"status"`
	Storage StorageConfig `mapstructure:"storage"`
	Intent  IntentConfig  `mapstructure:"intent"`
	Geocode GeocodeConfig `mapstructure:"geocode"`
	Log     LogConfig     `mapstructure:"log"`
}

// TransitConfig points at the transit API and lists its credentials.
type TransitConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	Keys               []string      `mapstructure:"keys"`
	PrimaryKey         string        `mapstructure:"primary_key"`
	SecondaryKey       string        `mapstructure:"secondary_key"`
	AutofetchKeys      []string      `mapstructure:"autofetch_keys"`
	KeyParam           string        `mapstructure:"key_param"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	ArrivalConcurrency int           `mapstructure:"arrival_concurrency"`
}

// PoolKeys resolves the interactive credential pool: the keys list wins
// when set, otherwise the primary/secondary pair. Empties and duplicates are
// dropped, first occurrence kept.
func (t TransitConfig) PoolKeys() []string {
	if keys := keypool.Dedupe(t.Keys); len(keys) > 0 {
		return keys
	}
	return keypool.Dedupe([]string{t.PrimaryKey, t.SecondaryKey})
}

// RefreshKeys is the pool used by scheduled refreshes. It falls back to
// PoolKeys when no autofetch keys are configured.
func (t TransitConfig) RefreshKeys() []string {
	if keys := keypool.Dedupe(t.AutofetchKeys); len(keys) > 0 {
		return keys
	}
	return t.PoolKeys()
}

// StatusConfig tunes the line-status snapshot cache.
type StatusConfig struct {
	MaxAge          time.Duration `mapstructure:"max_age"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Modes           []string      `mapstructure:"modes"`
}

// StorageConfig selects the snapshot store backend.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	DSN       string `mapstructure:"dsn"`
	Retention int    `mapstructure:"retention"`
}

// Store converts to the store package's config.
func (s StorageConfig) Store() store.StorageConfig {
	return store.StorageConfig{Backend: s.Backend, DSN: s.DSN, Retention: s.Retention}
}

// IntentConfig selects language-model providers for free-text parsing.
type IntentConfig struct {
	Default   string                    `mapstructure:"default"`
	Failover  []string                  `mapstructure:"failover"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig holds credentials and endpoint for an LLM provider.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// GeocodeConfig points at a Nominatim-compatible search endpoint.
type GeocodeConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
	Email     string `mapstructure:"email"`
	Viewbox   string `mapstructure:"viewbox"`
	Limit     int    `mapstructure:"limit"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	secrets  secrets.Store
	dotenv   []string
	noDotenv bool
}

// WithSecretStore sets the store keyring:// references resolve against.
func WithSecretStore(s secrets.Store) LoadOption {
	return func(o *loadOptions) { o.secrets = s }
}

// WithDotenv loads the given .env files instead of ./.env. No paths disables
// dotenv loading.
func WithDotenv(paths ...string) LoadOption {
	return func(o *loadOptions) {
		o.dotenv = paths
		o.noDotenv = len(paths) == 0
	}
}

// setDefaults registers every key so environment overrides apply even when
// the file omits them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("transit.base_url", "https://api.tfl.gov.uk")
	v.SetDefault("transit.keys", []string{})
	v.SetDefault("transit.primary_key", "")
	v.SetDefault("transit.secondary_key", "")
	v.SetDefault("transit.autofetch_keys", []string{})
	v.SetDefault("transit.key_param", "app_key")
	v.SetDefault("transit.request_timeout", 15*time.Second)
	v.SetDefault("transit.arrival_concurrency", 8)

	v.SetDefault("status.max_age", 2*time.Minute)
	v.SetDefault("status.refresh_interval", time.Minute)
	v.SetDefault("status.modes", []string{})

	v.SetDefault("storage.backend", store.DefaultBackend)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.retention", store.DefaultRetention)

	v.SetDefault("intent.default", "")
	v.SetDefault("intent.failover", []string{})
	for _, name := range provider.KnownNames {
		v.SetDefault("intent.providers."+string(name)+".api_key", "")
		v.SetDefault("intent.providers."+string(name)+".base_url", "")
	}

	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "")
	v.SetDefault("geocode.email", "")
	v.SetDefault("geocode.viewbox", "-0.5104,51.6919,0.3340,51.2868")
	v.SetDefault("geocode.limit", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from path (or defaults only when empty), layering
// .env files and RAILWISE_ environment overrides on top and resolving
// keyring:// references.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.noDotenv {
		LoadDotenv(o.dotenv...)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, rwerr.Errorf(rwerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	if o.secrets == nil {
		o.secrets = secrets.NewKeyringStore()
	}
	if err := secrets.ResolveViperSecrets(v, o.secrets); err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeSecretResolveFailure, "resolving config secrets")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, rwerr.Errorf(rwerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, rwerr.Errorf(rwerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors, collecting every
// issue rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateTransit()...)
	errs = append(errs, c.validateStatus()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateIntent()...)
	errs = append(errs, c.validateGeocode()...)

	return errs
}

func (c *Config) validateTransit() []error {
	var errs []error

	if err := validateURL("transit.base_url", c.Transit.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Transit.KeyParam == "" {
		errs = append(errs, invalid("config: transit.key_param must not be empty"))
	}
	if c.Transit.RequestTimeout < 0 {
		errs = append(errs, invalid("config: transit.request_timeout must not be negative, got %s", c.Transit.RequestTimeout))
	}
	if c.Transit.ArrivalConcurrency < 1 {
		errs = append(errs, invalid("config: transit.arrival_concurrency must be at least 1, got %d", c.Transit.ArrivalConcurrency))
	}

	return errs
}

func (c *Config) validateStatus() []error {
	var errs []error

	if c.Status.MaxAge <= 0 {
		errs = append(errs, invalid("config: status.max_age must be positive, got %s", c.Status.MaxAge))
	}
	if c.Status.RefreshInterval <= 0 {
		errs = append(errs, invalid("config: status.refresh_interval must be positive, got %s", c.Status.RefreshInterval))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	backend := c.Storage.Backend
	if backend == "" {
		backend = store.DefaultBackend
	}
	switch {
	case !slices.Contains(StorageBackends, backend):
		errs = append(errs, invalid("config: storage.backend must be one of %v, got %q", StorageBackends, c.Storage.Backend))
	case backend != "memory" && backend != "sqlite" && c.Storage.DSN == "":
		errs = append(errs, invalid("config: storage.dsn is required for the %s backend", backend))
	}

	return errs
}

func (c *Config) validateIntent() []error {
	var errs []error

	refs := c.Intent.Failover
	if c.Intent.Default != "" {
		refs = append([]string{c.Intent.Default}, refs...)
	} else if len(c.Intent.Failover) > 0 {
		errs = append(errs, invalid("config: intent.failover requires intent.default"))
	}

	for _, ref := range refs {
		name, model, ok := strings.Cut(ref, "/")
		if !ok || name == "" || model == "" {
			errs = append(errs, invalid("config: intent model %q must be in \"provider/model\" format", ref))
			continue
		}
		if !slices.Contains(provider.KnownNames, provider.Name(name)) {
			errs = append(errs, invalid("config: intent model %q references unknown provider %q", ref, name))
		}
	}

	for name, pc := range c.Intent.Providers {
		if pc.BaseURL == "" {
			continue
		}
		if err := validateURL("intent.providers."+name+".base_url", pc.BaseURL); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func (c *Config) validateGeocode() []error {
	var errs []error

	if c.Geocode.BaseURL != "" {
		if err := validateURL("geocode.base_url", c.Geocode.BaseURL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Geocode.Limit < 0 {
		errs = append(errs, invalid("config: geocode.limit must not be negative, got %d", c.Geocode.Limit))
	}

	return errs
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("config: %s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return rwerr.Errorf(rwerr.CodeConfigValidateInvalidValue, format, args...)
}

// ProviderKey returns the configured API key for name, or "".
func (c *Config) ProviderKey(name provider.Name) string {
	return c.Intent.Providers[string(name)].APIKey
}
