// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package openrouter builds an OpenRouter provider on the OpenAI-compatible
// client.
package openrouter

import (
	"github.com/railwise/railwise/internal/provider"
	"github.com/railwise/railwise/internal/provider/openai"
)

const (
	baseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is used when neither the request nor the config names one.
	DefaultModel = "openai/gpt-4.1-mini"
)

// Config holds OpenRouter provider configuration.
type Config struct {
	APIKey       string
	BaseURL      string // optional, useful for testing against a mock server
	DefaultModel string
}

// New creates an OpenRouter provider. Returns an error if the API key is
// missing.
func New(cfg Config) (*openai.Provider, error) {
	base := baseURL
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}
	model := cfg.DefaultModel
	if model == "" {
		model = DefaultModel
	}
	return openai.New(openai.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      base,
		DefaultModel: model,
		Name:         string(provider.NameOpenRouter),
	})
}
