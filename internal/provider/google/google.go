// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package google

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/railwise/railwise/internal/provider"
	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/railwise/railwise/pkg/health"
)

// DefaultModel is used when neither the request nor the config names one.
const DefaultModel = "gemini-2.5-flash"

// Config holds Google Gemini provider configuration.
type Config struct {
	APIKey       string
	BaseURL      string // optional, useful for testing against a mock server
	DefaultModel string
}

var (
	_ provider.Provider       = (*Provider)(nil)
	_ provider.HealthReporter = (*Provider)(nil)
)

// Provider implements provider.Provider using the Gemini API.
type Provider struct {
	client *genai.Client
	config Config
	health *provider.HealthTracker
}

// New creates a new Google provider. Returns an error if the API key is
// missing or the client cannot be constructed.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, rwerr.New(rwerr.CodeProviderRequestInvalid, "google: missing api_key in config",
			rwerr.FieldProvider(string(provider.NameGoogle)))
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeProviderRequestInvalid, "google: creating client",
			rwerr.FieldProvider(string(provider.NameGoogle)))
	}

	tracker, err := provider.NewHealthTracker(string(provider.NameGoogle), provider.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Provider{client: client, config: cfg, health: tracker}, nil
}

func (p *Provider) Name() string { return string(provider.NameGoogle) }

func (p *Provider) Available(_ context.Context) bool {
	return p.health.IsHealthy()
}

func (p *Provider) RecordFailure()                { p.health.RecordFailure() }
func (p *Provider) RecordSuccess()                { p.health.RecordSuccess() }
func (p *Provider) HealthMetrics() health.Metrics { return p.health.HealthMetrics() }

// Complete generates content for a single user turn.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.Completion, error) {
	model := req.Model
	if model == "" {
		model = p.config.DefaultModel
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), buildConfig(req))
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeProviderUpstreamFailure, "google: generate content failed",
			rwerr.FieldProvider(p.Name()))
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, rwerr.New(rwerr.CodeProviderResponseInvalid, "google: response has no text content",
			rwerr.FieldProvider(p.Name()))
	}

	c := &provider.Completion{Text: text, Provider: p.Name(), Model: model}
	if resp.UsageMetadata != nil {
		c.Usage = provider.Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return c, nil
}

func (p *Provider) Close() error { return nil }

func buildConfig(req provider.CompletionRequest) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = provider.DefaultMaxTokens
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(*req.Temperature)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}
