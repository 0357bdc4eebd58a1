// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package anthropic

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/railwise/railwise/internal/provider"
	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/railwise/railwise/pkg/health"
)

// DefaultModel is used when neither the request nor the config names one.
const DefaultModel = "claude-haiku-4-5"

// jsonInstruction is appended to the system prompt when the caller asks for
// JSON; the Messages API has no response-format switch.
const jsonInstruction = "Respond with a single JSON object and nothing else."

// Config holds Anthropic provider configuration.
type Config struct {
	APIKey       string
	BaseURL      string // optional, useful for testing against a mock server
	DefaultModel string
	MaxRetries   int
}

var (
	_ provider.Provider       = (*Provider)(nil)
	_ provider.HealthReporter = (*Provider)(nil)
)

// Provider implements provider.Provider using the Anthropic Messages API.
type Provider struct {
	client anthropicsdk.Client
	config Config
	health *provider.HealthTracker
}

// New creates a new Anthropic provider. Returns an error if the API key is
// missing.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, rwerr.New(rwerr.CodeProviderRequestInvalid, "anthropic: missing api_key in config",
			rwerr.FieldProvider(string(provider.NameAnthropic)))
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	tracker, err := provider.NewHealthTracker(string(provider.NameAnthropic), provider.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: anthropicsdk.NewClient(opts...),
		config: cfg,
		health: tracker,
	}, nil
}

func (p *Provider) Name() string { return string(provider.NameAnthropic) }

func (p *Provider) Available(_ context.Context) bool {
	return p.health.IsHealthy()
}

func (p *Provider) RecordFailure()                { p.health.RecordFailure() }
func (p *Provider) RecordSuccess()                { p.health.RecordSuccess() }
func (p *Provider) HealthMetrics() health.Metrics { return p.health.HealthMetrics() }

// Complete sends a single user message and concatenates the text blocks of
// the reply.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.Completion, error) {
	params := buildParams(req, p.config.DefaultModel)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeProviderUpstreamFailure, "anthropic: message request failed",
			rwerr.FieldProvider(p.Name()))
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, rwerr.New(rwerr.CodeProviderResponseInvalid, "anthropic: response has no text content",
			rwerr.FieldProvider(p.Name()))
	}

	return &provider.Completion{
		Text:     strings.TrimSpace(sb.String()),
		Provider: p.Name(),
		Model:    string(params.Model),
		Usage: provider.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}

func (p *Provider) Close() error { return nil }

func buildParams(req provider.CompletionRequest, defaultModel string) anthropicsdk.MessageNewParams {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = provider.DefaultMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Prompt)),
		},
	}

	system := req.SystemPrompt
	if req.JSON {
		system = strings.TrimSpace(system + "\n\n" + jsonInstruction)
	}
	if system != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: system}}
	}

	if req.Temperature != nil {
		params.Temperature = anthropicsdk.Float(float64(*req.Temperature))
	}

	return params
}
