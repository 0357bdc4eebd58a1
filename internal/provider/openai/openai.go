// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package openai

import (
	"context"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/railwise/railwise/internal/provider"
	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/railwise/railwise/pkg/health"
)

// DefaultModel is used when neither the request nor the config names one.
const DefaultModel = "gpt-4.1-mini"

// Config holds OpenAI provider configuration.
type Config struct {
	APIKey       string
	BaseURL      string // optional, useful for testing against a mock server
	DefaultModel string
	// Name overrides the provider name; OpenAI-compatible gateways reuse
	// this package under their own name.
	Name       string
	MaxRetries int
}

var (
	_ provider.Provider       = (*Provider)(nil)
	_ provider.HealthReporter = (*Provider)(nil)
)

// Provider implements provider.Provider using the OpenAI Chat Completions API.
type Provider struct {
	client openaisdk.Client
	config Config
	health *provider.HealthTracker
}

// New creates a new OpenAI provider. Returns an error if the API key is missing.
func New(cfg Config) (*Provider, error) {
	if cfg.Name == "" {
		cfg.Name = string(provider.NameOpenAI)
	}
	if cfg.APIKey == "" {
		return nil, rwerr.New(rwerr.CodeProviderRequestInvalid, cfg.Name+": missing api_key in config", rwerr.FieldProvider(cfg.Name))
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

	tracker, err := provider.NewHealthTracker(cfg.Name, provider.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client: openaisdk.NewClient(opts...),
		config: cfg,
		health: tracker,
	}, nil
}

func (p *Provider) Name() string { return p.config.Name }

func (p *Provider) Available(_ context.Context) bool {
	return p.health.IsHealthy()
}

func (p *Provider) RecordFailure()                { p.health.RecordFailure() }
func (p *Provider) RecordSuccess()                { p.health.RecordSuccess() }
func (p *Provider) HealthMetrics() health.Metrics { return p.health.HealthMetrics() }

// Complete sends a single-turn chat completion.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.Completion, error) {
	params := buildParams(req, p.config.DefaultModel)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, rwerr.Wrap(err, rwerr.CodeProviderUpstreamFailure, p.config.Name+": chat completion failed", rwerr.FieldProvider(p.config.Name))
	}
	if len(resp.Choices) == 0 {
		return nil, rwerr.New(rwerr.CodeProviderResponseInvalid, p.config.Name+": response has no choices", rwerr.FieldProvider(p.config.Name))
	}

	return &provider.Completion{
		Text:     strings.TrimSpace(resp.Choices[0].Message.Content),
		Provider: p.config.Name,
		Model:    string(params.Model),
		Usage: provider.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func (p *Provider) Close() error { return nil }

// buildParams converts a provider.CompletionRequest into OpenAI SDK params.
// The system prompt is sent as a leading system message.
func buildParams(req provider.CompletionRequest, defaultModel string) openaisdk.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = defaultModel
	}

	var msgs []openaisdk.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		msgs = append(msgs, openaisdk.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openaisdk.UserMessage(req.Prompt))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = provider.DefaultMaxTokens
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:               shared.ChatModel(model),
		Messages:            msgs,
		MaxCompletionTokens: param.NewOpt(int64(maxTokens)),
	}

	if req.Temperature != nil {
		params.Temperature = param.NewOpt(float64(*req.Temperature))
	}

	if req.JSON {
		params.ResponseFormat = openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	return params
}
