// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package provider adapts hosted language models to a single completion
// interface used for travel-intent parsing.
package provider

import (
	"context"

	"github.com/railwise/railwise/pkg/health"
)

// Provider is the core interface for LLM providers.
type Provider interface {
	Name() string
	Available(ctx context.Context) bool
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	Close() error
}

// HealthReporter is implemented by providers that track their own health.
// The registry records outcomes through it so failing providers are skipped
// until their cooldown elapses.
type HealthReporter interface {
	RecordSuccess()
	RecordFailure()
	HealthMetrics() health.Metrics
}

// CompletionRequest is a single-turn prompt.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  *float32
	// JSON asks the provider for a JSON object response where supported.
	JSON bool
}

// Completion is a provider response.
type Completion struct {
	Text     string
	Provider string
	Model    string
	Usage    Usage
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DefaultMaxTokens bounds completions when the request does not.
const DefaultMaxTokens = 512
