// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package intent turns a free-text travel request into a structured trip
// description using a language model, with a deterministic fallback.
package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/railwise/railwise/internal/provider"
)

// Intent is the structured form of a travel request. The zero value is the
// fallback returned when nothing could be extracted.
type Intent struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Modes      []string `json:"modes,omitempty"`
	Accessible bool     `json:"accessible"`
	Confidence float64  `json:"confidence"`
}

// HasEndpoints reports whether both endpoints are known.
func (i Intent) HasEndpoints() bool {
	return i.From != "" && i.To != ""
}

// Completer is satisfied by provider.Registry and by single providers.
type Completer interface {
	Complete(ctx context.Context, req provider.CompletionRequest) (*provider.Completion, error)
}

const systemPrompt = `You extract journey requests for a London transit planner.
Reply with one JSON object with these keys:
  "from": origin place or station name, "" if not stated
  "to": destination place or station name, "" if not stated
  "modes": array of transport modes mentioned (tube, bus, overground, dlr, elizabeth-line, tram, river-bus, national-rail), [] if none
  "accessible": true if the traveller needs step-free or wheelchair access
  "confidence": number from 0 to 1`

// Parser extracts intents. A nil completer makes Parse purely heuristic.
type Parser struct {
	completer Completer
	model     string
}

// Option configures a Parser.
type Option func(*Parser)

// WithModel pins the model sent with every request.
func WithModel(model string) Option {
	return func(p *Parser) { p.model = model }
}

// NewParser creates a Parser over completer.
func NewParser(completer Completer, opts ...Option) *Parser {
	p := &Parser{completer: completer}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse never fails. Provider errors and malformed replies degrade to the
// heuristic reading of text with zero confidence.
func (p *Parser) Parse(ctx context.Context, text string) Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return Intent{}
	}

	fallback := Heuristic(text)
	if p.completer == nil {
		return fallback
	}

	temp := float32(0)
	c, err := p.completer.Complete(ctx, provider.CompletionRequest{
		Model:        p.model,
		SystemPrompt: systemPrompt,
		Prompt:       text,
		MaxTokens:    256,
		Temperature:  &temp,
		JSON:         true,
	})
	if err != nil {
		slog.Warn("intent completion failed, using heuristic", "error", err)
		return fallback
	}

	parsed, ok := decode(c.Text)
	if !ok {
		slog.Warn("intent reply was not a JSON object, using heuristic",
			"provider", c.Provider,
			"model", c.Model,
		)
		return fallback
	}

	if parsed.From == "" {
		parsed.From = fallback.From
	}
	if parsed.To == "" {
		parsed.To = fallback.To
	}
	if len(parsed.Modes) == 0 {
		parsed.Modes = fallback.Modes
	}
	parsed.Accessible = parsed.Accessible || fallback.Accessible
	return parsed
}

// wireIntent tolerates the loose shapes models produce.
type wireIntent struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	Modes      json.RawMessage `json:"modes"`
	Accessible bool            `json:"accessible"`
	Confidence float64         `json:"confidence"`
}

// decode pulls the first JSON object out of raw, tolerating code fences and
// surrounding prose.
func decode(raw string) (Intent, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Intent{}, false
	}

	var w wireIntent
	if err := json.Unmarshal([]byte(raw[start:end+1]), &w); err != nil {
		return Intent{}, false
	}

	in := Intent{
		From:       cleanPlace(w.From),
		To:         cleanPlace(w.To),
		Modes:      decodeModes(w.Modes),
		Accessible: w.Accessible,
		Confidence: min(max(w.Confidence, 0), 1),
	}
	return in, true
}

// decodeModes accepts either a list or a comma-separated string.
func decodeModes(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		list = strings.Split(s, ",")
	}
	return normalizeModes(list)
}

func normalizeModes(in []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range in {
		m = strings.ToLower(strings.TrimSpace(m))
		m = strings.ReplaceAll(m, " ", "-")
		if canon, ok := modeSynonyms[m]; ok {
			m = canon
		}
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
