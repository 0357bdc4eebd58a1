// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package intent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/railwise/railwise/internal/intent"
	"github.com/railwise/railwise/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	text string
	err  error
	reqs []provider.CompletionRequest
}

func (s *stubCompleter) Complete(_ context.Context, req provider.CompletionRequest) (*provider.Completion, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &provider.Completion{Text: s.text, Provider: "stub", Model: "m"}, nil
}

func TestParse_ModelReply(t *testing.T) {
	stub := &stubCompleter{text: "```json\n" +
		`{"from":"Kings Cross","to":"Heathrow Terminal 5","modes":["Elizabeth Line","underground"],"accessible":true,"confidence":0.92}` +
		"\n```"}
	p := intent.NewParser(stub, intent.WithModel("gpt-4.1-mini"))

	got := p.Parse(context.Background(), "step free from kings x to T5 please")
	assert.Equal(t, intent.Intent{
		From:       "Kings Cross",
		To:         "Heathrow Terminal 5",
		Modes:      []string{"elizabeth-line", "tube"},
		Accessible: true,
		Confidence: 0.92,
	}, got)

	require.Len(t, stub.reqs, 1)
	assert.True(t, stub.reqs[0].JSON)
	assert.Equal(t, "gpt-4.1-mini", stub.reqs[0].Model)
	assert.NotEmpty(t, stub.reqs[0].SystemPrompt)
}

func TestParse_ModelGapsFilledByHeuristic(t *testing.T) {
	stub := &stubCompleter{text: `{"from":"","to":"Oval","modes":"","accessible":false,"confidence":1.7}`}
	got := intent.NewParser(stub).Parse(context.Background(), "from Bank to Oval by tube")

	assert.Equal(t, "Bank", got.From)
	assert.Equal(t, "Oval", got.To)
	assert.Equal(t, []string{"tube"}, got.Modes)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestParse_FallbackOnProviderError(t *testing.T) {
	stub := &stubCompleter{err: errors.New("all providers failed")}
	got := intent.NewParser(stub).Parse(context.Background(), "from Bank to Oval")

	assert.Equal(t, intent.Intent{From: "Bank", To: "Oval"}, got)
	assert.Zero(t, got.Confidence)
}

func TestParse_FallbackOnMalformedReply(t *testing.T) {
	for _, reply := range []string{"I cannot help with that", `{"from": "Bank",`, "} backwards {"} {
		stub := &stubCompleter{text: reply}
		got := intent.NewParser(stub).Parse(context.Background(), "Bank to Oval")
		assert.Equal(t, intent.Intent{From: "Bank", To: "Oval"}, got, reply)
	}
}

func TestParse_EmptyTextSkipsProvider(t *testing.T) {
	stub := &stubCompleter{text: `{"from":"x","to":"y"}`}
	got := intent.NewParser(stub).Parse(context.Background(), "   ")
	assert.Equal(t, intent.Intent{}, got)
	assert.Empty(t, stub.reqs)
}

func TestParse_NilCompleterIsHeuristic(t *testing.T) {
	got := intent.NewParser(nil).Parse(context.Background(), "to Oval from Bank")
	assert.Equal(t, "Bank", got.From)
	assert.Equal(t, "Oval", got.To)
	assert.True(t, got.HasEndpoints())
}

func TestHeuristic(t *testing.T) {
	tests := []struct {
		text string
		want intent.Intent
	}{
		{"from Bank to Oval", intent.Intent{From: "Bank", To: "Oval"}},
		{"From King's Cross to Heathrow?", intent.Intent{From: "King's Cross", To: "Heathrow"}},
		{"How do I get to Oval from Bank", intent.Intent{From: "Bank", To: "Oval"}},
		{"Bank to Oval by tube", intent.Intent{From: "Bank", To: "Oval", Modes: []string{"tube"}}},
		{"take me Paddington to Stratford step-free", intent.Intent{From: "Paddington", To: "Stratford", Accessible: true}},
		{"how do I get to Greenwich", intent.Intent{To: "Greenwich"}},
		{"from Westminster to Greenwich by river bus", intent.Intent{From: "Westminster", To: "Greenwich", Modes: []string{"river-bus"}}},
		{"buses please", intent.Intent{}},
		{"", intent.Intent{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, intent.Heuristic(tt.text))
		})
	}
}
