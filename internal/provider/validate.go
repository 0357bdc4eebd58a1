// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package provider

import (
	"context"
	"io"
	"net/http"
	"strings"

	rwerr "github.com/railwise/railwise/pkg/errors"
)

// Name identifies a supported LLM provider.
type Name string

const (
	NameAnthropic  Name = "anthropic"
	NameOpenAI     Name = "openai"
	NameGoogle     Name = "google"
	NameOpenRouter Name = "openrouter"
)

// KnownNames lists every provider the CLI can build.
var KnownNames = []Name{NameAnthropic, NameOpenAI, NameGoogle, NameOpenRouter}

var defaultModelsURL = map[Name]string{
	NameAnthropic:  "https://api.anthropic.com/v1/models",
	NameOpenAI:     "https://api.openai.com/v1/models",
	NameGoogle:     "https://generativelanguage.googleapis.com/v1/models",
	NameOpenRouter: "https://openrouter.ai/api/v1/models",
}

// ValidateKey makes a lightweight call to the provider's models endpoint to
// confirm key is accepted. modelsURL overrides the provider default when set.
func ValidateKey(ctx context.Context, client *http.Client, name Name, key, modelsURL string) error {
	url, ok := defaultModelsURL[name]
	if !ok {
		return rwerr.Errorf(rwerr.CodeProviderKeyInvalid, "unknown provider: %s", name)
	}
	if modelsURL != "" {
		url = modelsURL
	}
	if strings.TrimSpace(key) == "" {
		return rwerr.Errorf(rwerr.CodeProviderKeyInvalid, "%s: empty API key", name)
	}

	headers := map[string]string{}
	switch name {
	case NameAnthropic:
		headers["x-api-key"] = key
		headers["anthropic-version"] = "2023-06-01"
	case NameOpenAI, NameOpenRouter:
		headers["Authorization"] = "Bearer " + key
	case NameGoogle:
		// Keeps the key out of proxy access logs, unlike the ?key= form.
		headers["x-goog-api-key"] = key
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return rwerr.Errorf(rwerr.CodeProviderKeyCheckFailed, "building validation request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return rwerr.Errorf(rwerr.CodeProviderKeyCheckFailed, "validating %s key: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return rwerr.Errorf(rwerr.CodeProviderKeyInvalid, "invalid %s API key (HTTP %d)", name, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return rwerr.Errorf(rwerr.CodeProviderKeyCheckFailed, "%s validation failed (HTTP %d)", name, resp.StatusCode)
	}

	return nil
}
