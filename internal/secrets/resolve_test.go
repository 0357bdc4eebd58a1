// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package secrets_test

import (
	"testing"

	"github.com/railwise/railwise/internal/secrets"
	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsKeyringURI(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"keyring://railwise/transit-primary", true},
		{"keyring://", true},
		{"${TFL_APP_KEY}", false},
		{"app-key-123", false},
		{"", false},
		{"vault://secret/key", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, secrets.IsKeyringURI(tt.value), tt.value)
	}
}

func TestURI(t *testing.T) {
	uri := secrets.URI(secrets.DefaultService, "transit-primary")
	assert.Equal(t, "keyring://railwise/transit-primary", uri)

	svc, key, err := secrets.ParseKeyringURI(uri)
	require.NoError(t, err)
	assert.Equal(t, secrets.DefaultService, svc)
	assert.Equal(t, "transit-primary", key)
}

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantService string
		wantKey     string
		wantErr     bool
	}{
		{"valid", "keyring://railwise/api-key", "railwise", "api-key", false},
		{"slashes in key", "keyring://railwise/path/to/key", "railwise", "path/to/key", false},
		{"not a keyring URI", "vault://secret/key", "", "", true},
		{"missing key", "keyring://railwise/", "", "", true},
		{"missing service", "keyring:///key", "", "", true},
		{"missing both", "keyring://", "", "", true},
		{"no path", "keyring://railwise", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, key, err := secrets.ParseKeyringURI(tt.uri)
			if tt.wantErr {
				assert.True(t, rwerr.HasCode(err, rwerr.CodeSecretInvalidInput), "got: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantService, svc)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestResolveKeyringURI(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("railwise", "test-key", "resolved-secret"))

	val, err := secrets.ResolveKeyringURI(ks, "keyring://railwise/test-key")
	require.NoError(t, err)
	assert.Equal(t, "resolved-secret", val)

	val, err = secrets.ResolveKeyringURI(ks, "literal-value")
	require.NoError(t, err)
	assert.Equal(t, "literal-value", val)

	_, err = secrets.ResolveKeyringURI(ks, "keyring://railwise/nonexistent")
	assert.True(t, rwerr.HasCode(err, rwerr.CodeSecretNotFound) || rwerr.HasCode(err, rwerr.CodeSecretResolveFailure))
	assert.Contains(t, err.Error(), "resolving keyring URI")

	_, err = secrets.ResolveKeyringURI(ks, "keyring://bad")
	require.Error(t, err)
}

func TestResolveViperSecrets(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("railwise", "openai-api-key", "sk-oai-secret"))
	require.NoError(t, ks.Store("railwise", "transit-a", "key-a"))
	require.NoError(t, ks.Store("railwise", "transit-b", "key-b"))

	v := viper.New()
	v.Set("intent.providers.openai.api_key", "keyring://railwise/openai-api-key")
	v.Set("transit.keys", []string{"keyring://railwise/transit-a", "literal-key", "keyring://railwise/transit-b"})
	v.Set("transit.base_url", "https://api.tfl.gov.uk")

	require.NoError(t, secrets.ResolveViperSecrets(v, ks))

	assert.Equal(t, "sk-oai-secret", v.GetString("intent.providers.openai.api_key"))
	assert.Equal(t, []string{"key-a", "literal-key", "key-b"}, v.GetStringSlice("transit.keys"))
	assert.Equal(t, "https://api.tfl.gov.uk", v.GetString("transit.base_url"))
}

func TestResolveViperSecrets_MissingSecretReturnsError(t *testing.T) {
	ks := secrets.NewKeyringStore()

	v := viper.New()
	v.Set("intent.providers.anthropic.api_key", "keyring://railwise/nonexistent-key")
	v.Set("transit.keys", []string{"keyring://railwise/also-missing"})

	err := secrets.ResolveViperSecrets(v, ks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intent.providers.anthropic.api_key")
	assert.Contains(t, err.Error(), "keyring://railwise/nonexistent-key")
	assert.Contains(t, err.Error(), "transit.keys[0]")
}
