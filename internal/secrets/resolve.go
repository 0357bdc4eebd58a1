// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package secrets

import (
	"slices"
	"strings"

	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/spf13/viper"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI extracts service and key from a keyring://service/key URI.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", rwerr.Errorf(rwerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	service, key, ok := strings.Cut(strings.TrimPrefix(uri, keyringScheme), "/")
	if !ok || service == "" || key == "" {
		return "", "", rwerr.Errorf(rwerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}

	return service, key, nil
}

// ResolveKeyringURI resolves a single keyring:// URI to its secret value.
// Other values are returned unchanged.
func ResolveKeyringURI(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", rwerr.Wrapf(err, rwerr.CodeSecretResolveFailure,
			"resolving keyring URI %q", value)
	}

	return secret, nil
}

// ResolveViperSecrets replaces keyring:// references in v, both scalar
// values and entries of string lists such as transit.keys. Every failure is
// collected and returned together, naming the config key and URI.
func ResolveViperSecrets(v *viper.Viper, store Store) error {
	var errs []error
	for _, key := range v.AllKeys() {
		switch val := v.Get(key).(type) {
		case string:
			if !IsKeyringURI(val) {
				continue
			}
			resolved, err := ResolveKeyringURI(store, val)
			if err != nil {
				errs = append(errs, rwerr.Wrapf(err, rwerr.CodeSecretResolveFailure, "config key %s", key))
				continue
			}
			v.Set(key, resolved)

		case []any, []string:
			list := v.GetStringSlice(key)
			if !slices.ContainsFunc(list, IsKeyringURI) {
				continue
			}
			out := make([]string, len(list))
			for i, item := range list {
				resolved, err := ResolveKeyringURI(store, item)
				if err != nil {
					errs = append(errs, rwerr.Wrapf(err, rwerr.CodeSecretResolveFailure, "config key %s[%d]", key, i))
					continue
				}
				out[i] = resolved
			}
			v.Set(key, out)
		}
	}

	if len(errs) > 0 {
		return rwerr.Join(errs...)
	}
	return nil
}
