// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"

	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/zalando/go-keyring"
)

// keysIndexSuffix names the entry holding a JSON list of stored keys;
// go-keyring cannot enumerate.
const keysIndexSuffix = "::keys-index"

// KeyringStore implements Store on the OS keyring through go-keyring.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkRef("store", service, key); err != nil {
		return err
	}
	if value == "" {
		return rwerr.New(rwerr.CodeSecretInvalidInput, "secret store: value must not be empty")
	}

	if err := keyring.Set(service, key, value); err != nil {
		return rwerr.Wrapf(err, rwerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}

	if err := s.addToIndex(service, key); err != nil {
		return err
	}

	return nil
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkRef("retrieve", service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", rwerr.Errorf(rwerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", rwerr.Wrapf(err, rwerr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkRef("delete", service, key); err != nil {
		return err
	}

	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return rwerr.Errorf(rwerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return rwerr.Wrapf(err, rwerr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}

	if err := s.removeFromIndex(service, key); err != nil {
		return err
	}

	return nil
}

func (s *KeyringStore) List(service string) ([]string, error) {
	if service == "" {
		return nil, rwerr.New(rwerr.CodeSecretInvalidInput, "secret list: service must not be empty")
	}
	keys, err := s.loadIndex(service)
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

func checkRef(op, service, key string) error {
	if service == "" {
		return rwerr.New(rwerr.CodeSecretInvalidInput, "secret "+op+": service must not be empty")
	}
	if key == "" {
		return rwerr.New(rwerr.CodeSecretInvalidInput, "secret "+op+": key must not be empty")
	}
	if strings.HasSuffix(key, keysIndexSuffix) {
		return rwerr.Errorf(rwerr.CodeSecretInvalidInput, "secret %s: key %q uses a reserved suffix", op, key)
	}
	return nil
}

// loadIndex reads the JSON key index for a service from the keyring.
func (s *KeyringStore) loadIndex(service string) ([]string, error) {
	indexKey := service + keysIndexSuffix
	raw, err := keyring.Get(service, indexKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, rwerr.Wrapf(err, rwerr.CodeSecretListFailure, "loading key index for service %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, rwerr.Wrapf(err, rwerr.CodeSecretListFailure, "decoding key index for service %s", service)
	}

	return keys, nil
}

// saveIndex writes the JSON key index for a service to the keyring.
func (s *KeyringStore) saveIndex(service string, keys []string) error {
	indexKey := service + keysIndexSuffix

	if len(keys) == 0 {
		// Clean up the index entry when empty.
		if delErr := keyring.Delete(service, indexKey); delErr != nil {
			slog.Debug("failed to clean up empty key index", "service", service, "error", delErr)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return rwerr.Wrapf(err, rwerr.CodeSecretListFailure, "encoding key index for service %s", service)
	}

	if err := keyring.Set(service, indexKey, string(data)); err != nil {
		return rwerr.Wrapf(err, rwerr.CodeSecretListFailure, "saving key index for service %s", service)
	}

	return nil
}

// addToIndex adds a key to the service's key index (idempotent).
func (s *KeyringStore) addToIndex(service, key string) error {
	keys, err := s.loadIndex(service)
	if err != nil {
		return err
	}

	if slices.Contains(keys, key) {
		return nil
	}

	keys = append(keys, key)
	return s.saveIndex(service, keys)
}

// removeFromIndex removes a key from the service's key index.
func (s *KeyringStore) removeFromIndex(service, key string) error {
	keys, err := s.loadIndex(service)
	if err != nil {
		return err
	}

	return s.saveIndex(service, slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}
