// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

// Package secrets keeps API keys out of config files. Values of the form
// keyring://service/key are resolved from the OS keyring at load time.
package secrets

// DefaultService is the keyring service railwise stores keys under.
const DefaultService = "railwise"

// Store provides secret storage operations.
type Store interface {
	// Store saves a secret value under the given service and key.
	Store(service, key, value string) error

	// Retrieve fetches the secret value for the given service and key.
	// Missing keys return an error coded rwerr.CodeSecretNotFound.
	Retrieve(service, key string) (string, error)

	// Delete removes the secret for the given service and key.
	Delete(service, key string) error

	// List returns all key names stored under the given service.
	List(service string) ([]string, error)
}

// URI builds the keyring reference for service and key.
func URI(service, key string) string {
	return keyringScheme + service + "/" + key
}
