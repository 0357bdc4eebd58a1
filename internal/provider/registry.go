// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package provider

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	rwerr "github.com/railwise/railwise/pkg/errors"
	"github.com/railwise/railwise/pkg/health"
)

// Registry manages provider registration, lookup, and routing with a
// default "provider/model" reference and an ordered failover chain.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider

	defaultRef string   // "provider/model" format
	failover   []string // ordered list of "provider/model" refs
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, rwerr.New(
			rwerr.CodeProviderNotFound,
			"provider not found: "+name,
			rwerr.FieldProvider(name),
		)
	}
	return p, nil
}

// Names lists registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many providers are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// SetDefault sets the default "provider/model" reference. Returns an error
// if the provider portion of the ref is not registered.
func (r *Registry) SetDefault(ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	provName, _ := parseRef(ref)
	if _, ok := r.providers[provName]; !ok {
		return rwerr.New(
			rwerr.CodeProviderNotFound,
			"SetDefault: provider not registered: "+provName,
			rwerr.FieldProvider(provName),
		)
	}
	r.defaultRef = ref
	return nil
}

// SetFailover sets the ordered failover chain of "provider/model" refs.
// Returns an error if any provider portion of the refs is not registered.
func (r *Registry) SetFailover(chain []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range chain {
		provName, _ := parseRef(ref)
		if _, ok := r.providers[provName]; !ok {
			return rwerr.New(
				rwerr.CodeProviderNotFound,
				"SetFailover: provider not registered: "+provName,
				rwerr.FieldProvider(provName),
			)
		}
	}
	r.failover = append([]string(nil), chain...)
	return nil
}

// MaxAttempts returns 1 (primary) + len(failover chain).
func (r *Registry) MaxAttempts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return 1 + len(r.failover)
}

// Route selects the first available provider from the default ref and then
// the failover chain, skipping providers named in exclude.
func (r *Registry) Route(ctx context.Context, exclude []string) (Provider, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultRef == "" {
		return nil, "", rwerr.New(rwerr.CodeProviderNoDefault, "no default provider configured")
	}

	for _, ref := range append([]string{r.defaultRef}, r.failover...) {
		name, _ := parseRef(ref)
		if slices.Contains(exclude, name) {
			continue
		}
		p, model, err := r.tryRef(ctx, ref)
		if err == nil {
			return p, model, nil
		}
	}

	return nil, "", rwerr.New(
		rwerr.CodeProviderAllUnavailable,
		"all providers unavailable: no healthy provider found",
	)
}

// Complete routes req to a provider, failing over to the next candidate
// when a provider errors. Outcomes are recorded on providers that implement
// HealthReporter.
func (r *Registry) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	var (
		tried   []string
		lastErr error
	)

	for range r.MaxAttempts() {
		p, model, err := r.Route(ctx, tried)
		if err != nil {
			if lastErr != nil {
				return nil, rwerr.Wrap(lastErr, rwerr.CodeProviderAllUnavailable, "all providers failed")
			}
			return nil, err
		}

		attempt := req
		if attempt.Model == "" {
			attempt.Model = model
		}

		c, err := p.Complete(ctx, attempt)
		if err == nil {
			if hr, ok := p.(HealthReporter); ok {
				hr.RecordSuccess()
			}
			return c, nil
		}

		if hr, ok := p.(HealthReporter); ok {
			hr.RecordFailure()
		}
		slog.Warn("provider completion failed, trying next",
			"provider", p.Name(),
			"model", attempt.Model,
			"error", err,
		)
		tried = append(tried, p.Name())
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return nil, rwerr.Wrap(lastErr, rwerr.CodeProviderAllUnavailable, "all providers failed")
}

// Metrics returns health for every provider that reports it, keyed by name.
func (r *Registry) Metrics() map[string]health.Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]health.Metrics, len(r.providers))
	for name, p := range r.providers {
		if hr, ok := p.(HealthReporter); ok {
			out[name] = hr.HealthMetrics()
		}
	}
	return out
}

// Close shuts down all registered providers.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return rwerr.Join(errs...)
	}
	return nil
}

// tryRef parses a "provider/model" ref, looks up the provider, and checks
// availability. Caller must hold r.mu (at least RLock).
func (r *Registry) tryRef(ctx context.Context, ref string) (Provider, string, error) {
	providerName, model := parseRef(ref)

	p, ok := r.providers[providerName]
	if !ok {
		return nil, "", rwerr.New(
			rwerr.CodeProviderNotFound,
			"provider not found: "+providerName,
			rwerr.FieldProvider(providerName),
		)
	}

	if !p.Available(ctx) {
		return nil, "", rwerr.New(
			rwerr.CodeProviderUpstreamFailure,
			"provider unavailable: "+providerName,
			rwerr.FieldProvider(providerName),
		)
	}

	return p, model, nil
}

// parseRef splits a "provider/model" reference on the first "/".
func parseRef(ref string) (providerName, model string) {
	idx := strings.Index(ref, "/")
	if idx < 0 {
		return ref, ""
	}
	return ref[:idx], ref[idx+1:]
}
