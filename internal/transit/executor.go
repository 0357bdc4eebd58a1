// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package transit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/railwise/railwise/internal/keypool"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

// DefaultRequestTimeout bounds a single upstream attempt.
const DefaultRequestTimeout = 15 * time.Second

const maxResponseBytes = 16 << 20

// Executor issues requests against the upstream, walking the credential
// pool's candidates one at a time and failing over only on rate limits.
type Executor struct {
	baseURL    string
	pool       *keypool.Pool
	httpClient *http.Client
	keyParam   string
	userAgent  string
	timeout    time.Duration
	nowFunc    func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithHTTPClient sets the HTTP client used for every attempt.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *Executor) { e.httpClient = c }
}

// WithTimeout sets the per-attempt deadline. Zero disables it.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

// WithKeyParam overrides the credential query parameter name.
func WithKeyParam(name string) ExecutorOption {
	return func(e *Executor) { e.keyParam = name }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ExecutorOption {
	return func(e *Executor) { e.userAgent = ua }
}

// WithExecutorClock overrides the time source used for Retry-After dates.
func WithExecutorClock(fn func() time.Time) ExecutorOption {
	return func(e *Executor) { e.nowFunc = fn }
}

// NewExecutor creates an Executor for baseURL backed by pool.
func NewExecutor(baseURL string, pool *keypool.Pool, opts ...ExecutorOption) (*Executor, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, rwerr.New(rwerr.CodeConfigValidateInvalidValue, "transit: base URL is required")
	}
	if pool == nil {
		pool = keypool.New(nil)
	}

	e := &Executor{
		baseURL:    baseURL,
		pool:       pool,
		httpClient: http.DefaultClient,
		keyParam:   DefaultKeyParam,
		userAgent:  "railwise",
		timeout:    DefaultRequestTimeout,
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Pool returns the credential pool the executor rotates through.
func (e *Executor) Pool() *keypool.Pool {
	return e.pool
}

// Execute performs req and decodes the JSON response into out (which may be
// nil to discard the body). Candidates are tried strictly in sequence. A
// rate-limited attempt cools its credential down and moves on to the next
// candidate; any other failure, or a rate limit on the final candidate, is
// returned as a *DispatchError.
func (e *Executor) Execute(ctx context.Context, req Request, out any) error {
	candidates := e.pool.Candidates()

	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return transportError(req.Path, err, rwerr.CodeTransitTimeout)
		}

		body, status, derr := e.attempt(ctx, req, cand)
		if derr == nil {
			if out != nil && len(body) > 0 {
				if err := json.Unmarshal(body, out); err != nil {
					return decodeError(req.Path, status, body, err)
				}
			}
			e.pool.Advance(cand)
			return nil
		}

		if derr.RateLimited && !cand.Anonymous() {
			until := e.pool.CoolDown(cand, derr.RetryAfter)
			slog.Warn("transit credential rate limited",
				"path", req.Path,
				"credential", cand.Label(),
				"status", derr.Status,
				"cooldown_until", until,
			)
		}

		last := i == len(candidates)-1
		if !derr.RateLimited || last {
			return derr
		}

		slog.Debug("transit retrying with next credential",
			"path", req.Path,
			"attempt", i+1,
			"remaining", len(candidates)-i-1,
		)
	}

	// Candidates always contains at least the anonymous sentinel.
	return transportError(req.Path, errors.New("no credential candidates"), rwerr.CodeInternalFailure)
}

// attempt performs a single HTTP round trip with cand.
func (e *Executor) attempt(ctx context.Context, req Request, cand keypool.Candidate) ([]byte, int, *DispatchError) {
	query, err := req.encode(e.keyParam, cand.Key)
	if err != nil {
		return nil, 0, transportError(req.Path, err, rwerr.CodeTransitRequestInvalid)
	}

	target := e.baseURL + req.Path
	if query != "" {
		target += "?" + query
	}

	attemptCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, transportError(req.Path, err, rwerr.CodeTransitRequestInvalid)
	}
	httpReq.Header.Set("Accept", "application/json")
	if e.userAgent != "" {
		httpReq.Header.Set("User-Agent", e.userAgent)
	}

	start := e.nowFunc()
	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		code := rwerr.CodeTransitUpstreamFailure
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			code = rwerr.CodeTransitTimeout
		}
		return nil, 0, transportError(req.Path, err, code)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, transportError(req.Path, err, rwerr.CodeTransitUpstreamFailure)
	}

	slog.Debug("transit response",
		"path", req.Path,
		"status", resp.StatusCode,
		"credential", cand.Label(),
		"elapsed", e.nowFunc().Sub(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, responseError(req.Path, resp, body, e.nowFunc())
	}
	return body, resp.StatusCode, nil
}
