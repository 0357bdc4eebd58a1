// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package transit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	rwerr "github.com/railwise/railwise/pkg/errors"
)

const maxMessageLen = 500

// DispatchError is returned by the Executor when an upstream call fails.
// Status is zero for failures that never produced a response.
type DispatchError struct {
	Path        string
	Message     string
	Status      int
	RateLimited bool
	RetryAfter  time.Duration
	Body        string

	cause error
}

func (e *DispatchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("transit %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("transit %s: %d %s", e.Path, e.Status, e.Message)
}

// Unwrap exposes the coded cause so rwerr.CodeOf and errors.Is see through
// the DispatchError.
func (e *DispatchError) Unwrap() error {
	return e.cause
}

// HasRetryAfter reports whether the upstream supplied a usable Retry-After.
func (e *DispatchError) HasRetryAfter() bool {
	return e.RetryAfter > 0
}

// AsDispatchError extracts a DispatchError from err's chain.
func AsDispatchError(err error) (*DispatchError, bool) {
	var de *DispatchError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// responseError builds a DispatchError from a non-2xx response.
func responseError(path string, resp *http.Response, body []byte, now time.Time) *DispatchError {
	msg := extractMessage(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	de := &DispatchError{
		Path:        path,
		Message:     msg,
		Status:      resp.StatusCode,
		RateLimited: IsRateLimit(resp.StatusCode, msg),
		Body:        string(body),
	}
	if d, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), now); ok {
		de.RetryAfter = d
	}

	code := rwerr.CodeTransitUpstreamFailure
	switch {
	case de.RateLimited:
		code = rwerr.CodeTransitRateLimited
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		code = rwerr.CodeTransitRequestInvalid
	}
	de.cause = rwerr.New(code, msg, rwerr.FieldPath(path), rwerr.FieldStatus(resp.StatusCode))
	return de
}

// transportError wraps a failure that produced no HTTP response.
func transportError(path string, err error, code rwerr.Code) *DispatchError {
	return &DispatchError{
		Path:    path,
		Message: err.Error(),
		cause:   rwerr.Wrap(err, code, "transit request failed", rwerr.FieldPath(path)),
	}
}

// decodeError wraps a 2xx response whose body could not be decoded.
func decodeError(path string, status int, body []byte, err error) *DispatchError {
	return &DispatchError{
		Path:    path,
		Message: "malformed response: " + err.Error(),
		Status:  status,
		Body:    truncate(string(body)),
		cause:   rwerr.Wrap(err, rwerr.CodeTransitResponseInvalid, "decoding transit response", rwerr.FieldPath(path)),
	}
}

// extractMessage prefers a JSON "message" field (any casing) and falls back
// to the trimmed raw text.
func extractMessage(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		for k, v := range obj {
			if !strings.EqualFold(k, "message") {
				continue
			}
			if s, ok := v.(string); ok && s != "" {
				return truncate(s)
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	return s[:maxMessageLen] + "..."
}

// ParseRetryAfter interprets a Retry-After header as integer seconds or an
// HTTP date relative to now. Missing, malformed, or non-positive values
// report ok=false.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d <= 0 {
			return 0, false
		}
		return d, true
	}
	return 0, false
}
