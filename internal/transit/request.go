// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package transit

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultKeyParam is the query parameter the credential is injected as.
const DefaultKeyParam = "app_key"

// Query holds endpoint parameters. Values may be string, bool, any integer or
// float kind, or []string; slices are serialized comma-joined. Empty strings,
// empty slices, and nil values are omitted.
type Query map[string]any

// Request describes one upstream call independently of the credential used
// to make it.
type Request struct {
	Path  string
	Query Query
}

// encode renders the query string, injecting key under keyParam when key is
// non-empty.
func (r Request) encode(keyParam, key string) (string, error) {
	vals := url.Values{}

	names := make([]string, 0, len(r.Query))
	for name := range r.Query {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s, ok, err := scalar(r.Query[name])
		if err != nil {
			return "", fmt.Errorf("query parameter %q: %w", name, err)
		}
		if ok {
			vals.Set(name, s)
		}
	}

	if key != "" {
		vals.Set(keyParam, key)
	}
	return vals.Encode(), nil
}

func scalar(v any) (string, bool, error) {
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, t != "", nil
	case []string:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, ","), len(parts) > 0, nil
	case bool:
		return strconv.FormatBool(t), true, nil
	case int:
		return strconv.Itoa(t), true, nil
	case int64:
		return strconv.FormatInt(t, 10), true, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true, nil
	case fmt.Stringer:
		s := t.String()
		return s, s != "", nil
	default:
		return "", false, fmt.Errorf("unsupported value type %T", v)
	}
}

// pathSegment escapes a single path element.
func pathSegment(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}

// joinSegment escapes each id and joins them with commas, the form the
// upstream accepts for multi-id path elements.
func joinSegment(ids []string) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			parts = append(parts, url.PathEscape(id))
		}
	}
	return strings.Join(parts, ",")
}
