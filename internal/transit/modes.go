// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package transit

import "strings"

// DefaultStatusModes is the mode set requested when a caller names none.
var DefaultStatusModes = []string{"tube", "overground", "dlr", "elizabeth-line", "tram", "cable-car", "river-bus"}

// modeAliases maps a canonical mode name to the alternative spellings the
// upstream has been seen to accept. Normalized hyphen/space variants are
// generated by ModeVariants and need not be listed here.
var modeAliases = map[string][]string{
	"river-bus":      {"riverbus"},
	"river-tour":     {"rivertour"},
	"cable-car":      {"cablecar"},
	"elizabeth-line": {"elizabeth"},
	"national-rail":  {"nationalrail", "national rail"},
}

// ModeVariants returns the spellings to try, in order, for mode: the
// lower-cased original, hyphen-stripped, space-stripped, spaces as hyphens,
// then any known aliases. Duplicates and empties are removed.
func ModeVariants(mode string) []string {
	base := strings.ToLower(strings.TrimSpace(mode))
	if base == "" {
		return nil
	}

	candidates := []string{
		base,
		strings.ReplaceAll(base, "-", ""),
		strings.ReplaceAll(base, " ", ""),
		strings.ReplaceAll(base, " ", "-"),
	}
	candidates = append(candidates, modeAliases[base]...)
	candidates = append(candidates, modeAliases[strings.ReplaceAll(base, " ", "-")]...)

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// modeValidationPhrases identify the upstream complaint about malformed mode
// identifiers in a bulk status request.
var modeValidationPhrases = []string{
	"does not match the expected pattern",
	"not recognised",
	"not recognized",
	"validation",
	"pattern",
}

// isModeValidationError reports whether err is the upstream's malformed-mode
// complaint rather than an outage or rate limit.
func isModeValidationError(err error) bool {
	de, ok := AsDispatchError(err)
	if !ok || de.RateLimited {
		return false
	}
	msg := strings.ToLower(de.Message + " " + de.Body)
	for _, phrase := range modeValidationPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
