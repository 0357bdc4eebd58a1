// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package transit

import (
	"net/http"
	"strings"
)

// rateLimitPhrases are provider phrasings that indicate quota exhaustion even
// when the status code does not.
var rateLimitPhrases = []string{
	"rate limit",
	"too many requests",
	"exceeded your quota",
	"quota exceeded",
	"over rate limit",
}

// IsRateLimit classifies an upstream failure. A 429 status is decisive;
// otherwise the message is matched case-insensitively against known phrases.
func IsRateLimit(status int, message string) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(message)
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
