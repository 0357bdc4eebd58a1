// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package intent

import (
	"regexp"
	"strings"
)

var (
	fromToPattern = regexp.MustCompile(`(?i)\bfrom\s+(.+?)\s+to\s+(.+)$`)
	toFromPattern = regexp.MustCompile(`(?i)\bto\s+(.+?)\s+from\s+(.+)$`)
	barePattern   = regexp.MustCompile(`(?i)^(.+?)\s+to\s+(.+)$`)
	toOnlyPattern = regexp.MustCompile(`(?i)\b(?:to|towards)\s+(.+)$`)

	// trailingClause trims qualifiers such as "by tube" or "please" that
	// follow the destination.
	trailingClause = regexp.MustCompile(`(?i)\s+(?:by|via|using|avoiding|please|step[- ]free|wheelchair|now|today|tonight|tomorrow)\b.*$`)

	leadingFiller = regexp.MustCompile(`(?i)^(?:how\s+do\s+i\s+get|how\s+can\s+i\s+get|take\s+me|get\s+me|i\s+want\s+to\s+go|i\s+need\s+to\s+get|route|directions|journey|go)\s+`)
)

var accessibleWords = []string{"step-free", "step free", "wheelchair", "accessible", "lift", "no stairs", "pushchair", "buggy"}

// modeWords maps words in free text to canonical mode names.
var modeWords = []struct {
	word string
	mode string
}{
	{"elizabeth line", "elizabeth-line"},
	{"national rail", "national-rail"},
	{"river bus", "river-bus"},
	{"cable car", "cable-car"},
	{"underground", "tube"},
	{"tube", "tube"},
	{"bus", "bus"},
	{"overground", "overground"},
	{"dlr", "dlr"},
	{"tram", "tram"},
	{"train", "national-rail"},
	{"boat", "river-bus"},
}

var modeSynonyms = map[string]string{
	"underground": "tube",
	"elizabeth":   "elizabeth-line",
	"riverbus":    "river-bus",
	"boat":        "river-bus",
	"train":       "national-rail",
	"rail":        "national-rail",
	"cablecar":    "cable-car",
}

// Heuristic reads "from X to Y" style requests without a model. Confidence
// is always zero.
func Heuristic(text string) Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return Intent{}
	}

	var in Intent
	switch {
	case matchInto(fromToPattern, text, &in.From, &in.To):
	case matchInto(toFromPattern, text, &in.To, &in.From):
	case matchInto(barePattern, stripFiller(text), &in.From, &in.To):
	default:
		if m := toOnlyPattern.FindStringSubmatch(text); m != nil {
			in.To = cleanPlace(m[1])
		}
	}

	lower := " " + strings.ToLower(text) + " "
	for _, w := range accessibleWords {
		if strings.Contains(lower, w) {
			in.Accessible = true
			break
		}
	}

	var modes []string
	for _, mw := range modeWords {
		if containsWord(lower, mw.word) {
			modes = append(modes, mw.mode)
			// "river bus" must not also count as "bus".
			lower = strings.ReplaceAll(lower, mw.word, strings.Repeat(" ", len(mw.word)))
		}
	}
	in.Modes = normalizeModes(modes)

	return in
}

func matchInto(re *regexp.Regexp, text string, first, second *string) bool {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return false
	}
	a, b := cleanPlace(m[1]), cleanPlace(m[2])
	if a == "" || b == "" {
		return false
	}
	*first, *second = a, b
	return true
}

func stripFiller(text string) string {
	return leadingFiller.ReplaceAllString(text, "")
}

// cleanPlace trims trailing qualifiers and punctuation from a place phrase.
func cleanPlace(s string) string {
	s = trailingClause.ReplaceAllString(strings.TrimSpace(s), "")
	s = strings.TrimRight(s, " ?.!,;")
	return strings.TrimSpace(s)
}

// containsWord reports whether word occurs in padded on word boundaries.
func containsWord(padded, word string) bool {
	for i := 0; ; {
		j := strings.Index(padded[i:], word)
		if j < 0 {
			return false
		}
		j += i
		before := padded[j-1]
		after := byte(' ')
		if end := j + len(word); end < len(padded) {
			after = padded[end]
		}
		if !isLetter(before) && !isLetter(after) {
			return true
		}
		i = j + 1
	}
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}
