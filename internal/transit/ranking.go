// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package transit

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Relevance tiers, best first.
const (
	tierExact = iota
	tierExactToken
	tierAllTokens
	tierPrefix
	tierSubstring
	tierOther
)

type rankedStop struct {
	stop    StopMatch
	tier    int
	numDist float64
	nameLen int
}

// RankStopPoints orders stops by relevance to query: exact name or id match,
// then the query as a whole-word phrase, then every query token present as a
// word, then prefix, then substring. Ties break on closeness to the query
// number (numeric queries only), then shorter name, then locale-aware
// alphabetical order. The input slice is not modified.
func RankStopPoints(query string, stops []StopMatch) []StopMatch {
	q := normalize(query)
	qTokens := strings.Fields(q)
	qNum, numeric := parseNumber(q)

	ranked := make([]rankedStop, len(stops))
	for i, s := range stops {
		r := rankedStop{
			stop:    s,
			tier:    relevanceTier(q, qTokens, s),
			numDist: math.Inf(1),
			nameLen: len([]rune(s.Name)),
		}
		if numeric {
			r.numDist = nearestNumber(s.Name, qNum)
		}
		ranked[i] = r
	}

	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		if numeric && a.numDist != b.numDist {
			return a.numDist < b.numDist
		}
		if a.nameLen != b.nameLen {
			return a.nameLen < b.nameLen
		}
		return coll.CompareString(a.stop.Name, b.stop.Name) < 0
	})

	out := make([]StopMatch, len(ranked))
	for i, r := range ranked {
		out[i] = r.stop
	}
	return out
}

func relevanceTier(q string, qTokens []string, s StopMatch) int {
	if q == "" {
		return tierOther
	}
	name := normalize(s.Name)
	if name == q || strings.EqualFold(strings.TrimSpace(s.ID), strings.TrimSpace(q)) {
		return tierExact
	}

	nTokens := strings.Fields(name)
	if containsPhrase(nTokens, qTokens) {
		return tierExactToken
	}
	if containsAll(nTokens, qTokens) {
		return tierAllTokens
	}
	if strings.HasPrefix(name, q) {
		return tierPrefix
	}
	for _, t := range nTokens {
		if strings.HasPrefix(t, q) {
			return tierPrefix
		}
	}
	if strings.Contains(name, q) {
		return tierSubstring
	}
	return tierOther
}

// containsPhrase reports whether needle occurs as a contiguous run of words
// in hay.
func containsPhrase(hay, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for j := range needle {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func containsAll(hay, needle []string) bool {
	if len(needle) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(hay))
	for _, t := range hay {
		set[t] = struct{}{}
	}
	for _, t := range needle {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

// normalize lower-cases s, drops apostrophes, and turns any other
// non-alphanumeric run into a single space.
func normalize(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r == '\'' || r == '’':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func parseNumber(q string) (float64, bool) {
	if q == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(q, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// nearestNumber returns the smallest distance between target and any numeric
// word in name, or +Inf when name has none.
func nearestNumber(name string, target float64) float64 {
	best := math.Inf(1)
	for _, tok := range strings.Fields(normalize(name)) {
		n, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		if d := math.Abs(n - target); d < best {
			best = d
		}
	}
	return best
}
