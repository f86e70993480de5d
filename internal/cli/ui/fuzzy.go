package ui

import (
	"sort"
	"strings"
)

// DefaultMaxDistance is the largest edit distance still offered as a
// suggestion.
const DefaultMaxDistance = 3

// DefaultMaxSuggestions caps the number of suggestions.
const DefaultMaxSuggestions = 3

// FindSimilar returns the candidates closest to target, case-insensitively,
// closest first.
//
//	FindSimilar("max-cals", settingKeys) // [max-call-count]
func FindSimilar(target string, candidates []string) []string {
	type match struct {
		value    string
		distance int
	}

	target = strings.ToLower(target)
	var matches []match
	for _, c := range candidates {
		// Prefix hits count as close even when the edit distance is large.
		d := LevenshteinDistance(target, strings.ToLower(c))
		if target != "" && strings.HasPrefix(strings.ToLower(c), target) {
			d = min(d, 1)
		}
		if d <= DefaultMaxDistance {
			matches = append(matches, match{value: c, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(matches) && i < DefaultMaxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// LevenshteinDistance calculates the minimum number of single-byte edits
// turning s1 into s2.
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}
