package ui

import (
	"slices"
	"strings"
)

// DefaultMaxSuggestions caps SimilarNames when no limit is given
const DefaultMaxSuggestions = 3

// SimilarNames returns up to limit candidates within editing distance of
// target, closest first and alphabetical among equals. Comparison ignores
// case. An exact match is not a suggestion. The allowed distance grows with
// the target: one edit per three characters, at least one and at most three.
//
//	SimilarNames("amont", []string{"amount", "account", "user"}, 0)
//	// ["amount", "account"]
func SimilarNames(target string, candidates []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}
	target = strings.ToLower(target)
	allowed := min(max(len([]rune(target))/3, 1), 3)

	type match struct {
		name string
		dist int
	}
	var matches []match
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lc == target {
			continue
		}
		if d := EditDistance(target, lc); d <= allowed {
			matches = append(matches, match{c, d})
		}
	}

	slices.SortFunc(matches, func(a, b match) int {
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		return strings.Compare(a.name, b.name)
	})

	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches[:min(limit, len(matches))] {
		out = append(out, m.name)
	}
	return out
}

// EditDistance is the Levenshtein distance between a and b counted in runes
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
