// Package match pairs target-book events with reference events despite
// noisy team naming, using a pluggable string-similarity scorer.
package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scorer computes a similarity ratio in [0,1] between two strings.
// Implementations receive already-normalized names.
type Scorer interface {
	Score(a, b string) float64
}

// LCSScorer scores strings by longest-common-subsequence ratio:
// 2*lcs(a,b) / (len(a)+len(b)).
type LCSScorer struct{}

// Score implements Scorer.
func (LCSScorer) Score(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Single-row LCS table.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// Club suffix/prefix tokens carried by only one of the two books.
var clubTokens = map[string]bool{
	"fc": true, "afc": true, "ac": true, "sc": true, "as": true,
	"ss": true, "us": true, "rc": true, "cf": true, "utd": true,
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases a team or outcome name, strips accents and
// club tokens, and collapses whitespace.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name, _, _ = transform.String(deaccent, name)

	fields := strings.Fields(name)
	kept := fields[:0]
	for _, f := range fields {
		if clubTokens[f] {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		// Name made only of club tokens, keep it rather than erase it.
		return strings.Join(fields, " ")
	}
	return strings.Join(kept, " ")
}

// Similarity scores two raw names after normalization.
func Similarity(s Scorer, a, b string) float64 {
	return s.Score(NormalizeName(a), NormalizeName(b))
}
