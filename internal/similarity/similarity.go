// Package similarity scores how alike two free-text strings are.
//
// Inputs are normalized with [Normalize] and compared with the Ratcliff/Obershelp
// matching ratio (2*M/T, where M is the number of matched runes and T the total
// rune count of both strings).
package similarity

import (
	"github.com/desertthunder/ytmigrate/internal/shared"
	"github.com/pmezard/go-difflib/difflib"
)

// Normalize collapses whitespace runs to a single space, trims and lowercases s.
func Normalize(s string) string {
	return shared.Slug(s)
}

// Ratio returns the similarity of a and b in [0,1].
//
// Identical strings (after normalization) score 1, including two empty strings.
// The inputs are put in a fixed order before matching so Ratio(a, b) == Ratio(b, a).
func Ratio(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
