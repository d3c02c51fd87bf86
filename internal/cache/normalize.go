package cache

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds a question to the canonical form used for embedding and
// exact comparison: NFKC (full-width/half-width and compatibility forms),
// lower case, and all whitespace, punctuation and symbol runes removed.
// "おいくつ ですか？" and "おいくつですか" normalize identically.
func Normalize(text string) string {
	folded := norm.NFKC.String(text)
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
