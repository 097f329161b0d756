// Package similarity provides the TF-IDF vector space and cosine similarity
// used to compare building-code texts.
package similarity

import (
	"strings"
	"unicode"
)

// Tokenize lowercases s and splits it into word tokens of at least two
// characters. Word characters are letters, numbers and underscores.
func Tokenize(s string) []string {
	words := make([]string, 0)
	var current strings.Builder
	runes := 0

	flush := func() {
		if runes >= 2 {
			words = append(words, current.String())
		}
		current.Reset()
		runes = 0
	}

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			current.WriteRune(r)
			runes++
		} else if runes > 0 {
			flush()
		}
	}
	flush()

	return words
}
