package extract

import (
	"regexp"
	"strings"
)

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// SplitSentences lowercases text and splits it on runs of '.', '!' and '?'.
// Sentences are trimmed and empty ones dropped.
func SplitSentences(text string) []string {
	parts := sentenceTerminators.Split(strings.ToLower(text), -1)

	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		sentence := strings.TrimSpace(part)
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}

// Normalize rejoins the sentences of text with single spaces.
// This is the form similarity is computed over.
func Normalize(text string) string {
	return strings.Join(SplitSentences(text), " ")
}
