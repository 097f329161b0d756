package extract

import (
	"strings"

	"github.com/ppiankov/codelens/internal/model"
)

// Citations returns the distinct reference tokens cited in text
// ("section 1604.3", "astm e119", "code ibc-2021"), lowercased with
// whitespace collapsed, in kind order and then order of appearance.
// Code-kind matches count only when the identifier carries a digit, so
// prose such as "code requirements" is not mistaken for a citation.
func Citations(text string) []string {
	lower := strings.ToLower(text)

	seen := make(map[string]bool)
	citations := []string{}
	for _, rp := range referencePatterns {
		for _, match := range rp.pattern.FindAllString(lower, -1) {
			token := strings.Join(strings.Fields(match), " ")
			if rp.kind == model.ReferenceCode && !strings.ContainsAny(token, "0123456789") {
				continue
			}
			if !seen[token] {
				seen[token] = true
				citations = append(citations, token)
			}
		}
	}
	return citations
}
