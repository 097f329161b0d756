package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/codelens/internal/extract"
	"github.com/ppiankov/codelens/internal/model"
)

// ErrDisallowedCitation is returned when a summary cites a reference that
// neither compared text contains
var ErrDisallowedCitation = errors.New("disallowed citation")

// ErrAPIKeyRequired is returned by hosted providers configured without a key
var ErrAPIKeyRequired = errors.New("API key is required")

const systemPrompt = "You summarize building code comparison reports and cite only the references you are given."

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a summary of the report with strict citation mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	Report model.Report

	// AllowedCitations is the STRICT allowlist of references the LLM can cite,
	// taken from both compared texts
	AllowedCitations []string

	// Prompt overrides the default prompt when set
	Prompt string

	Model     string
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	Summary string

	// Citations are the references the LLM actually cited
	Citations []string

	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests in seconds
	Timeout int

	// StrictCitation enforces the reference allowlist
	StrictCitation bool

	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Timeout:        30,
		StrictCitation: true,
		MaxTokens:      1000,
	}
}

func (c Config) modelOr(requested, fallback string) string {
	if requested != "" {
		return requested
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) maxTokensOr(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

// AllowedCitations collects the reference tokens cited by either compared text
func AllowedCitations(result model.DifferenceResult) []string {
	var sentences []string
	for _, ref := range result.EntitiesA.References {
		sentences = append(sentences, ref.Text)
	}
	for _, ref := range result.EntitiesB.References {
		sentences = append(sentences, ref.Text)
	}
	return extract.Citations(strings.Join(sentences, ". "))
}

// VerifyCitations extracts the references cited in summary and, when strict,
// rejects any that is not in the allowlist
func VerifyCitations(summary string, allowed []string, strict bool) ([]string, error) {
	cited := extract.Citations(summary)
	if !strict {
		return cited, nil
	}

	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}
	for _, c := range cited {
		if !allow[c] {
			return cited, fmt.Errorf("%w: %q", ErrDisallowedCitation, c)
		}
	}
	return cited, nil
}

// BuildPrompt constructs the default prompt with the citation allowlist
func BuildPrompt(report model.Report, allowed []string) string {
	diff := report.Difference
	prompt := fmt.Sprintf(`You are summarizing a building code comparison between %s and %s. The report describes how the two texts differ; it never decides which code is better.

CRITICAL RULES:
1. You MUST ONLY cite references (sections, codes, standards) from this allowed list:
%s

2. DO NOT cite any section, code or standard that is not in the list.
3. Describe differences, do not judge them.
4. If the comparison was degraded, say so.

Report Summary:
- Subject: %s
- Similarity: %.2f
- Impact Index: %d/100
- Requirements added: %d
- Requirements removed: %d
- Measurements: %d vs %d

Key Signals:
`, report.Left.Label(), report.Right.Label(), joinCitations(allowed), report.Subject,
		diff.SimilarityScore, report.Score.Index,
		len(diff.RequirementChanges.Added), len(diff.RequirementChanges.Removed),
		len(diff.EntitiesA.Measurements), len(diff.EntitiesB.Measurements))

	for i, signal := range report.Score.Signals {
		if i >= 5 {
			break
		}
		prompt += fmt.Sprintf("- %s: %s\n", signal.Type, signal.Description)
	}

	prompt += "\nProvide a 3-4 sentence summary of the most significant differences."

	return prompt
}

func joinCitations(citations []string) string {
	if len(citations) == 0 {
		return "(No references available; cite none)"
	}
	var b strings.Builder
	for i, c := range citations {
		if i >= 20 {
			fmt.Fprintf(&b, "\n... and %d more references", len(citations)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", c)
	}
	return b.String()
}
