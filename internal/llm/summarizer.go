package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/codelens/internal/logging"
	"github.com/ppiankov/codelens/internal/model"
)

// Summarizer produces the optional narrative summary of a report.
// A nil provider means the feature is disabled.
type Summarizer struct {
	provider Provider
	config   Config
	logger   *slog.Logger
}

// NewSummarizer creates a summarizer for the configured provider
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// NewSummarizerFor wraps an already constructed provider
func NewSummarizerFor(provider Provider, config Config) *Summarizer {
	return &Summarizer{provider: provider, config: config}
}

// WithLogger sets the logger used for prompt tracing and failures
func (s *Summarizer) WithLogger(logger *slog.Logger) *Summarizer {
	s.logger = logger
	return s
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

func (s *Summarizer) log() *slog.Logger {
	if s.logger == nil {
		return logging.Discard()
	}
	return s.logger
}

// GenerateSummary summarizes a finished report. Failures never fail the
// comparison: they come back as warnings on the summary.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Provider:       s.provider.Name(),
		Model:          s.config.Model,
		StrictCitation: s.config.StrictCitation,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available (check credentials or server)", s.provider.Name()))
		return summary, nil
	}
	summary.Enabled = true

	allowed := AllowedCitations(report.Difference)
	prompt := BuildPrompt(report, allowed)
	s.log().Log(ctx, logging.LevelTrace, "llm prompt", "provider", s.provider.Name(), "prompt", prompt)

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:           report,
		AllowedCitations: allowed,
		Prompt:           prompt,
		Model:            s.config.Model,
		MaxTokens:        s.config.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, ErrDisallowedCitation) {
			s.log().Warn("llm summary rejected", "provider", s.provider.Name(), "error", err)
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("Summary rejected: %v", err))
			return summary, nil
		}
		s.log().Warn("llm summary failed", "provider", s.provider.Name(), "error", err)
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Summary generation failed: %v", err))
		return summary, nil
	}
	s.log().Log(ctx, logging.LevelTrace, "llm response", "provider", s.provider.Name(), "summary", resp.Summary)

	summary.Model = resp.Model
	summary.SummaryMD = resp.Summary
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	if s.config.StrictCitation {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d citations against %d allowed references", len(resp.Citations), len(allowed)))
	}

	return summary, nil
}

// RenderSeparateMarkdown renders the summary as its own document, kept
// apart from the deterministic report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** The impact index, requirement changes and citations in the main report were determined independently of this summary.\n\n")
	fmt.Fprintf(&b, "- **Provider:** %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Citation Mode:** %t\n\n", summary.StrictCitation)

	b.WriteString("## Summary\n\n")
	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
