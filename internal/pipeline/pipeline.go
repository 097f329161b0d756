package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/codelens/internal/cache"
	"github.com/ppiankov/codelens/internal/corpus"
	"github.com/ppiankov/codelens/internal/diff"
	"github.com/ppiankov/codelens/internal/extract"
	"github.com/ppiankov/codelens/internal/llm"
	"github.com/ppiankov/codelens/internal/logging"
	"github.com/ppiankov/codelens/internal/model"
	"github.com/ppiankov/codelens/internal/score"
)

// Pipeline orchestrates one comparison from section texts to report
type Pipeline struct {
	fetcher    *Fetcher
	analyzer   *diff.Analyzer
	scorer     *score.ImpactScorer
	cache      *cache.DiffCache
	renderer   *Renderer
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	logger     *slog.Logger
	config     *model.Config
	now        func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the operational logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithSummarizer installs an LLM summarizer instead of building one from config
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithCache replaces the configured cache backend
func WithCache(backend cache.Cache) Option {
	return func(p *Pipeline) { p.cache = cache.NewDiffCache(backend, 0) }
}

// WithLimiter paces URL fetches per host
func WithLimiter(limiter RateLimiter) Option {
	return func(p *Pipeline) { p.fetcher.SetLimiter(limiter) }
}

// WithOutput redirects progress and summary lines (stderr by default)
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) { p.renderer.out = w }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
			cfg.HTTP.RespectRobots, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
		scorer:   score.NewImpactScorer(),
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		logger:   logging.Discard(),
		config:   cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.analyzer = diff.NewAnalyzer(diff.WithLogger(p.logger))

	if p.cache == nil && cfg.Cache.Enabled {
		layered := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL, p.logger)
		p.cache = cache.NewDiffCache(layered, cfg.Cache.DiskTTL)
	}

	if p.summarizer == nil && cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			p.logger.Warn("llm provider unavailable, summaries disabled", "provider", cfg.LLM.Provider, "error", err)
		} else {
			p.summarizer = s
		}
	}
	if p.summarizer != nil {
		p.summarizer.WithLogger(p.logger)
	}

	return p
}

// Renderer returns the pipeline's report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// CacheStats returns result cache hits and misses; ok is false when the
// cache is disabled or does not count
func (p *Pipeline) CacheStats() (hits, misses int64, ok bool) {
	if p.cache == nil {
		return 0, 0, false
	}
	return p.cache.Stats()
}

// SectionRef names one side of a comparison: a local file, an http(s)
// URL, or a section already loaded from a corpus
type SectionRef struct {
	Location string
	Section  *corpus.Section
}

// LocationRef refers to a file path or URL
func LocationRef(location string) SectionRef {
	return SectionRef{Location: location}
}

// CorpusRef refers to a corpus section
func CorpusRef(s corpus.Section) SectionRef {
	return SectionRef{Section: &s}
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Resolve loads the text a SectionRef points at
func (p *Pipeline) Resolve(ctx context.Context, ref SectionRef) (model.SectionSource, error) {
	switch {
	case ref.Section != nil:
		s := ref.Section
		return model.SectionSource{
			Jurisdiction: s.Jurisdiction,
			Category:     s.Category,
			Section:      s.Section,
			Origin:       "corpus",
			Content:      s.Content,
		}, nil

	case isURL(ref.Location):
		p.logger.Debug("fetching section", "url", ref.Location)
		result, err := p.fetcher.FetchWithRetry(ctx, ref.Location)
		if err != nil {
			return model.SectionSource{}, fmt.Errorf("fetch %s: %w", ref.Location, err)
		}
		meta := result.Meta
		return model.SectionSource{
			Jurisdiction: result.Subject,
			Origin:       result.FinalURL,
			FetchMeta:    &meta,
			Content:      result.Text,
		}, nil

	case ref.Location != "":
		data, err := os.ReadFile(ref.Location)
		if err != nil {
			return model.SectionSource{}, fmt.Errorf("read section: %w", err)
		}
		content := string(data)
		if extract.LooksLikeHTML(content) {
			content = extract.VisibleText(content)
		}
		return model.SectionSource{
			Jurisdiction: strings.TrimSuffix(filepath.Base(ref.Location), filepath.Ext(ref.Location)),
			Origin:       ref.Location,
			Content:      content,
		}, nil

	default:
		return model.SectionSource{}, fmt.Errorf("empty section reference")
	}
}

// Compare resolves both references and compares their texts
func (p *Pipeline) Compare(ctx context.Context, a, b SectionRef) (*model.Report, error) {
	left, err := p.Resolve(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("resolve left: %w", err)
	}
	right, err := p.Resolve(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("resolve right: %w", err)
	}
	return p.CompareSources(ctx, left, right)
}

// CompareSources runs the analysis on two resolved texts and builds the
// report. The LLM summary is generated last and never changes the score.
func (p *Pipeline) CompareSources(ctx context.Context, left, right model.SectionSource) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Log(ctx, logging.LevelTrace, "comparing texts",
		"left", left.Label(), "left_text", left.Content,
		"right", right.Label(), "right_text", right.Content)

	// 1. Difference analysis, memoized on the text pair
	var (
		result model.DifferenceResult
		cached bool
	)
	if p.cache != nil {
		result, cached = p.cache.Get(left.Content, right.Content)
	}
	if !cached {
		result = p.analyzer.Diff(left.Content, right.Content)
		if p.cache != nil {
			if err := p.cache.Put(left.Content, right.Content, result); err != nil {
				p.logger.Warn("cache write failed", "error", err)
			}
		}
	}

	// 2. Impact, citations, recommendations
	report := &model.Report{
		Subject:         subjectFor(left, right),
		Left:            left,
		Right:           right,
		ComparedAt:      p.now().UTC(),
		Difference:      result,
		Score:           p.scorer.Calculate(result),
		Citations:       score.AnalyzeCitations(result),
		Recommendations: score.Recommend(result, left.Label(), right.Label()),
		Cached:          cached,
	}

	// 3. Optional LLM summary (AFTER scoring, never affects score)
	if p.summarizer != nil && p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			p.logger.Warn("llm summary generation failed", "error", err)
		} else if summary != nil {
			report.LLM = summary
		}
	}

	p.logger.Info("comparison complete",
		"subject", report.Subject,
		"similarity", fmt.Sprintf("%.3f", result.SimilarityScore),
		"impact", report.Score.Index,
		"cached", cached)

	return report, nil
}

// subjectFor names a comparison, e.g. "Means Of Egress 1011: Austin vs Denver"
func subjectFor(left, right model.SectionSource) string {
	pair := fmt.Sprintf("%s vs %s", left.Label(), right.Label())
	if left.Category != "" && left.Section != "" {
		return fmt.Sprintf("%s %s: %s", left.Category, left.Section, pair)
	}
	return pair
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	out := p.renderer.out

	// Render JSON
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(out, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	// Render Markdown
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			_, _ = fmt.Fprintf(out, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// Render LLM summary to separate file if present
	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmMdPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		llmMarkdown := llm.RenderSeparateMarkdown(report.LLM)
		if err := p.renderer.RenderLLMMarkdown(llmMarkdown, llmMdPath); err != nil {
			p.logger.Warn("failed to write LLM summary", "path", llmMdPath, "error", err)
		} else if verbose {
			_, _ = fmt.Fprintf(out, "✓ Wrote LLM Summary: %s\n", llmMdPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}
