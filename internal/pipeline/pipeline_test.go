package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/codelens/internal/cache"
	"github.com/ppiankov/codelens/internal/corpus"
	"github.com/ppiankov/codelens/internal/llm"
	"github.com/ppiankov/codelens/internal/logging"
	"github.com/ppiankov/codelens/internal/model"
)

const (
	austinText = "Exit stairways shall have a minimum width of 44 inches. " +
		"Handrails shall be provided on both sides per Section 1014.2. " +
		"Storage is prohibited under exit stairs."
	denverText = "Exit stairways shall have a minimum width of 48 inches. " +
		"Handrails must be continuous along the full flight per Section 1014.2. " +
		"Guards shall comply with ASTM E985."
)

func testConfig(t *testing.T) *model.Config {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.HTTP.RespectRobots = false
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.LLM.Provider = ""
	return cfg
}

func writeText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeText(t, dir, "austin.txt", austinText)
	b := writeText(t, dir, "denver.txt", denverText)

	p := NewPipeline(testConfig(t), WithOutput(&bytes.Buffer{}))
	report, err := p.Compare(context.Background(), LocationRef(a), LocationRef(b))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if report.Subject != "austin vs denver" {
		t.Errorf("unexpected subject %q", report.Subject)
	}
	if report.Left.Origin != a || report.Right.Origin != b {
		t.Errorf("origins not recorded: %q %q", report.Left.Origin, report.Right.Origin)
	}

	d := report.Difference
	if d.SimilarityScore <= 0 || d.SimilarityScore >= 1 {
		t.Errorf("expected partial similarity, got %f", d.SimilarityScore)
	}
	if len(d.RequirementChanges.Added) == 0 || len(d.RequirementChanges.Removed) == 0 {
		t.Errorf("expected added and removed requirements, got %+v", d.RequirementChanges)
	}
	if len(report.Score.Signals) != 5 {
		t.Errorf("expected 5 signals, got %d", len(report.Score.Signals))
	}
	if report.Score.Index <= 0 {
		t.Errorf("expected positive impact, got %d", report.Score.Index)
	}
	if len(report.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(report.Recommendations))
	}
	if !strings.Contains(report.Recommendations[0].Details[0], "between austin and denver") {
		t.Errorf("unexpected first detail %q", report.Recommendations[0].Details[0])
	}
	if report.Cached {
		t.Error("cache disabled, report must not be cached")
	}
	if report.LLM != nil {
		t.Error("LLM disabled, summary must be nil")
	}
}

func TestCompareHTMLFile(t *testing.T) {
	dir := t.TempDir()
	a := writeText(t, dir, "a.html", "<html><body><p>Guards shall be 42 inches high.</p><script>var x;</script></body></html>")
	b := writeText(t, dir, "b.txt", "Guards shall be 42 inches high.")

	p := NewPipeline(testConfig(t), WithOutput(&bytes.Buffer{}))
	report, err := p.Compare(context.Background(), LocationRef(a), LocationRef(b))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if report.Difference.SimilarityScore < 0.999 {
		t.Errorf("expected identical visible text, got %f", report.Difference.SimilarityScore)
	}
}

func TestCompareCorpusSections(t *testing.T) {
	left := corpus.Section{Jurisdiction: "Austin", Category: "Means Of Egress", Section: "1011", Content: austinText}
	right := corpus.Section{Jurisdiction: "Denver", Category: "Means Of Egress", Section: "1011", Content: denverText}

	p := NewPipeline(testConfig(t), WithOutput(&bytes.Buffer{}))
	report, err := p.Compare(context.Background(), CorpusRef(left), CorpusRef(right))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if report.Subject != "Means Of Egress 1011: Austin vs Denver" {
		t.Errorf("unexpected subject %q", report.Subject)
	}
	if report.Left.Origin != "corpus" {
		t.Errorf("expected corpus origin, got %q", report.Left.Origin)
	}
}

func TestCompareURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/austin":
			_, _ = fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", austinText)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	b := writeText(t, dir, "denver.txt", denverText)

	p := NewPipeline(testConfig(t), WithOutput(&bytes.Buffer{}))
	report, err := p.Compare(context.Background(), LocationRef(server.URL+"/austin"), LocationRef(b))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if report.Left.FetchMeta == nil || report.Left.FetchMeta.StatusCode != http.StatusOK {
		t.Errorf("expected fetch metadata, got %+v", report.Left.FetchMeta)
	}
	if !strings.Contains(report.Left.Content, "44 inches") {
		t.Errorf("expected fetched text, got %q", report.Left.Content)
	}

	_, err = p.Compare(context.Background(), LocationRef(server.URL+"/missing"), LocationRef(b))
	if err == nil || !strings.Contains(err.Error(), "resolve left") {
		t.Errorf("expected resolve error, got %v", err)
	}
}

func TestCompareMissingFile(t *testing.T) {
	p := NewPipeline(testConfig(t), WithOutput(&bytes.Buffer{}))
	_, err := p.Compare(context.Background(), LocationRef("a.txt"), LocationRef(filepath.Join(t.TempDir(), "nope.txt")))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := p.Resolve(context.Background(), SectionRef{}); err == nil {
		t.Error("expected error for empty reference")
	}
}

func TestCompareCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(testConfig(t), WithOutput(&bytes.Buffer{}))
	_, err := p.CompareSources(ctx, model.SectionSource{Content: "a"}, model.SectionSource{Content: "b"})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestCompareUsesCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Dir = t.TempDir()

	p := NewPipeline(cfg, WithOutput(&bytes.Buffer{}))
	left := model.SectionSource{Jurisdiction: "Austin", Content: austinText}
	right := model.SectionSource{Jurisdiction: "Denver", Content: denverText}

	first, err := p.CompareSources(context.Background(), left, right)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.CompareSources(context.Background(), left, right)
	if err != nil {
		t.Fatal(err)
	}

	if first.Cached || !second.Cached {
		t.Errorf("expected miss then hit, got %v then %v", first.Cached, second.Cached)
	}
	if first.Score.Index != second.Score.Index {
		t.Errorf("cached score differs: %d vs %d", first.Score.Index, second.Score.Index)
	}

	// A fresh pipeline over the same directory hits the disk layer
	p2 := NewPipeline(cfg, WithOutput(&bytes.Buffer{}))
	third, err := p2.CompareSources(context.Background(), left, right)
	if err != nil {
		t.Fatal(err)
	}
	if !third.Cached {
		t.Error("expected disk cache hit")
	}
}

func TestWithCacheBackend(t *testing.T) {
	backend := cache.NewMemoryCache(time.Minute, time.Minute)
	p := NewPipeline(testConfig(t), WithCache(backend), WithOutput(&bytes.Buffer{}))

	if _, err := p.CompareSources(context.Background(),
		model.SectionSource{Content: austinText}, model.SectionSource{Content: denverText}); err != nil {
		t.Fatal(err)
	}
	if _, ok := backend.Get(cache.DiffKey(austinText, denverText)); !ok {
		t.Error("expected result stored in injected backend")
	}
}

// stubProvider implements llm.Provider, verifying citations the way the
// real providers do
type stubProvider struct {
	summary string
	calls   int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *stubProvider) Summarize(ctx context.Context, req llm.SummarizeRequest) (*llm.SummarizeResponse, error) {
	s.calls++
	cited, err := llm.VerifyCitations(s.summary, req.AllowedCitations, true)
	if err != nil {
		return nil, err
	}
	return &llm.SummarizeResponse{Summary: s.summary, Citations: cited, Model: "stub-1", TokensUsed: 42}, nil
}

func TestCompareWithSummary(t *testing.T) {
	provider := &stubProvider{summary: "Both texts set a minimum stair width; Denver also cites ASTM E985."}
	summarizer := llm.NewSummarizerFor(provider, llm.Config{Provider: "stub", StrictCitation: true})

	var logs bytes.Buffer
	p := NewPipeline(testConfig(t),
		WithSummarizer(summarizer),
		WithLogger(logging.NewLogger("debug", &logs)),
		WithOutput(&bytes.Buffer{}))

	report, err := p.CompareSources(context.Background(),
		model.SectionSource{Jurisdiction: "Austin", Content: austinText},
		model.SectionSource{Jurisdiction: "Denver", Content: denverText})
	if err != nil {
		t.Fatal(err)
	}

	if provider.calls != 1 {
		t.Errorf("expected one provider call, got %d", provider.calls)
	}
	if report.LLM == nil || !report.LLM.Enabled {
		t.Fatalf("expected LLM summary, got %+v", report.LLM)
	}
	if report.LLM.SummaryMD != provider.summary {
		t.Errorf("unexpected summary %q", report.LLM.SummaryMD)
	}
	if !strings.Contains(logs.String(), "comparison complete") {
		t.Errorf("expected completion log, got %q", logs.String())
	}
}

func TestSummaryNeverAffectsScore(t *testing.T) {
	left := model.SectionSource{Jurisdiction: "Austin", Content: austinText}
	right := model.SectionSource{Jurisdiction: "Denver", Content: denverText}

	plain := NewPipeline(testConfig(t), WithOutput(&bytes.Buffer{}))
	withLLM := NewPipeline(testConfig(t),
		WithSummarizer(llm.NewSummarizerFor(&stubProvider{summary: "Cites IEEE 1584."}, llm.Config{StrictCitation: true})),
		WithOutput(&bytes.Buffer{}))

	a, err := plain.CompareSources(context.Background(), left, right)
	if err != nil {
		t.Fatal(err)
	}
	b, err := withLLM.CompareSources(context.Background(), left, right)
	if err != nil {
		t.Fatal(err)
	}

	if a.Score.Index != b.Score.Index || a.Score.Confidence != b.Score.Confidence {
		t.Errorf("LLM changed the score: %+v vs %+v", a.Score, b.Score)
	}
	// IEEE 1584 is not cited by either text, so strict mode rejects it
	if b.LLM == nil || b.LLM.SummaryMD != "" {
		t.Fatalf("expected rejected summary, got %+v", b.LLM)
	}
}

func TestRenderReport(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	p := NewPipeline(testConfig(t),
		WithSummarizer(llm.NewSummarizerFor(&stubProvider{summary: "Short summary."}, llm.Config{Provider: "stub"})),
		WithOutput(&out))
	report, err := p.CompareSources(context.Background(),
		model.SectionSource{Jurisdiction: "Austin", Content: austinText},
		model.SectionSource{Jurisdiction: "Denver", Content: denverText})
	if err != nil {
		t.Fatal(err)
	}

	jsonPath := filepath.Join(dir, "out", "report.json")
	mdPath := filepath.Join(dir, "out", "report.md")
	if err := p.RenderReport(report, jsonPath, mdPath, true); err != nil {
		t.Fatalf("RenderReport: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Score.Index != report.Score.Index {
		t.Errorf("JSON index %d, want %d", decoded.Score.Index, report.Score.Index)
	}

	if _, err := os.Stat(mdPath); err != nil {
		t.Errorf("markdown not written: %v", err)
	}
	llmMD, err := os.ReadFile(filepath.Join(dir, "out", "report.llm.md"))
	if err != nil {
		t.Fatalf("LLM markdown not written: %v", err)
	}
	if !strings.Contains(string(llmMD), "Short summary.") {
		t.Errorf("LLM markdown missing summary: %s", llmMD)
	}

	for _, want := range []string{"Wrote JSON", "Wrote Markdown", "Wrote LLM Summary", "Austin vs Denver: similarity"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
