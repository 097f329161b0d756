package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/codelens/internal/corpus"
	"github.com/ppiankov/codelens/internal/model"
)

const footer = "---\n\n*Generated by codelens. The impact index is computed from extracted entities only; an LLM summary, when present, never affects it.*\n"

// Renderer writes reports as JSON and Markdown
type Renderer struct {
	includeFooter bool
	out           io.Writer
}

// NewRenderer creates a renderer that prints summaries to stderr
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter, out: os.Stderr}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// RenderLLMMarkdown writes an already rendered LLM summary
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	return writeFile(path, []byte(markdown))
}

// RenderSummary prints a one-line result
func (r *Renderer) RenderSummary(report *model.Report) {
	d := report.Difference
	status := ""
	switch {
	case d.Diagnostics.Fallback:
		status = " [fallback: " + d.Diagnostics.Stage + "]"
	case report.Cached:
		status = " [cached]"
	}
	_, _ = fmt.Fprintf(r.out, "%s: similarity %.2f, impact %d/100 (%s), +%d/-%d requirements%s\n",
		report.Subject, d.SimilarityScore, report.Score.Index, report.Score.Confidence,
		len(d.RequirementChanges.Added), len(d.RequirementChanges.Removed), status)
}

// Markdown renders the report body
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder
	d := report.Difference
	left, right := report.Left.Label(), report.Right.Label()

	fmt.Fprintf(&b, "# Code Comparison: %s\n\n", report.Subject)
	fmt.Fprintf(&b, "**%s:** %s  \n", left, originOf(report.Left))
	fmt.Fprintf(&b, "**%s:** %s  \n", right, originOf(report.Right))
	fmt.Fprintf(&b, "**Compared:** %s\n\n", report.ComparedAt.Format("2006-01-02 15:04 MST"))

	if d.Diagnostics.Fallback {
		fmt.Fprintf(&b, "> **Degraded analysis:** the %s stage failed (%s); default results are shown.\n\n",
			d.Diagnostics.Stage, d.Diagnostics.Reason)
	}

	b.WriteString("## Impact\n\n")
	fmt.Fprintf(&b, "**Impact Index:** %d/100 (confidence: %s)\n\n", report.Score.Index, report.Score.Confidence)
	b.WriteString("| Signal | Severity | Description |\n|---|---|---|\n")
	for _, s := range report.Score.Signals {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Type, s.Severity, s.Description)
	}
	b.WriteString("\n")

	b.WriteString("## Similarity\n\n")
	fmt.Fprintf(&b, "TF-IDF cosine similarity: **%.3f**", d.SimilarityScore)
	if d.Diagnostics.SimilarityDefaulted && !d.Diagnostics.Fallback {
		b.WriteString(" (defaulted: the texts share no scorable vocabulary)")
	}
	b.WriteString("\n\n")

	b.WriteString("## Requirement Changes\n\n")
	writeRequirements(&b, fmt.Sprintf("Only in %s", right), d.RequirementChanges.Added)
	writeRequirements(&b, fmt.Sprintf("Only in %s", left), d.RequirementChanges.Removed)

	b.WriteString("## Measurements\n\n")
	writeMeasurements(&b, left, d.EntitiesA.Measurements)
	writeMeasurements(&b, right, d.EntitiesB.Measurements)
	b.WriteString("\n")

	b.WriteString("## Technical Terms\n\n")
	writeTerms(&b, left, d.EntitiesA.TechnicalTerms)
	writeTerms(&b, right, d.EntitiesB.TechnicalTerms)
	b.WriteString("\n")

	b.WriteString("## Citations\n\n")
	c := report.Citations
	fmt.Fprintf(&b, "References by type: section %d, code %d, external %d\n\n",
		c.KindCount[model.ReferenceSection], c.KindCount[model.ReferenceCode], c.KindCount[model.ReferenceExternal])
	writeReferences(&b, "Common", c.Common)
	writeReferences(&b, "Only in "+left, c.UniqueA)
	writeReferences(&b, "Only in "+right, c.UniqueB)

	if len(report.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(&b, "### %s (%s impact)\n\n", rec.Category, rec.Impact)
			fmt.Fprintf(&b, "%s\n\n**Benefit:** %s\n\n", rec.Description, rec.Benefit)
			for _, line := range rec.Details {
				b.WriteString(line + "\n")
			}
			if len(rec.Citations) > 0 {
				b.WriteString("\n**Citations:**\n")
				for _, cite := range rec.Citations {
					b.WriteString(cite + "\n")
				}
			}
			b.WriteString("\n")
		}
	}

	if report.LLM != nil && report.LLM.Enabled {
		fmt.Fprintf(&b, "## LLM Summary\n\nSee the separate `.llm.md` file (provider: %s).\n\n", report.LLM.Provider)
	}

	if r.includeFooter {
		b.WriteString(footer)
	}
	return b.String()
}

// RenderSeverityMarkdown writes the corpus-wide section severity table
func (r *Renderer) RenderSeverityMarkdown(diffs []corpus.SectionDifference, path string) error {
	var b strings.Builder
	b.WriteString("# Section Differences\n\n")
	if len(diffs) == 0 {
		b.WriteString("All shared sections are identical across jurisdictions.\n")
	} else {
		b.WriteString("| Category | Section | Severity | Distinct texts | Jurisdictions |\n|---|---|---|---|---|\n")
		for _, d := range diffs {
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
				d.Category, d.Section, d.Severity, d.DistinctContents, strings.Join(d.Jurisdictions, ", "))
		}
	}
	if r.includeFooter {
		b.WriteString("\n" + footer)
	}
	return writeFile(path, []byte(b.String()))
}

func originOf(s model.SectionSource) string {
	switch {
	case s.Origin == "corpus":
		return fmt.Sprintf("%s, Section %s", s.Category, s.Section)
	case s.Origin != "":
		return s.Origin
	default:
		return "(inline)"
	}
}

func writeRequirements(b *strings.Builder, title string, reqs []model.Requirement) {
	fmt.Fprintf(b, "### %s (%d)\n\n", title, len(reqs))
	if len(reqs) == 0 {
		b.WriteString("None.\n\n")
		return
	}
	for _, r := range reqs {
		fmt.Fprintf(b, "- [%s] %s\n", r.Kind, r.Text)
	}
	b.WriteString("\n")
}

func writeMeasurements(b *strings.Builder, label string, ms []model.Measurement) {
	values := make([]string, len(ms))
	for i, m := range ms {
		values[i] = m.Value
	}
	fmt.Fprintf(b, "- **%s** (%d): %s\n", label, len(ms), joinOrNone(values))
}

func writeTerms(b *strings.Builder, label string, groups []model.TechnicalTermGroup) {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = fmt.Sprintf("%s: %s", g.Category, strings.Join(g.Terms, ", "))
	}
	fmt.Fprintf(b, "- **%s**: %s\n", label, joinOrNone(parts))
}

func writeReferences(b *strings.Builder, title string, refs []model.Reference) {
	fmt.Fprintf(b, "**%s** (%d)\n", title, len(refs))
	for _, ref := range refs {
		fmt.Fprintf(b, "- [%s] %s\n", ref.Kind, ref.Text)
	}
	b.WriteString("\n")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, "; ")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
