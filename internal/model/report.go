package model

import "time"

// Report is the complete comparison report for one pair of code sections
type Report struct {
	Subject    string        `json:"subject"`     // e.g. "Structural 1604: Austin vs Denver"
	Left       SectionSource `json:"left"`        // Text A
	Right      SectionSource `json:"right"`       // Text B
	ComparedAt time.Time     `json:"compared_at"` // When the comparison ran

	Difference DifferenceResult `json:"difference"` // Similarity, entities, requirement changes

	Score           Score            `json:"score"`           // Impact index and signals
	Citations       CitationAnalysis `json:"citations"`       // Reference overlap
	Recommendations []Recommendation `json:"recommendations"` // Policy recommendations

	Cached bool `json:"cached,omitempty"` // Difference served from cache

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM summary (separate, never affects score)
}

// SectionSource identifies where a compared text came from
type SectionSource struct {
	Jurisdiction string     `json:"jurisdiction,omitempty"`
	Category     string     `json:"category,omitempty"`
	Section      string     `json:"section,omitempty"`
	Origin       string     `json:"origin,omitempty"` // File path, corpus path or URL
	FetchMeta    *FetchMeta `json:"fetch_meta,omitempty"`
	Content      string     `json:"-"`
}

// Label returns a human-readable name for the source
func (s SectionSource) Label() string {
	switch {
	case s.Jurisdiction != "":
		return s.Jurisdiction
	case s.Origin != "":
		return s.Origin
	default:
		return "unnamed"
	}
}

// FetchMeta contains HTTP metadata from fetching a remote section
type FetchMeta struct {
	StatusCode   int    `json:"status_code"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty"`
}

// Score represents the transparent impact breakdown
type Score struct {
	Index      int      `json:"index"`      // Overall impact index (0-100)
	Confidence string   `json:"confidence"` // "low", "medium", "high"
	Signals    []Signal `json:"signals"`    // Diagnostic signals with transparent data
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Formulas and inputs
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalSimilarity          SignalType = "similarity"           // Text divergence
	SignalRequirementChanges  SignalType = "requirement_changes"  // Added/removed requirements
	SignalMeasurementVariance SignalType = "measurement_variance" // Measurement count gap
	SignalTermDivergence      SignalType = "term_divergence"      // Technical vocabulary gap
	SignalReferenceDivergence SignalType = "reference_divergence" // Citation gap
	SignalDegradedAnalysis    SignalType = "degraded_analysis"    // A fallback path was taken
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// CitationAnalysis compares the references cited by both sides
type CitationAnalysis struct {
	Common    []Reference           `json:"common_references"`
	UniqueA   []Reference           `json:"unique_a"`
	UniqueB   []Reference           `json:"unique_b"`
	KindCount map[ReferenceKind]int `json:"reference_types"`
}

// Recommendation is a policy action derived from a comparison
type Recommendation struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"` // "High" or "Medium"
	Benefit     string   `json:"benefit"`
	Details     []string `json:"details"`
	Citations   []string `json:"citations"`
}

// LLMSummary contains optional LLM-generated summary
// CRITICAL: This never affects scoring and is clearly separated
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`
	Model          string   `json:"model,omitempty"`
	StrictCitation bool     `json:"strict_citation"` // Whether reference allowlisting was enforced
	SummaryMD      string   `json:"summary_md,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}
