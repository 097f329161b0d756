package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/codelens/internal/model"
)

// Component weights of the impact index
const (
	WeightSimilarity   = 0.3
	WeightRequirements = 0.3
	WeightMeasurements = 0.2
	WeightTerms        = 0.1
	WeightReferences   = 0.1
)

// DefaultImpact is reported when the underlying comparison fell back
const DefaultImpact = 50

// ImpactScorer calculates the impact index and generates signals
type ImpactScorer struct{}

// NewImpactScorer creates a new impact scorer
func NewImpactScorer() *ImpactScorer {
	return &ImpactScorer{}
}

// Calculate scores how far two code texts diverge and explains each component
func (s *ImpactScorer) Calculate(result model.DifferenceResult) model.Score {
	if result.Diagnostics.Fallback {
		return model.Score{
			Index:      DefaultImpact,
			Confidence: "low",
			Signals:    []model.Signal{degradedSignal(result.Diagnostics)},
		}
	}

	var signals []model.Signal

	// 1. Text similarity (0-30 points)
	similarityPoints, similaritySignal := s.calculateSimilarity(result.SimilarityScore)
	signals = append(signals, similaritySignal)

	// 2. Requirement changes (0-30 points)
	requirementPoints, requirementSignal := s.calculateRequirements(result.RequirementChanges)
	signals = append(signals, requirementSignal)

	// 3. Measurement variance (0-20 points)
	measurementPoints, measurementSignal := s.calculateMeasurements(result.EntitiesA, result.EntitiesB)
	signals = append(signals, measurementSignal)

	// 4. Terminology divergence (0-10 points)
	termPoints, termSignal := s.calculateTerms(result.EntitiesA, result.EntitiesB)
	signals = append(signals, termSignal)

	// 5. Reference divergence (0-10 points)
	referencePoints, referenceSignal := s.calculateReferences(result.EntitiesA, result.EntitiesB)
	signals = append(signals, referenceSignal)

	if result.Diagnostics.SimilarityDefaulted {
		signals = append(signals, degradedSignal(result.Diagnostics))
	}

	total := similarityPoints + requirementPoints + measurementPoints + termPoints + referencePoints
	total = math.Max(0, math.Min(100, total))
	index := int(math.Round(total))

	return model.Score{
		Index:      index,
		Confidence: s.determineConfidence(index, result.Diagnostics),
		Signals:    signals,
	}
}

func (s *ImpactScorer) calculateSimilarity(similarity float64) (float64, model.Signal) {
	points := (1 - similarity) * 100 * WeightSimilarity

	severity := model.SeverityInfo
	if similarity < 0.3 {
		severity = model.SeverityCritical
	} else if similarity < 0.7 {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalSimilarity,
		Severity:    severity,
		Description: fmt.Sprintf("Text similarity: %.2f", similarity),
		Data: map[string]interface{}{
			"similarity": similarity,
			"points":     points,
			"formula":    "(1 - similarity) * 100 * 0.3",
		},
	}
}

func (s *ImpactScorer) calculateRequirements(changes model.RequirementChangeSet) (float64, model.Signal) {
	count := changes.Count()
	points := math.Min(100, float64(count)*20) * WeightRequirements

	severity := model.SeverityInfo
	if count > 5 {
		severity = model.SeverityCritical
	} else if count > 0 {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalRequirementChanges,
		Severity:    severity,
		Description: fmt.Sprintf("Requirement changes: %d added, %d removed", len(changes.Added), len(changes.Removed)),
		Data: map[string]interface{}{
			"added":   len(changes.Added),
			"removed": len(changes.Removed),
			"points":  points,
			"formula": "min(100, (added + removed) * 20) * 0.3",
		},
	}
}

func (s *ImpactScorer) calculateMeasurements(a, b model.ExtractionResult) (float64, model.Signal) {
	gap := len(a.Measurements) - len(b.Measurements)
	if gap < 0 {
		gap = -gap
	}
	points := math.Min(100, float64(gap)*25) * WeightMeasurements

	severity := model.SeverityInfo
	if gap > 0 {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalMeasurementVariance,
		Severity:    severity,
		Description: fmt.Sprintf("Measurement count: %d vs %d", len(a.Measurements), len(b.Measurements)),
		Data: map[string]interface{}{
			"measurements_a": len(a.Measurements),
			"measurements_b": len(b.Measurements),
			"points":         points,
			"formula":        "min(100, |measurements_a - measurements_b| * 25) * 0.2",
		},
	}
}

func (s *ImpactScorer) calculateTerms(a, b model.ExtractionResult) (float64, model.Signal) {
	diff := SymmetricDifference(a.AllTerms(), b.AllTerms())
	points := math.Min(100, float64(len(diff))*15) * WeightTerms

	severity := model.SeverityInfo
	if len(diff) > 0 {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalTermDivergence,
		Severity:    severity,
		Description: fmt.Sprintf("Technical terms used by only one side: %d", len(diff)),
		Data: map[string]interface{}{
			"terms":   diff,
			"points":  points,
			"formula": "min(100, |terms_a xor terms_b| * 15) * 0.1",
		},
	}
}

func (s *ImpactScorer) calculateReferences(a, b model.ExtractionResult) (float64, model.Signal) {
	diff := SymmetricDifference(a.ReferenceTexts(), b.ReferenceTexts())
	points := math.Min(100, float64(len(diff))*15) * WeightReferences

	severity := model.SeverityInfo
	if len(diff) > 0 {
		severity = model.SeverityWarning
	}

	return points, model.Signal{
		Type:        model.SignalReferenceDivergence,
		Severity:    severity,
		Description: fmt.Sprintf("Reference sentences cited by only one side: %d", len(diff)),
		Data: map[string]interface{}{
			"differing": len(diff),
			"points":    points,
			"formula":   "min(100, |refs_a xor refs_b| * 15) * 0.1",
		},
	}
}

// determineConfidence maps the index to a band; any defaulted stage caps it at low
func (s *ImpactScorer) determineConfidence(index int, diag model.Diagnostics) string {
	if diag.Fallback || diag.SimilarityDefaulted {
		return "low"
	}
	if index >= 60 {
		return "high"
	} else if index >= 30 {
		return "medium"
	}
	return "low"
}

func degradedSignal(diag model.Diagnostics) model.Signal {
	description := "Similarity could not be computed; default 0.5 used"
	severity := model.SeverityWarning
	if diag.Fallback {
		description = fmt.Sprintf("Analysis fell back to default result (%s stage)", diag.Stage)
		severity = model.SeverityCritical
	}
	return model.Signal{
		Type:        model.SignalDegradedAnalysis,
		Severity:    severity,
		Description: description,
		Data: map[string]interface{}{
			"stage":  diag.Stage,
			"reason": diag.Reason,
		},
	}
}

// SymmetricDifference returns the sorted keys present in exactly one set
func SymmetricDifference(a, b map[string]bool) []string {
	out := []string{}
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	for k := range b {
		if !a[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
