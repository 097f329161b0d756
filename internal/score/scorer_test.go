package score

import (
	"strings"
	"testing"

	"github.com/ppiankov/codelens/internal/model"
)

func measurements(n int) []model.Measurement {
	out := make([]model.Measurement, n)
	for i := range out {
		out[i] = model.Measurement{Value: "10 feet", Kind: model.MeasurementKind}
	}
	return out
}

func requirements(texts ...string) []model.Requirement {
	out := make([]model.Requirement, 0, len(texts))
	for _, t := range texts {
		out = append(out, model.Requirement{Text: t, Kind: model.RequirementMandatory})
	}
	return out
}

func extraction(meas int, terms []string, refs ...model.Reference) model.ExtractionResult {
	e := model.EmptyExtraction()
	e.Measurements = measurements(meas)
	if len(terms) > 0 {
		e.TechnicalTerms = []model.TechnicalTermGroup{{Category: "structural", Terms: terms}}
	}
	if refs != nil {
		e.References = refs
	}
	return e
}

func TestImpactScorer_Identical(t *testing.T) {
	scorer := NewImpactScorer()

	side := extraction(2, []string{"beam"}, model.Reference{Text: "see section 1604", Kind: model.ReferenceSection})
	result := model.DifferenceResult{
		SimilarityScore:    1.0,
		EntitiesA:          side,
		EntitiesB:          side,
		RequirementChanges: model.EmptyChangeSet(),
	}

	score := scorer.Calculate(result)

	if score.Index != 0 {
		t.Errorf("Expected index 0 for identical texts, got %d", score.Index)
	}
	if score.Confidence != "low" {
		t.Errorf("Expected low confidence, got %s", score.Confidence)
	}
	if len(score.Signals) != 5 {
		t.Errorf("Expected 5 component signals, got %d", len(score.Signals))
	}
}

func TestImpactScorer_Saturates(t *testing.T) {
	scorer := NewImpactScorer()

	termsA := []string{"beam", "column", "joist", "truss"}
	termsB := []string{"pipe", "vent", "valve", "waste"}
	var refsA, refsB []model.Reference
	for _, s := range []string{"a", "b", "c", "d"} {
		refsA = append(refsA, model.Reference{Text: "section 1" + s, Kind: model.ReferenceSection})
		refsB = append(refsB, model.Reference{Text: "section 2" + s, Kind: model.ReferenceSection})
	}

	result := model.DifferenceResult{
		SimilarityScore: 0,
		EntitiesA:       extraction(5, termsA, refsA...),
		EntitiesB:       extraction(1, termsB, refsB...),
		RequirementChanges: model.RequirementChangeSet{
			Added:    requirements("a", "b", "c"),
			Removed:  requirements("d", "e", "f"),
			Modified: []model.Requirement{},
		},
	}

	score := scorer.Calculate(result)

	if score.Index != 100 {
		t.Errorf("Expected index 100, got %d", score.Index)
	}
	if score.Confidence != "high" {
		t.Errorf("Expected high confidence, got %s", score.Confidence)
	}
}

func TestImpactScorer_Components(t *testing.T) {
	scorer := NewImpactScorer()

	// similarity 15 + requirements 6 + measurements 5 + terms 3 = 29
	result := model.DifferenceResult{
		SimilarityScore: 0.5,
		EntitiesA:       extraction(2, []string{"beam", "steel"}),
		EntitiesB:       extraction(1, []string{"beam", "pipe"}),
		RequirementChanges: model.RequirementChangeSet{
			Added:    requirements("joists shall be doubled"),
			Removed:  []model.Requirement{},
			Modified: []model.Requirement{},
		},
	}

	score := scorer.Calculate(result)

	if score.Index != 29 {
		t.Errorf("Expected index 29, got %d", score.Index)
	}
	if score.Confidence != "low" {
		t.Errorf("Expected low confidence, got %s", score.Confidence)
	}

	for _, sig := range score.Signals {
		if _, ok := sig.Data["formula"]; !ok {
			t.Errorf("Signal %s missing formula", sig.Type)
		}
	}
}

func TestImpactScorer_Fallback(t *testing.T) {
	scorer := NewImpactScorer()

	score := scorer.Calculate(model.FallbackDifference("requirements", "boom"))

	if score.Index != DefaultImpact {
		t.Errorf("Expected default impact %d, got %d", DefaultImpact, score.Index)
	}
	if len(score.Signals) != 1 || score.Signals[0].Type != model.SignalDegradedAnalysis {
		t.Errorf("Expected a single degraded signal, got %+v", score.Signals)
	}
	if !strings.Contains(score.Signals[0].Description, "requirements") {
		t.Errorf("Expected stage in description, got %q", score.Signals[0].Description)
	}
}

func TestImpactScorer_SimilarityDefaulted(t *testing.T) {
	scorer := NewImpactScorer()

	result := model.DifferenceResult{
		SimilarityScore:    model.DefaultSimilarity,
		EntitiesA:          model.EmptyExtraction(),
		EntitiesB:          model.EmptyExtraction(),
		RequirementChanges: model.EmptyChangeSet(),
		Diagnostics:        model.Diagnostics{SimilarityDefaulted: true},
	}

	score := scorer.Calculate(result)

	if score.Confidence != "low" {
		t.Errorf("Expected low confidence, got %s", score.Confidence)
	}
	last := score.Signals[len(score.Signals)-1]
	if last.Type != model.SignalDegradedAnalysis || last.Severity != model.SeverityWarning {
		t.Errorf("Expected degraded warning signal, got %+v", last)
	}
}

func TestSymmetricDifference(t *testing.T) {
	a := map[string]bool{"beam": true, "steel": true}
	b := map[string]bool{"beam": true, "pipe": true}

	got := SymmetricDifference(a, b)
	if len(got) != 2 || got[0] != "pipe" || got[1] != "steel" {
		t.Errorf("Expected [pipe steel], got %v", got)
	}
}
