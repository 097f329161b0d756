package diff

import (
	"bytes"
	"errors"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/ppiankov/codelens/internal/logging"
	"github.com/ppiankov/codelens/internal/model"
)

const austinStairs = `Guards shall be provided at openings more than 30 inches above grade.
Handrails should be 34 inches high. Storage is prohibited under exit stairs.
ASTM E985 applies to all guard assemblies.`

const denverStairs = `Guards shall be provided at openings more than 30 inches above grade.
Handrails must be continuous along the full flight. Sprinkler heads may be omitted in closets.
Refer to section 1015 for guard loads.`

func TestAnalyzer_Identical(t *testing.T) {
	result := NewAnalyzer().Diff(austinStairs, austinStairs)

	if math.Abs(result.SimilarityScore-1.0) > 1e-9 {
		t.Errorf("Expected similarity ~1.0, got %f", result.SimilarityScore)
	}
	if len(result.RequirementChanges.Added) != 0 || len(result.RequirementChanges.Removed) != 0 {
		t.Errorf("Expected no requirement changes, got %+v", result.RequirementChanges)
	}
	if result.Diagnostics.SimilarityDefaulted || result.Diagnostics.Fallback {
		t.Errorf("Expected clean diagnostics, got %+v", result.Diagnostics)
	}
}

func TestAnalyzer_EmptyTexts(t *testing.T) {
	result := Compare("", "")

	if result.SimilarityScore != model.DefaultSimilarity {
		t.Errorf("Expected default similarity, got %f", result.SimilarityScore)
	}
	if !result.Diagnostics.SimilarityDefaulted {
		t.Error("Expected SimilarityDefaulted to be set")
	}
	if result.Diagnostics.Fallback {
		t.Error("Expected no full fallback for empty texts")
	}

	for _, e := range []model.ExtractionResult{result.EntitiesA, result.EntitiesB} {
		if len(e.Measurements)+len(e.Requirements)+len(e.TechnicalTerms)+len(e.References) != 0 {
			t.Errorf("Expected empty extraction, got %+v", e)
		}
	}
	changes := result.RequirementChanges
	if changes.Added == nil || changes.Removed == nil || changes.Modified == nil {
		t.Error("Expected non-nil change sequences")
	}
	if changes.Count() != 0 {
		t.Errorf("Expected no changes, got %+v", changes)
	}
}

func TestAnalyzer_StopWordsOnlyLogsDefault(t *testing.T) {
	var buf bytes.Buffer
	analyzer := NewAnalyzer(WithLogger(logging.NewLogger("info", &buf)))

	result := analyzer.Diff("It is the one.", "Of the few!")
	if result.SimilarityScore != model.DefaultSimilarity {
		t.Errorf("Expected default similarity, got %f", result.SimilarityScore)
	}
	if !strings.Contains(buf.String(), "similarity defaulted") {
		t.Errorf("Expected warning in log, got %q", buf.String())
	}
}

func TestAnalyzer_RequirementChanges(t *testing.T) {
	result := Compare(austinStairs, denverStairs)

	if result.SimilarityScore <= 0 || result.SimilarityScore >= 1 {
		t.Errorf("Expected similarity strictly between 0 and 1, got %f", result.SimilarityScore)
	}

	added := texts(result.RequirementChanges.Added)
	removed := texts(result.RequirementChanges.Removed)

	if !contains(added, "handrails must be continuous along the full flight") {
		t.Errorf("Expected continuous handrail requirement to be added, got %v", added)
	}
	if !contains(removed, "storage is prohibited under exit stairs") {
		t.Errorf("Expected storage prohibition to be removed, got %v", removed)
	}
	for _, s := range append(added, removed...) {
		if strings.HasPrefix(s, "guards shall be provided") {
			t.Errorf("Shared guard requirement must not appear as a change: %q", s)
		}
	}
	if len(result.RequirementChanges.Modified) != 0 {
		t.Errorf("Expected Modified to stay empty, got %+v", result.RequirementChanges.Modified)
	}
}

func TestAnalyzer_SwapSymmetry(t *testing.T) {
	ab := Compare(austinStairs, denverStairs)
	ba := Compare(denverStairs, austinStairs)

	if !sameSet(texts(ab.RequirementChanges.Added), texts(ba.RequirementChanges.Removed)) {
		t.Errorf("added(a,b) != removed(b,a): %v vs %v",
			texts(ab.RequirementChanges.Added), texts(ba.RequirementChanges.Removed))
	}
	if !sameSet(texts(ab.RequirementChanges.Removed), texts(ba.RequirementChanges.Added)) {
		t.Errorf("removed(a,b) != added(b,a): %v vs %v",
			texts(ab.RequirementChanges.Removed), texts(ba.RequirementChanges.Added))
	}
	if math.Abs(ab.SimilarityScore-ba.SimilarityScore) > 1e-12 {
		t.Errorf("Expected symmetric similarity, got %f and %f", ab.SimilarityScore, ba.SimilarityScore)
	}
}

func TestMatches_StrictThreshold(t *testing.T) {
	if Matches(RequirementMatchThreshold) {
		t.Error("Expected a score of exactly 0.8 not to match")
	}
	if !Matches(math.Nextafter(RequirementMatchThreshold, 1)) {
		t.Error("Expected a score just above 0.8 to match")
	}
}

func TestAnalyzer_ThresholdBoundary(t *testing.T) {
	a := "Guards shall be provided."
	b := "Guard rails shall be installed."

	atThreshold := NewAnalyzer(WithSimilarity(func(x, y string) (float64, error) { return 0.8, nil }))
	result := atThreshold.Diff(a, b)
	if len(result.RequirementChanges.Added) != 1 || len(result.RequirementChanges.Removed) != 1 {
		t.Errorf("Expected pair at 0.8 to be distinct, got %+v", result.RequirementChanges)
	}

	above := NewAnalyzer(WithSimilarity(func(x, y string) (float64, error) { return 0.81, nil }))
	result = above.Diff(a, b)
	if result.RequirementChanges.Count() != 0 {
		t.Errorf("Expected pair above 0.8 to match, got %+v", result.RequirementChanges)
	}
}

func TestAnalyzer_PanicFallsBack(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	flaky := func(x, y string) (float64, error) {
		calls++
		if calls > 1 {
			panic("vector space corrupted")
		}
		return 0.4, nil
	}

	analyzer := NewAnalyzer(WithSimilarity(flaky), WithLogger(logging.NewLogger("info", &buf)))
	result := analyzer.Diff("Guards shall be provided.", "Guards must be provided.")

	if !result.Diagnostics.Fallback {
		t.Fatal("Expected fallback result")
	}
	if result.Diagnostics.Stage != StageRequirements {
		t.Errorf("Expected stage %q, got %q", StageRequirements, result.Diagnostics.Stage)
	}
	if result.SimilarityScore != model.DefaultSimilarity {
		t.Errorf("Expected default similarity, got %f", result.SimilarityScore)
	}
	if len(result.EntitiesA.Requirements) != 0 || len(result.EntitiesB.Requirements) != 0 {
		t.Error("Expected empty extractions in fallback result")
	}
	if !strings.Contains(buf.String(), "stage=requirements") {
		t.Errorf("Expected logged stage, got %q", buf.String())
	}
}

func TestAnalyzer_SimilarityPanicFallsBack(t *testing.T) {
	analyzer := NewAnalyzer(WithSimilarity(func(x, y string) (float64, error) {
		panic("boom")
	}))
	result := analyzer.Diff("a beam", "a joist")

	if !result.Diagnostics.Fallback || result.Diagnostics.Stage != StageSimilarity {
		t.Errorf("Expected similarity-stage fallback, got %+v", result.Diagnostics)
	}
}

func TestAnalyzer_RequirementPairErrorNeverMatches(t *testing.T) {
	analyzer := NewAnalyzer(WithSimilarity(func(x, y string) (float64, error) {
		return 0, errors.New("undefined")
	}))
	result := analyzer.Diff("Guards shall be provided.", "Guards shall be provided.")

	// Undefined pair similarity scores 0.5, below the threshold
	if len(result.RequirementChanges.Added) != 1 || len(result.RequirementChanges.Removed) != 1 {
		t.Errorf("Expected unmatched requirements, got %+v", result.RequirementChanges)
	}
	if result.Diagnostics.Fallback {
		t.Error("Expected no fallback for plain similarity errors")
	}
}

func texts(reqs []model.Requirement) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Text)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	a = uniqueSorted(a)
	b = uniqueSorted(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func uniqueSorted(list []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
