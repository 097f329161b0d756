package score

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ppiankov/codelens/internal/model"
)

func TestRecommend_Medium(t *testing.T) {
	result := model.DifferenceResult{
		SimilarityScore: 0.6,
		EntitiesA:       extraction(3, []string{"beam", "steel"}),
		EntitiesB:       extraction(1, []string{"beam", "pipe"}),
		RequirementChanges: model.RequirementChangeSet{
			Added:    requirements("guards shall be 42 inches high"),
			Removed:  []model.Requirement{},
			Modified: []model.Requirement{},
		},
	}

	recs := Recommend(result, "Austin", "Denver")
	if len(recs) != 1 {
		t.Fatalf("Expected one recommendation, got %d", len(recs))
	}
	rec := recs[0]

	if rec.Category != "Code Unification" {
		t.Errorf("Unexpected category %q", rec.Category)
	}
	if rec.Impact != "Medium" {
		t.Errorf("Expected Medium impact, got %s", rec.Impact)
	}

	want := []string{
		"- Found 1 different requirements between Austin and Denver",
		"- 2 measurement standard variations identified",
		"- Key technical term differences: pipe, steel",
		"- Estimated compliance cost reduction: 5%",
		"Specific Actions:",
		"1. Focus on simplifying Denver's additional requirements to match Austin's standards",
		"2. Standardize measurement specifications between Austin and Denver",
	}
	if len(rec.Details) != len(want) {
		t.Fatalf("Expected %d details, got %d: %v", len(want), len(rec.Details), rec.Details)
	}
	for i := range want {
		if rec.Details[i] != want[i] {
			t.Errorf("Detail %d: expected %q, got %q", i, want[i], rec.Details[i])
		}
	}
}

func TestRecommend_HighImpactAndCaps(t *testing.T) {
	var refs []model.Reference
	for i := 0; i < 5; i++ {
		refs = append(refs, model.Reference{Text: fmt.Sprintf("see section 10%d", i), Kind: model.ReferenceSection})
	}

	result := model.DifferenceResult{
		EntitiesA: extraction(0, []string{"beam", "column", "joist", "truss", "shear", "steel", "frame"}, refs...),
		EntitiesB: extraction(0, nil, refs[:1]...),
		RequirementChanges: model.RequirementChangeSet{
			Added:    requirements("a"),
			Removed:  requirements("b", "c", "d", "e", "f", "g", "h"),
			Modified: []model.Requirement{},
		},
	}

	rec := Recommend(result, "Austin", "Denver")[0]

	if rec.Impact != "High" {
		t.Errorf("Expected High impact, got %s", rec.Impact)
	}
	if rec.Details[3] != "- Estimated compliance cost reduction: 30%" {
		t.Errorf("Expected capped cost reduction, got %q", rec.Details[3])
	}
	terms := strings.TrimPrefix(rec.Details[2], "- Key technical term differences: ")
	if n := len(strings.Split(terms, ", ")); n != 5 {
		t.Errorf("Expected 5 listed terms, got %d (%q)", n, terms)
	}
	if !strings.HasPrefix(rec.Details[5], "1. Review Austin's reduced requirements") {
		t.Errorf("Unexpected primary action %q", rec.Details[5])
	}
	if rec.Details[6] != "2. Align technical terminology and definitions between jurisdictions" {
		t.Errorf("Unexpected secondary action %q", rec.Details[6])
	}

	if len(rec.Citations) != 4 {
		t.Fatalf("Expected 3+1 citations, got %v", rec.Citations)
	}
	if rec.Citations[0] != "- Austin Section see section 100" {
		t.Errorf("Unexpected citation %q", rec.Citations[0])
	}
	if rec.Citations[3] != "- Denver Section see section 100" {
		t.Errorf("Unexpected citation %q", rec.Citations[3])
	}
}

func TestRecommend_Fallback(t *testing.T) {
	recs := Recommend(model.FallbackDifference("similarity", "boom"), "Austin", "Denver")
	if len(recs) != 0 {
		t.Errorf("Expected no recommendations for a fallback result, got %d", len(recs))
	}
}
