package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/codelens/internal/model"
)

const (
	maxListedTerms      = 5
	maxCitationsPerSide = 3
	maxCostReduction    = 30
)

// Recommend derives a code unification recommendation for jurisdictions
// j1 (text A) and j2 (text B). A fallback comparison yields none.
func Recommend(result model.DifferenceResult, j1, j2 string) []model.Recommendation {
	if result.Diagnostics.Fallback {
		return []model.Recommendation{}
	}

	a, b := result.EntitiesA, result.EntitiesB
	requirementDiffs := result.RequirementChanges.Count()

	measurementDiffs := len(a.Measurements) - len(b.Measurements)
	if measurementDiffs < 0 {
		measurementDiffs = -measurementDiffs
	}

	terms := SymmetricDifference(a.AllTerms(), b.AllTerms())
	if len(terms) > maxListedTerms {
		terms = terms[:maxListedTerms]
	}

	costReduction := requirementDiffs * 5
	if costReduction > maxCostReduction {
		costReduction = maxCostReduction
	}

	impact := "Medium"
	if requirementDiffs > 5 {
		impact = "High"
	}

	details := []string{
		fmt.Sprintf("- Found %d different requirements between %s and %s", requirementDiffs, j1, j2),
		fmt.Sprintf("- %d measurement standard variations identified", measurementDiffs),
		fmt.Sprintf("- Key technical term differences: %s", strings.Join(terms, ", ")),
		fmt.Sprintf("- Estimated compliance cost reduction: %d%%", costReduction),
		"Specific Actions:",
		"1. " + primaryAction(result, j1, j2),
		"2. " + secondaryAction(result, j1, j2),
	}

	citations := []string{}
	citations = append(citations, sideCitations(j1, a.References)...)
	citations = append(citations, sideCitations(j2, b.References)...)

	return []model.Recommendation{{
		Category:    "Code Unification",
		Description: fmt.Sprintf("Specific recommendations for %s and %s code alignment", j1, j2),
		Impact:      impact,
		Benefit:     fmt.Sprintf("Targeted improvements for %s-%s coordination", j1, j2),
		Details:     details,
		Citations:   citations,
	}}
}

func primaryAction(result model.DifferenceResult, j1, j2 string) string {
	changes := result.RequirementChanges
	if len(changes.Added) > len(changes.Removed) {
		return fmt.Sprintf("Focus on simplifying %s's additional requirements to match %s's standards", j2, j1)
	}
	return fmt.Sprintf("Review %s's reduced requirements against %s's safety standards", j1, j2)
}

func secondaryAction(result model.DifferenceResult, j1, j2 string) string {
	if len(result.EntitiesA.Measurements) > len(result.EntitiesB.Measurements) {
		return fmt.Sprintf("Standardize measurement specifications between %s and %s", j1, j2)
	}
	return "Align technical terminology and definitions between jurisdictions"
}

func sideCitations(jurisdiction string, refs []model.Reference) []string {
	if len(refs) > maxCitationsPerSide {
		refs = refs[:maxCitationsPerSide]
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, fmt.Sprintf("- %s Section %s", jurisdiction, ref.Text))
	}
	return out
}
