package score

import "github.com/ppiankov/codelens/internal/model"

// AnalyzeCitations compares the references of both sides by (text, kind).
// Common and UniqueA keep A's order of first appearance, UniqueB keeps B's.
// KindCount counts every reference occurrence on both sides.
func AnalyzeCitations(result model.DifferenceResult) model.CitationAnalysis {
	refsA := result.EntitiesA.References
	refsB := result.EntitiesB.References

	inA := referenceSet(refsA)
	inB := referenceSet(refsB)

	analysis := model.CitationAnalysis{
		Common:  []model.Reference{},
		UniqueA: []model.Reference{},
		UniqueB: []model.Reference{},
		KindCount: map[model.ReferenceKind]int{
			model.ReferenceSection:  0,
			model.ReferenceCode:     0,
			model.ReferenceExternal: 0,
		},
	}

	seen := make(map[model.Reference]bool)
	for _, ref := range refsA {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		if inB[ref] {
			analysis.Common = append(analysis.Common, ref)
		} else {
			analysis.UniqueA = append(analysis.UniqueA, ref)
		}
	}

	for _, ref := range refsB {
		if inA[ref] || seen[ref] {
			continue
		}
		seen[ref] = true
		analysis.UniqueB = append(analysis.UniqueB, ref)
	}

	for _, ref := range refsA {
		analysis.KindCount[ref.Kind]++
	}
	for _, ref := range refsB {
		analysis.KindCount[ref.Kind]++
	}

	return analysis
}

func referenceSet(refs []model.Reference) map[model.Reference]bool {
	set := make(map[model.Reference]bool, len(refs))
	for _, ref := range refs {
		set[ref] = true
	}
	return set
}
