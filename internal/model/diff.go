package model

// DefaultSimilarity is reported whenever similarity cannot be computed
const DefaultSimilarity = 0.5

// RequirementChangeSet describes how requirements moved between two texts
type RequirementChangeSet struct {
	Added    []Requirement `json:"added"`    // In B with no near-duplicate in A
	Removed  []Requirement `json:"removed"`  // In A with no near-duplicate in B
	Modified []Requirement `json:"modified"` // Reserved; never populated
}

// EmptyChangeSet returns a change set with all sequences empty
func EmptyChangeSet() RequirementChangeSet {
	return RequirementChangeSet{
		Added:    []Requirement{},
		Removed:  []Requirement{},
		Modified: []Requirement{},
	}
}

// Count returns the number of added plus removed requirements
func (c RequirementChangeSet) Count() int {
	return len(c.Added) + len(c.Removed)
}

// DifferenceResult is the consolidated comparison of two texts
type DifferenceResult struct {
	SimilarityScore    float64              `json:"similarity_score"` // Always within [0,1]
	EntitiesA          ExtractionResult     `json:"entities_a"`
	EntitiesB          ExtractionResult     `json:"entities_b"`
	RequirementChanges RequirementChangeSet `json:"requirement_changes"`
	Diagnostics        Diagnostics          `json:"diagnostics"`
}

// Diagnostics records which recovery paths an analysis took
type Diagnostics struct {
	SimilarityDefaulted bool   `json:"similarity_defaulted"` // Similarity fell back to DefaultSimilarity
	Fallback            bool   `json:"fallback"`             // Whole result replaced by the default result
	Stage               string `json:"stage,omitempty"`      // Stage that failed ("similarity", "requirements")
	Reason              string `json:"reason,omitempty"`
}

// FallbackDifference returns the fully default result used when an analysis stage fails
func FallbackDifference(stage, reason string) DifferenceResult {
	return DifferenceResult{
		SimilarityScore:    DefaultSimilarity,
		EntitiesA:          EmptyExtraction(),
		EntitiesB:          EmptyExtraction(),
		RequirementChanges: EmptyChangeSet(),
		Diagnostics: Diagnostics{
			SimilarityDefaulted: true,
			Fallback:            true,
			Stage:               stage,
			Reason:              reason,
		},
	}
}
