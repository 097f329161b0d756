package extract

import (
	"strings"

	"github.com/ppiankov/codelens/internal/model"
)

// EntityExtractor extracts measurements, requirements, technical terms and
// references from building-code text. Its tables are fixed at package init,
// so one extractor can be shared across goroutines.
type EntityExtractor struct{}

// NewEntityExtractor creates a new entity extractor
func NewEntityExtractor() *EntityExtractor {
	return &EntityExtractor{}
}

var defaultExtractor = NewEntityExtractor()

// Extract runs the default extractor over text
func Extract(text string) model.ExtractionResult {
	return defaultExtractor.Extract(text)
}

// Extract scans text and returns everything it matched. It never fails:
// empty or unmatched text yields an ExtractionResult with empty sequences.
func (e *EntityExtractor) Extract(text string) model.ExtractionResult {
	lower := strings.ToLower(text)
	sentences := SplitSentences(lower)

	result := model.EmptyExtraction()
	result.Measurements = extractMeasurements(lower)
	result.Requirements = extractRequirements(sentences)
	result.References = extractReferences(sentences)
	result.TechnicalTerms = extractTechnicalTerms(lower)

	return result
}

// extractMeasurements runs each measurement pattern over the full text
func extractMeasurements(lower string) []model.Measurement {
	measurements := []model.Measurement{}
	for _, pattern := range measurementPatterns {
		for _, match := range pattern.FindAllString(lower, -1) {
			measurements = append(measurements, model.Measurement{
				Value: match,
				Kind:  model.MeasurementKind,
			})
		}
	}
	return measurements
}

// extractRequirements emits one Requirement per (kind, matching sentence)
func extractRequirements(sentences []string) []model.Requirement {
	requirements := []model.Requirement{}
	for _, rp := range requirementPatterns {
		for _, sentence := range sentences {
			if rp.pattern.MatchString(sentence) {
				requirements = append(requirements, model.Requirement{
					Text: sentence,
					Kind: rp.kind,
				})
			}
		}
	}
	return requirements
}

// extractReferences emits the whole sentence once per pattern match inside it
func extractReferences(sentences []string) []model.Reference {
	references := []model.Reference{}
	for _, rp := range referencePatterns {
		for _, sentence := range sentences {
			for range rp.pattern.FindAllStringIndex(sentence, -1) {
				references = append(references, model.Reference{
					Text: sentence,
					Kind: rp.kind,
				})
			}
		}
	}
	return references
}

// extractTechnicalTerms groups dictionary hits by category
func extractTechnicalTerms(lower string) []model.TechnicalTermGroup {
	groups := []model.TechnicalTermGroup{}
	for _, category := range technicalTerms {
		var found []string
		for _, term := range category.terms {
			if strings.Contains(lower, term) {
				found = append(found, term)
			}
		}
		if len(found) > 0 {
			groups = append(groups, model.TechnicalTermGroup{
				Category: category.name,
				Terms:    found,
			})
		}
	}
	return groups
}
