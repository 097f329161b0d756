package model

// MeasurementKind is the only kind a Measurement carries
const MeasurementKind = "measurement"

// Measurement is a raw numeric quantity matched in the text (e.g. "10 feet", "25%")
type Measurement struct {
	Value string `json:"value"` // Exact matched substring
	Kind  string `json:"type"`  // Always "measurement"
}

// RequirementKind classifies the force of a requirement sentence
type RequirementKind string

const (
	RequirementMandatory   RequirementKind = "mandatory"   // shall, must, required
	RequirementRecommended RequirementKind = "recommended" // should, recommended
	RequirementProhibited  RequirementKind = "prohibited"  // shall not, must not, prohibited
	RequirementOptional    RequirementKind = "optional"    // may, optional, permitted
)

// Requirement is a sentence that matched a requirement keyword pattern
type Requirement struct {
	Text string          `json:"text"` // The whole containing sentence (lowercased)
	Kind RequirementKind `json:"type"`
}

// TechnicalTermGroup lists the dictionary terms of one category found in a text
type TechnicalTermGroup struct {
	Category string   `json:"category"`
	Terms    []string `json:"terms"` // Dictionary order
}

// ReferenceKind classifies a citation found in a sentence
type ReferenceKind string

const (
	ReferenceSection  ReferenceKind = "section"  // "section 1004"
	ReferenceCode     ReferenceKind = "code"     // "code ibc-2021", "standard 13"
	ReferenceExternal ReferenceKind = "external" // ASTM, IBC, NFPA, ANSI, IEEE
)

// Reference is a sentence that cites a section, code or external standard.
// One Reference is produced per match, so a sentence citing two sections
// appears twice.
type Reference struct {
	Text string        `json:"text"`
	Kind ReferenceKind `json:"type"`
}

// ExtractionResult bundles everything extracted from one text.
// All slices are non-nil so they encode as [] rather than null.
type ExtractionResult struct {
	Measurements   []Measurement        `json:"measurements"`
	Requirements   []Requirement        `json:"requirements"`
	TechnicalTerms []TechnicalTermGroup `json:"technical_terms"`
	References     []Reference          `json:"references"`
}

// EmptyExtraction returns an ExtractionResult with all sequences empty
func EmptyExtraction() ExtractionResult {
	return ExtractionResult{
		Measurements:   []Measurement{},
		Requirements:   []Requirement{},
		TechnicalTerms: []TechnicalTermGroup{},
		References:     []Reference{},
	}
}

// AllTerms returns the set of technical terms across all groups
func (r ExtractionResult) AllTerms() map[string]bool {
	terms := make(map[string]bool)
	for _, group := range r.TechnicalTerms {
		for _, term := range group.Terms {
			terms[term] = true
		}
	}
	return terms
}

// ReferenceTexts returns the set of distinct reference sentences
func (r ExtractionResult) ReferenceTexts() map[string]bool {
	texts := make(map[string]bool, len(r.References))
	for _, ref := range r.References {
		texts[ref.Text] = true
	}
	return texts
}
