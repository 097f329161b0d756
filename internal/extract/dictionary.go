package extract

import (
	"regexp"

	"github.com/ppiankov/codelens/internal/model"
)

// termCategory is one row of the technical-term dictionary
type termCategory struct {
	name  string
	terms []string
}

// technicalTerms is matched by substring, so "column" also hits "columns"
var technicalTerms = []termCategory{
	{
		name: "structural",
		terms: []string{
			"load", "bearing", "foundation", "frame", "steel", "concrete",
			"beam", "column", "joist", "truss", "seismic", "shear", "lateral",
		},
	},
	{
		name: "electrical",
		terms: []string{
			"voltage", "circuit", "wiring", "conduit", "grounding",
			"breaker", "panel", "lighting", "power",
		},
	},
	{
		name: "plumbing",
		terms: []string{
			"pipe", "drainage", "vent", "fixture", "water",
			"valve", "pressure", "supply", "waste",
		},
	},
}

// Categories returns the dictionary category names in matching order
func Categories() []string {
	names := make([]string, len(technicalTerms))
	for i, c := range technicalTerms {
		names[i] = c.name
	}
	return names
}

// Terms returns a copy of the terms of a category, or nil if unknown
func Terms(category string) []string {
	for _, c := range technicalTerms {
		if c.name == category {
			return append([]string(nil), c.terms...)
		}
	}
	return nil
}

var measurementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:feet|foot|ft|inches|inch|in|meters|m)`),
	regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:square\s+feet|sq\s+ft|sf)`),
	regexp.MustCompile(`\d+(?:\.\d+)?\s*%`),
}

type requirementPattern struct {
	kind    model.RequirementKind
	pattern *regexp.Regexp
}

// requirementPatterns overlap on purpose: "shall not" is both mandatory and prohibited
var requirementPatterns = []requirementPattern{
	{model.RequirementMandatory, regexp.MustCompile(`\b(?:shall|must|required)\b`)},
	{model.RequirementRecommended, regexp.MustCompile(`\b(?:should|recommended)\b`)},
	{model.RequirementProhibited, regexp.MustCompile(`\b(?:shall not|must not|prohibited)\b`)},
	{model.RequirementOptional, regexp.MustCompile(`\b(?:may|optional|permitted)\b`)},
}

type referencePattern struct {
	kind    model.ReferenceKind
	pattern *regexp.Regexp
}

// Sentences are lowercased before matching, hence (?i) on the acronyms
var referencePatterns = []referencePattern{
	{model.ReferenceSection, regexp.MustCompile(`\b(?:section|sect\.)\s+\d+(?:\.\d+)*\b`)},
	{model.ReferenceCode, regexp.MustCompile(`\b(?:code|standard|regulation)\s+[\w.\-]+\b`)},
	{model.ReferenceExternal, regexp.MustCompile(`(?i)\b(?:ASTM|IBC|NFPA|ANSI|IEEE)\s+[\w.\-]+\b`)},
}
