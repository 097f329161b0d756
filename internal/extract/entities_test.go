package extract

import (
	"reflect"
	"testing"

	"github.com/ppiankov/codelens/internal/model"
)

func TestEntityExtractor_EmptyText(t *testing.T) {
	extractor := NewEntityExtractor()

	for _, text := range []string{"", "   ", "...!?", "\n\t"} {
		result := extractor.Extract(text)

		if result.Measurements == nil || result.Requirements == nil ||
			result.TechnicalTerms == nil || result.References == nil {
			t.Fatalf("Expected non-nil sequences for %q, got %+v", text, result)
		}
		if len(result.Measurements)+len(result.Requirements)+len(result.TechnicalTerms)+len(result.References) != 0 {
			t.Errorf("Expected empty extraction for %q, got %+v", text, result)
		}
	}
}

func TestEntityExtractor_ClearanceRequirement(t *testing.T) {
	result := Extract("shall provide 10 feet of clearance.")

	if len(result.Measurements) != 1 {
		t.Fatalf("Expected 1 measurement, got %d: %+v", len(result.Measurements), result.Measurements)
	}
	if result.Measurements[0].Value != "10 feet" {
		t.Errorf("Expected measurement '10 feet', got '%s'", result.Measurements[0].Value)
	}
	if result.Measurements[0].Kind != model.MeasurementKind {
		t.Errorf("Expected kind %q, got %q", model.MeasurementKind, result.Measurements[0].Kind)
	}

	want := []model.Requirement{{Text: "shall provide 10 feet of clearance", Kind: model.RequirementMandatory}}
	if !reflect.DeepEqual(result.Requirements, want) {
		t.Errorf("Expected requirements %+v, got %+v", want, result.Requirements)
	}

	if len(result.TechnicalTerms) != 0 {
		t.Errorf("Expected no technical terms, got %+v", result.TechnicalTerms)
	}
	if len(result.References) != 0 {
		t.Errorf("Expected no references, got %+v", result.References)
	}
}

func TestEntityExtractor_ExternalStandard(t *testing.T) {
	result := Extract("ASTM A36 steel columns shall be used.")
	sentence := "astm a36 steel columns shall be used"

	wantTerms := []model.TechnicalTermGroup{{Category: "structural", Terms: []string{"steel", "column"}}}
	if !reflect.DeepEqual(result.TechnicalTerms, wantTerms) {
		t.Errorf("Expected terms %+v, got %+v", wantTerms, result.TechnicalTerms)
	}

	wantRefs := []model.Reference{{Text: sentence, Kind: model.ReferenceExternal}}
	if !reflect.DeepEqual(result.References, wantRefs) {
		t.Errorf("Expected references %+v, got %+v", wantRefs, result.References)
	}

	wantReqs := []model.Requirement{{Text: sentence, Kind: model.RequirementMandatory}}
	if !reflect.DeepEqual(result.Requirements, wantReqs) {
		t.Errorf("Expected requirements %+v, got %+v", wantReqs, result.Requirements)
	}
}

func TestEntityExtractor_RequirementKindsOverlap(t *testing.T) {
	result := Extract("Structures shall not exceed 35 feet in height.")

	kinds := make(map[model.RequirementKind]int)
	for _, req := range result.Requirements {
		kinds[req.Kind]++
		if req.Text != "structures shall not exceed 35 feet in height" {
			t.Errorf("Expected whole sentence as requirement text, got '%s'", req.Text)
		}
	}

	if kinds[model.RequirementMandatory] != 1 || kinds[model.RequirementProhibited] != 1 {
		t.Errorf("Expected one mandatory and one prohibited requirement, got %v", kinds)
	}
	if len(result.Requirements) != 2 {
		t.Errorf("Expected 2 requirements, got %d", len(result.Requirements))
	}

	// Kinds are emitted in table order, not sentence order
	if result.Requirements[0].Kind != model.RequirementMandatory {
		t.Errorf("Expected mandatory first, got %s", result.Requirements[0].Kind)
	}
}

func TestEntityExtractor_RequirementsPerSentence(t *testing.T) {
	text := "Handrails should be provided. Guards may be omitted! Storage is prohibited? Exits are marked."
	result := Extract(text)

	want := []model.Requirement{
		{Text: "handrails should be provided", Kind: model.RequirementRecommended},
		{Text: "storage is prohibited", Kind: model.RequirementProhibited},
		{Text: "guards may be omitted", Kind: model.RequirementOptional},
	}
	if !reflect.DeepEqual(result.Requirements, want) {
		t.Errorf("Expected %+v, got %+v", want, result.Requirements)
	}
}

func TestEntityExtractor_WordBoundaries(t *testing.T) {
	// "mayor" and "shallow" must not count as requirement keywords
	result := Extract("The mayor inspected the shallow trench")
	if len(result.Requirements) != 0 {
		t.Errorf("Expected no requirements, got %+v", result.Requirements)
	}
}

func TestEntityExtractor_Measurements(t *testing.T) {
	result := Extract("A minimum of 1000 square feet, a 2.5 m setback and a 25% slope.")

	var values []string
	for _, m := range result.Measurements {
		values = append(values, m.Value)
	}

	// Pattern order: linear units, then areas, then percentages
	want := []string{"2.5 m", "1000 square feet", "25%"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("Expected %v, got %v", want, values)
	}
}

func TestEntityExtractor_ReferencesRepeatPerMatch(t *testing.T) {
	result := Extract("Comply with section 101 and section 202")

	if len(result.References) != 2 {
		t.Fatalf("Expected 2 references, got %d: %+v", len(result.References), result.References)
	}
	for _, ref := range result.References {
		if ref.Kind != model.ReferenceSection {
			t.Errorf("Expected section reference, got %s", ref.Kind)
		}
		if ref.Text != "comply with section 101 and section 202" {
			t.Errorf("Expected whole sentence, got '%s'", ref.Text)
		}
	}
}

func TestEntityExtractor_CodeReference(t *testing.T) {
	result := Extract("Work shall conform to the fire code nfpa-13")

	found := false
	for _, ref := range result.References {
		if ref.Kind == model.ReferenceCode {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a code reference, got %+v", result.References)
	}
}

func TestEntityExtractor_TechnicalTermOrder(t *testing.T) {
	result := Extract("Water supply pipe and a circuit breaker panel")

	want := []model.TechnicalTermGroup{
		{Category: "electrical", Terms: []string{"circuit", "breaker", "panel"}},
		{Category: "plumbing", Terms: []string{"pipe", "water", "supply"}},
	}
	if !reflect.DeepEqual(result.TechnicalTerms, want) {
		t.Errorf("Expected %+v, got %+v", want, result.TechnicalTerms)
	}
}

func TestEntityExtractor_Idempotent(t *testing.T) {
	extractor := NewEntityExtractor()
	text := "Section 1604 requires that steel beams shall carry the design load. ASTM A992 applies. Vent pipes should be 3 inches."

	first := extractor.Extract(text)
	second := extractor.Extract(text)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results, got\n%+v\n%+v", first, second)
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("  First Sentence.. Second one!?  third  ")
	want := []string{"first sentence", "second one", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if n := Normalize("A. B! C?"); n != "a b c" {
		t.Errorf("Expected 'a b c', got '%s'", n)
	}
}

func TestTerms(t *testing.T) {
	if got := Categories(); !reflect.DeepEqual(got, []string{"structural", "electrical", "plumbing"}) {
		t.Errorf("Unexpected categories %v", got)
	}

	terms := Terms("plumbing")
	terms[0] = "mutated"
	if Terms("plumbing")[0] != "pipe" {
		t.Error("Expected Terms to return a copy")
	}

	if Terms("unknown") != nil {
		t.Error("Expected nil for unknown category")
	}
}
