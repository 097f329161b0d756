package corpus

import (
	"sort"
	"strings"
)

// Severity of a section that differs across jurisdictions
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Pair is two jurisdictions' texts of the same section
type Pair struct {
	Category string
	Section  string
	Left     Section
	Right    Section
}

// SectionDifference flags a section whose text is not identical everywhere
type SectionDifference struct {
	Category         string   `json:"category"`
	Section          string   `json:"section"`
	Jurisdictions    []string `json:"jurisdictions"`
	DistinctContents int      `json:"distinct_contents"`
	Severity         string   `json:"severity"`
}

type sectionGroup struct {
	category string
	section  string
	members  []Section
}

// groups buckets sections by (category, section) in first-appearance order
func (c *Corpus) groups() []*sectionGroup {
	index := make(map[string]*sectionGroup)
	var order []*sectionGroup
	for _, s := range c.Sections {
		key := strings.ToLower(s.Category) + "\x00" + s.Section
		g, ok := index[key]
		if !ok {
			g = &sectionGroup{category: s.Category, section: s.Section}
			index[key] = g
			order = append(order, g)
		}
		g.members = append(g.members, s)
	}
	return order
}

// Pairs enumerates every pair of jurisdictions that hold the same section
func (c *Corpus) Pairs() []Pair {
	var pairs []Pair
	for _, g := range c.groups() {
		for i := 0; i < len(g.members); i++ {
			for j := i + 1; j < len(g.members); j++ {
				pairs = append(pairs, Pair{
					Category: g.category,
					Section:  g.section,
					Left:     g.members[i],
					Right:    g.members[j],
				})
			}
		}
	}
	return pairs
}

// Differences lists sections held by several jurisdictions whose texts
// are not all identical. More than two distinct texts is high severity.
func (c *Corpus) Differences() []SectionDifference {
	var diffs []SectionDifference
	for _, g := range c.groups() {
		if len(g.members) < 2 {
			continue
		}

		distinct := make(map[string]bool)
		jurisdictions := make([]string, 0, len(g.members))
		for _, m := range g.members {
			distinct[m.Content] = true
			jurisdictions = append(jurisdictions, m.Jurisdiction)
		}
		if len(distinct) < 2 {
			continue
		}

		severity := SeverityMedium
		if len(distinct) > 2 {
			severity = SeverityHigh
		}
		diffs = append(diffs, SectionDifference{
			Category:         g.category,
			Section:          g.section,
			Jurisdictions:    jurisdictions,
			DistinctContents: len(distinct),
			Severity:         severity,
		})
	}
	return diffs
}

// Search returns sections whose content contains term, ignoring case,
// optionally restricted to the given jurisdictions
func (c *Corpus) Search(term string, jurisdictions ...string) []Section {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}

	allowed := make(map[string]bool, len(jurisdictions))
	for _, j := range jurisdictions {
		allowed[strings.ToLower(j)] = true
	}

	var hits []Section
	for _, s := range c.sorted() {
		if len(allowed) > 0 && !allowed[strings.ToLower(s.Jurisdiction)] {
			continue
		}
		if strings.Contains(strings.ToLower(s.Content), needle) {
			hits = append(hits, s)
		}
	}
	return hits
}

// Find returns one jurisdiction's text of a section
func (c *Corpus) Find(jurisdiction, category, section string) (Section, bool) {
	for _, s := range c.Sections {
		if strings.EqualFold(s.Jurisdiction, jurisdiction) &&
			strings.EqualFold(s.Category, category) &&
			s.Section == section {
			return s, true
		}
	}
	return Section{}, false
}

// Jurisdictions returns the distinct jurisdictions, sorted
func (c *Corpus) Jurisdictions() []string {
	return distinctSorted(c.Sections, func(s Section) string { return s.Jurisdiction })
}

// Categories returns the distinct categories, sorted
func (c *Corpus) Categories() []string {
	return distinctSorted(c.Sections, func(s Section) string { return s.Category })
}

// sorted orders sections by category, section and jurisdiction
func (c *Corpus) sorted() []Section {
	out := make([]Section, len(c.Sections))
	copy(out, c.Sections)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ca, cb := strings.ToLower(a.Category), strings.ToLower(b.Category); ca != cb {
			return ca < cb
		}
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		return a.Jurisdiction < b.Jurisdiction
	})
	return out
}

func distinctSorted(sections []Section, field func(Section) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range sections {
		v := field(s)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
