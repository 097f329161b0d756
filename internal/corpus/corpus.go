// Package corpus loads a collection of building code sections from several
// jurisdictions and answers questions across it: which sections can be
// compared, which differ, and where a term appears.
package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/codelens/internal/extract"
)

// Section is one jurisdiction's text for a code section
type Section struct {
	Jurisdiction string `yaml:"jurisdiction" json:"jurisdiction"`
	Category     string `yaml:"category" json:"category"`
	Section      string `yaml:"section" json:"section"`
	Content      string `yaml:"content,omitempty" json:"content"`
	// File is read instead of Content when set; relative to the corpus file
	File string `yaml:"file,omitempty" json:"-"`
}

// Label names the section for reports ("Austin - Means Of Egress - Section 1015")
func (s Section) Label() string {
	return fmt.Sprintf("%s - %s - Section %s", s.Jurisdiction, s.Category, s.Section)
}

// Corpus is an ordered set of sections
type Corpus struct {
	Sections []Section `yaml:"sections"`
}

// ErrNoSections is returned for a corpus that lists no sections
var ErrNoSections = errors.New("corpus has no sections")

var titleCaser = cases.Title(language.English)

// Load reads a YAML corpus file
func Load(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a YAML corpus. File references resolve against baseDir.
// Categories are title-cased, HTML content is reduced to visible text and
// a repeated (jurisdiction, category, section) is rejected.
func Parse(data []byte, baseDir string) (*Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(c.Sections) == 0 {
		return nil, ErrNoSections
	}

	seen := make(map[string]bool)
	for i := range c.Sections {
		s := &c.Sections[i]

		s.Jurisdiction = strings.TrimSpace(s.Jurisdiction)
		s.Section = strings.TrimSpace(s.Section)
		s.Category = titleCaser.String(strings.TrimSpace(s.Category))
		if s.Jurisdiction == "" || s.Category == "" || s.Section == "" {
			return nil, fmt.Errorf("section %d: jurisdiction, category and section are required", i+1)
		}

		if s.File != "" {
			path := s.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("section %d: read %s: %w", i+1, s.File, err)
			}
			s.Content = string(content)
		}
		if extract.LooksLikeHTML(s.Content) {
			s.Content = extract.VisibleText(s.Content)
		}

		key := strings.ToLower(s.Jurisdiction + "\x00" + s.Category + "\x00" + s.Section)
		if seen[key] {
			return nil, fmt.Errorf("section %d: duplicate %s", i+1, s.Label())
		}
		seen[key] = true
	}

	return &c, nil
}
