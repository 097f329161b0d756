package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/codelens/internal/corpus"
	"github.com/spf13/cobra"
)

var (
	searchJurisdictions []string
	searchJSON          bool
	searchDifferences   bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <corpus.yaml> [term]",
	Short: "Search the sections of a corpus",
	Long: `Search finds corpus sections whose text contains a term, ignoring case,
optionally restricted to some jurisdictions. With --differences it instead
lists the sections whose text differs between jurisdictions.

Example:
  codelens search corpus.yaml sprinkler
  codelens search corpus.yaml "exit stair" --jurisdiction Austin --jurisdiction Denver
  codelens search corpus.yaml --differences`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringSliceVarP(&searchJurisdictions, "jurisdiction", "j", nil, "restrict to these jurisdictions (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	searchCmd.Flags().BoolVar(&searchDifferences, "differences", false, "list sections whose text differs across jurisdictions")
}

func runSearch(cmd *cobra.Command, args []string) error {
	c, err := corpus.Load(args[0])
	if err != nil {
		return err
	}

	if searchDifferences {
		diffs := c.Differences()
		if searchJSON {
			return printJSON(diffs)
		}
		for _, d := range diffs {
			fmt.Printf("[%s] %s %s: %d distinct texts across %s\n",
				d.Severity, d.Category, d.Section, d.DistinctContents, strings.Join(d.Jurisdictions, ", "))
		}
		return nil
	}

	if len(args) < 2 {
		return fmt.Errorf("search term required")
	}
	term := args[1]

	hits := c.Search(term, searchJurisdictions...)
	logger.Debug("corpus search", "term", term, "jurisdictions", searchJurisdictions, "hits", len(hits))

	if searchJSON {
		return printJSON(hits)
	}
	if len(hits) == 0 {
		fmt.Fprintf(os.Stderr, "No sections mention %q\n", term)
		return nil
	}
	for _, s := range hits {
		fmt.Printf("%s\n    %s\n", s.Label(), snippet(s.Content, term, 60))
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// snippet returns the text around the first case-insensitive match of
// term, with up to width bytes of context on each side
func snippet(content, term string, width int) string {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(term))
	if idx < 0 {
		return ""
	}

	start := idx - width
	prefix := "..."
	if start <= 0 {
		start, prefix = 0, ""
	}
	end := idx + len(term) + width
	suffix := "..."
	if end >= len(content) {
		end, suffix = len(content), ""
	}

	// Avoid cutting multi-byte runes
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}

	return prefix + strings.Join(strings.Fields(content[start:end]), " ") + suffix
}
