package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/codelens/internal/corpus"
	"github.com/ppiankov/codelens/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <corpus.yaml|pairs.txt>",
	Short: "Compare every jurisdiction pair of a corpus in parallel",
	Long: `Batch runs many comparisons concurrently:
- A YAML corpus schedules every pair of jurisdictions holding the same section
- A text file lists "left right" locations (files or URLs), one pair per line
- Comparisons run on a bounded worker pool under a total timeout
- One JSON and Markdown report is written per pair
- For a corpus, severity.md lists the sections whose texts differ

Example:
  codelens batch corpus.yaml
  codelens batch corpus.yaml --concurrency 8 --output-dir ./reports
  codelens batch pairs.txt --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./codelens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 0, "total timeout for batch processing (default from config)")
	addCompareFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg := appConfig
	applyCompareFlags(cmd, cfg)
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Concurrency.BatchTimeout = batchTimeout
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  codelens Batch Comparison\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", cfg.Concurrency.BatchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s\n", cfg.LLM.Provider)
	}
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p := newPipeline(cfg)
	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, cfg.Concurrency.BatchTimeout)
	renderer := p.Renderer()
	ctx := context.Background()

	var (
		results []*worker.CompareResult
		err     error
	)
	if isCorpusFile(file) {
		c, loadErr := corpus.Load(file)
		if loadErr != nil {
			return fmt.Errorf("load corpus: %w", loadErr)
		}
		fmt.Fprintf(os.Stderr, "✓ Loaded %d sections from %d jurisdictions\n", len(c.Sections), len(c.Jurisdictions()))

		severityPath := filepath.Join(outputDir, "severity.md")
		if err := renderer.RenderSeverityMarkdown(c.Differences(), severityPath); err != nil {
			return fmt.Errorf("write severity summary: %w", err)
		}

		results, err = processor.ProcessCorpus(ctx, c)
	} else {
		results, err = processor.ProcessFile(ctx, file)
	}
	if err != nil {
		return fmt.Errorf("process %s: %w", file, err)
	}

	fmt.Fprintf(os.Stderr, "⚙️  Compared %d pairs with %d workers\n", len(results), cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "\n")

	// Process results
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Pair.Name, result.Error)
			continue
		}

		// Generate output file names
		slug := fmt.Sprintf("%03d-%s", result.Index+1, sanitizeFilename(result.Pair.Name))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Pair.Name, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Pair.Name, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (impact: %d/100, similarity: %.2f)\n",
			result.Pair.Name, result.Report.Score.Index, result.Report.Difference.SimilarityScore)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d pairs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if hits, misses, ok := p.CacheStats(); ok {
		logger.Info("batch complete", "input", file, "pairs", len(results), "failures", failureCount,
			"cache_hits", hits, "cache_misses", misses)
	} else {
		logger.Info("batch complete", "input", file, "pairs", len(results), "failures", failureCount)
	}

	return nil
}

func isCorpusFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".-_")
	if s == "" {
		s = "comparison"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}
