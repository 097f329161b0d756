package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/codelens/internal/model"
	"github.com/ppiankov/codelens/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON        string
	outMD          string
	timeout        time.Duration
	noCache        bool
	noFooter       bool
	noRobots       bool
	httpProxy      string
	httpsProxy     string
	llmProvider    string
	llmModel       string
	strictCitation bool
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff <a> <b>",
	Short: "Compare two code section texts",
	Long: `Diff compares two building code section texts, given as local files
(plain text or HTML) or http(s) URLs:
- TF-IDF similarity of the two texts
- Measurements, requirements, technical terms and references of each side
- Requirements present on one side with no near-duplicate on the other
- Impact index, citation overlap and a unification recommendation

Without --json or --md the Markdown report is printed to stdout.

Example:
  codelens diff austin-1011.txt denver-1011.txt
  codelens diff austin.html https://codes.example.gov/denver/1011 --json report.json --md report.md
  codelens diff a.txt b.txt --llm-provider anthropic`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	// Output flags
	diffCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	diffCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	diffCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall comparison timeout")
	addCompareFlags(diffCmd)
}

// addCompareFlags registers the flags shared by diff and batch
func addCompareFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().BoolVar(&noRobots, "no-robots", false, "do not consult robots.txt before fetching URLs")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// LLM flags
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider for an optional summary (openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
	cmd.Flags().BoolVar(&strictCitation, "strict-citation", true, "reject summaries citing references absent from both texts")
}

// applyCompareFlags overrides the loaded config with explicitly set flags
func applyCompareFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("no-robots") {
		cfg.HTTP.RespectRobots = !noRobots
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("strict-citation") {
		cfg.LLM.StrictCitation = strictCitation
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := appConfig
	applyCompareFlags(cmd, cfg)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Comparing: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "     with: %s\n", args[1])
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		if cfg.LLM.Provider != "" {
			fmt.Fprintf(os.Stderr, "LLM: %s\n", cfg.LLM.Provider)
		}
		fmt.Fprintln(os.Stderr)
	}

	p := newPipeline(cfg)

	report, err := p.Compare(ctx, pipeline.LocationRef(args[0]), pipeline.LocationRef(args[1]))
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}

	if outJSON == "" && outMD == "" {
		fmt.Print(p.Renderer().Markdown(report))
	}

	if err := p.RenderReport(report, outJSON, outMD, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}
