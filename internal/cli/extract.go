package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/codelens/internal/extract"
	"github.com/ppiankov/codelens/internal/pipeline"
	"github.com/spf13/cobra"
)

var extractOut string

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file|url>",
	Short: "Extract entities from one code section",
	Long: `Extract prints the measurements, requirements, technical terms and
references found in a single code section as JSON.

Example:
  codelens extract austin-1011.txt
  codelens extract https://codes.example.gov/austin/1011 --json entities.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractOut, "json", "", "write JSON to this path instead of stdout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), appConfig.HTTP.Timeout+10*time.Second)
	defer cancel()

	source, err := newPipeline(appConfig).Resolve(ctx, pipeline.LocationRef(args[0]))
	if err != nil {
		return err
	}

	result := extract.Extract(source.Content)
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entities: %w", err)
	}
	data = append(data, '\n')

	if extractOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(extractOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", extractOut, err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", extractOut)
	}
	return nil
}
