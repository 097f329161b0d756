package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/codelens/internal/corpus"
	"github.com/ppiankov/codelens/internal/model"
	"github.com/ppiankov/codelens/internal/pipeline"
)

// Comparer defines the interface for comparing two sections
type Comparer interface {
	Compare(ctx context.Context, a, b pipeline.SectionRef) (*model.Report, error)
}

// ComparePair is one scheduled comparison
type ComparePair struct {
	Name  string // Human-readable label for progress output
	Left  pipeline.SectionRef
	Right pipeline.SectionRef
}

// CompareJob represents one comparison in a batch
type CompareJob struct {
	Index    int
	Pair     ComparePair
	Comparer Comparer
}

// Execute executes the comparison job
func (j *CompareJob) Execute(ctx context.Context) Result {
	report, err := j.Comparer.Compare(ctx, j.Pair.Left, j.Pair.Right)
	if err != nil {
		return &CompareResult{Index: j.Index, Pair: j.Pair, Error: err}
	}
	return &CompareResult{Index: j.Index, Pair: j.Pair, Report: report}
}

// CompareResult represents the result of a comparison job
type CompareResult struct {
	Index  int
	Pair   ComparePair
	Report *model.Report
	Error  error
}

// GetError returns the error from the comparison result
func (r *CompareResult) GetError() error {
	return r.Error
}

// BatchProcessor runs many comparisons concurrently under one deadline
type BatchProcessor struct {
	comparer    Comparer
	concurrency int
	timeout     time.Duration
}

// NewBatchProcessor creates a new batch processor. A zero timeout means
// the batch is bounded only by ctx.
func NewBatchProcessor(comparer Comparer, concurrency int, timeout time.Duration) *BatchProcessor {
	return &BatchProcessor{
		comparer:    comparer,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

// ProcessPairs compares every pair and returns results in input order.
// Pairs that never ran because the deadline passed carry the context error.
func (b *BatchProcessor) ProcessPairs(ctx context.Context, pairs []ComparePair) []*CompareResult {
	if len(pairs) == 0 {
		return []*CompareResult{}
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	pool := NewPoolContext(ctx, b.concurrency)
	pool.Start()

	for i, pair := range pairs {
		pool.Submit(&CompareJob{
			Index:    i,
			Pair:     pair,
			Comparer: b.comparer,
		})
	}

	results := pool.Wait()

	ordered := make([]*CompareResult, len(pairs))
	for _, result := range results {
		r := result.(*CompareResult)
		ordered[r.Index] = r
	}
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &CompareResult{Index: i, Pair: pairs[i], Error: fmt.Errorf("not run: %w", err)}
		}
	}

	return ordered
}

// ProcessCorpus compares every pair of jurisdictions sharing a section
func (b *BatchProcessor) ProcessCorpus(ctx context.Context, c *corpus.Corpus) ([]*CompareResult, error) {
	pairs := PairsFromCorpus(c)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no section is held by two jurisdictions", corpus.ErrNoSections)
	}
	return b.ProcessPairs(ctx, pairs), nil
}

// ProcessFile runs a batch from a YAML corpus or a plain pair list
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CompareResult, error) {
	if ext := strings.ToLower(filepath.Ext(filePath)); ext == ".yaml" || ext == ".yml" {
		c, err := corpus.Load(filePath)
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		return b.ProcessCorpus(ctx, c)
	}

	pairs, err := ReadPairsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read pairs: %w", err)
	}
	return b.ProcessPairs(ctx, pairs), nil
}

// PairsFromCorpus schedules every corpus pair
func PairsFromCorpus(c *corpus.Corpus) []ComparePair {
	corpusPairs := c.Pairs()
	pairs := make([]ComparePair, 0, len(corpusPairs))
	for _, p := range corpusPairs {
		pairs = append(pairs, ComparePair{
			Name:  fmt.Sprintf("%s %s: %s vs %s", p.Category, p.Section, p.Left.Jurisdiction, p.Right.Jurisdiction),
			Left:  pipeline.CorpusRef(p.Left),
			Right: pipeline.CorpusRef(p.Right),
		})
	}
	return pairs
}

// ReadPairsFromFile reads "left right" pairs (file paths or URLs), one
// per line
func ReadPairsFromFile(filePath string) ([]ComparePair, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var pairs []ComparePair
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected two locations, got %d", lineNo, len(fields))
		}

		// Deduplicate pairs
		key := fields[0] + " " + fields[1]
		if seen[key] {
			continue
		}
		seen[key] = true

		pairs = append(pairs, ComparePair{
			Name:  fmt.Sprintf("%s vs %s", fields[0], fields[1]),
			Left:  pipeline.LocationRef(fields[0]),
			Right: pipeline.LocationRef(fields[1]),
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return pairs, nil
}
