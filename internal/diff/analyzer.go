// Package diff compares two building-code texts: overall similarity,
// entities on each side and which requirements were added or removed.
package diff

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/codelens/internal/extract"
	"github.com/ppiankov/codelens/internal/logging"
	"github.com/ppiankov/codelens/internal/model"
	"github.com/ppiankov/codelens/internal/similarity"
)

// RequirementMatchThreshold is the pairwise similarity two requirement
// sentences must exceed (strictly) to count as the same requirement.
const RequirementMatchThreshold = 0.8

// Stage names reported in model.Diagnostics
const (
	StageSimilarity   = "similarity"
	StageRequirements = "requirements"
)

// SimilarityFunc scores two texts in [0,1]
type SimilarityFunc func(a, b string) (float64, error)

// Analyzer produces DifferenceResults. It is stateless apart from its
// options and safe for concurrent use.
type Analyzer struct {
	extractor  *extract.EntityExtractor
	similarity SimilarityFunc
	logger     *slog.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLogger sets the logger that receives fallback warnings
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSimilarity replaces the pairwise similarity primitive
func WithSimilarity(fn SimilarityFunc) Option {
	return func(a *Analyzer) {
		if fn != nil {
			a.similarity = fn
		}
	}
}

// NewAnalyzer creates an analyzer using TF-IDF cosine similarity
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		extractor:  extract.NewEntityExtractor(),
		similarity: similarity.Pair,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compare runs a default analyzer over two texts
func Compare(textA, textB string) model.DifferenceResult {
	return NewAnalyzer().Diff(textA, textB)
}

// stageError wraps a panic recovered from an analysis stage
type stageError struct {
	stage string
	cause interface{}
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.stage, e.cause)
}

// Diff compares textA with textB. It always returns a structurally valid
// result: a similarity that cannot be computed becomes 0.5, and a failing
// similarity or requirement stage replaces the whole result with the
// default one (see model.FallbackDifference). Panics raised while
// extracting entities are not recovered.
func (a *Analyzer) Diff(textA, textB string) model.DifferenceResult {
	var diag model.Diagnostics

	score, err := a.runSimilarity(textA, textB)
	if err != nil {
		var se *stageError
		if errors.As(err, &se) {
			return a.fallback(se)
		}
		a.logger.Warn("similarity defaulted",
			"stage", StageSimilarity,
			"error", err,
			"default", model.DefaultSimilarity)
		score = model.DefaultSimilarity
		diag.SimilarityDefaulted = true
	}

	entitiesA := a.extractor.Extract(textA)
	entitiesB := a.extractor.Extract(textB)

	changes, err := a.runRequirementDiff(entitiesA.Requirements, entitiesB.Requirements)
	if err != nil {
		var se *stageError
		if errors.As(err, &se) {
			return a.fallback(se)
		}
	}

	return model.DifferenceResult{
		SimilarityScore:    score,
		EntitiesA:          entitiesA,
		EntitiesB:          entitiesB,
		RequirementChanges: changes,
		Diagnostics:        diag,
	}
}

func (a *Analyzer) fallback(se *stageError) model.DifferenceResult {
	a.logger.Warn("comparison fell back to default result",
		"stage", se.stage,
		"error", se.Error())
	return model.FallbackDifference(se.stage, se.Error())
}

// runSimilarity scores the normalised texts. Plain errors mean the score
// is undefined; a *stageError means the stage itself blew up.
func (a *Analyzer) runSimilarity(textA, textB string) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &stageError{stage: StageSimilarity, cause: r}
		}
	}()

	score, err = a.similarity(extract.Normalize(textA), extract.Normalize(textB))
	if err != nil {
		return 0, err
	}
	return clamp(score), nil
}

func (a *Analyzer) runRequirementDiff(reqsA, reqsB []model.Requirement) (changes model.RequirementChangeSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &stageError{stage: StageRequirements, cause: r}
		}
	}()

	changes = model.EmptyChangeSet()

	for _, reqB := range reqsB {
		if !a.hasMatch(reqB, reqsA) {
			changes.Added = append(changes.Added, reqB)
		}
	}
	for _, reqA := range reqsA {
		if !a.hasMatch(reqA, reqsB) {
			changes.Removed = append(changes.Removed, reqA)
		}
	}

	return changes, nil
}

// hasMatch reports whether any candidate is a near duplicate of req.
// Each comparison builds its own two-document vector space.
func (a *Analyzer) hasMatch(req model.Requirement, candidates []model.Requirement) bool {
	for _, candidate := range candidates {
		if Matches(a.pairSimilarity(req.Text, candidate.Text)) {
			return true
		}
	}
	return false
}

// pairSimilarity scores two requirement sentences, defaulting to 0.5
func (a *Analyzer) pairSimilarity(x, y string) float64 {
	score, err := a.similarity(extract.Normalize(x), extract.Normalize(y))
	if err != nil {
		a.logger.Debug("requirement similarity defaulted", "error", err)
		return model.DefaultSimilarity
	}
	return clamp(score)
}

// Matches applies the strict requirement-match threshold
func Matches(score float64) bool {
	return score > RequirementMatchThreshold
}

func clamp(x float64) float64 {
	if x != x || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
