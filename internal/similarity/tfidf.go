package similarity

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyVocabulary is returned when no token survives stop-word removal
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain only stop words")

// Vectorizer builds TF-IDF vectors over a small corpus. It holds no
// vocabulary between calls: every Fit starts from scratch.
type Vectorizer struct {
	stopWords map[string]bool
}

// NewVectorizer creates a vectorizer using the English stop-word list
func NewVectorizer() *Vectorizer {
	return &Vectorizer{stopWords: englishStopWords}
}

// Matrix holds one L2-normalised TF-IDF row per document
type Matrix struct {
	Vocabulary []string    // Sorted terms
	IDF        []float64   // Per-term inverse document frequency
	Rows       [][]float64 // One row per input document
}

// Terms returns the non stop-word tokens of doc
func (v *Vectorizer) Terms(doc string) []string {
	tokens := Tokenize(doc)
	terms := tokens[:0]
	for _, tok := range tokens {
		if !v.stopWords[tok] {
			terms = append(terms, tok)
		}
	}
	return terms
}

// Fit vectorizes docs with raw term counts, smoothed IDF
// ln((1+n)/(1+df)) + 1 and L2 row normalisation.
func (v *Vectorizer) Fit(docs []string) (*Matrix, error) {
	counts := make([]map[string]int, len(docs))
	df := make(map[string]int)

	for i, doc := range docs {
		counts[i] = make(map[string]int)
		for _, term := range v.Terms(doc) {
			if counts[i][term] == 0 {
				df[term]++
			}
			counts[i][term]++
		}
	}

	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	vocab := make([]string, 0, len(df))
	for term := range df {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for j, term := range vocab {
		idf[j] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	rows := make([][]float64, len(docs))
	for i := range docs {
		row := make([]float64, len(vocab))
		for j, term := range vocab {
			row[j] = float64(counts[i][term]) * idf[j]
		}
		normalize(row)
		rows[i] = row
	}

	return &Matrix{Vocabulary: vocab, IDF: idf, Rows: rows}, nil
}

// Similarity returns the cosine similarity of rows i and j, clamped to [0,1]
func (m *Matrix) Similarity(i, j int) float64 {
	return clamp(Cosine(m.Rows[i], m.Rows[j]))
}

// Cosine computes the cosine similarity of two equal-length vectors.
// Returns 0 for mismatched lengths or zero-magnitude vectors.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0.0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// Pair computes the TF-IDF cosine similarity of two texts in a vector
// space built from just those two documents.
func Pair(a, b string) (float64, error) {
	m, err := NewVectorizer().Fit([]string{a, b})
	if err != nil {
		return 0, err
	}
	return m.Similarity(0, 1), nil
}

// normalize performs in-place L2 normalisation; zero vectors stay zero
func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

func clamp(x float64) float64 {
	switch {
	case math.IsNaN(x) || x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
