// Package vectorize fits a TF-IDF vector space over a text corpus.
package vectorize

import (
	"errors"
	"math"
	"sort"

	"github.com/dan-solli/movierec/pkg/tokenize"
)

// ErrEmptyVocabulary indicates that no document kept a single term after
// tokenization and stop-word removal.
var ErrEmptyVocabulary = errors.New("empty vocabulary: every document is empty after stop-word removal")

// Model is a fitted TF-IDF weighting: tf is the raw term count,
// idf(t) = ln((1+N)/(1+df(t))) + 1, and vectors are L2-normalized.
// A Model is immutable after Fit and safe for concurrent use.
type Model struct {
	vocabulary map[string]int // term -> dimension
	terms      []string       // dimension -> term, sorted
	idf        []float64      // dimension -> idf
	tokenizer  *tokenize.Tokenizer
}

// Fit builds the vocabulary and idf weights over docs and returns the model
// with one vector per document, in document order.
func Fit(docs []string, tok *tokenize.Tokenizer) (*Model, []Vector, error) {
	if tok == nil {
		tok = tokenize.New()
	}

	counts := make([]map[string]int, len(docs))
	docFreq := make(map[string]int)
	for i, doc := range docs {
		counts[i] = tok.Counts(doc)
		for term := range counts[i] {
			docFreq[term]++
		}
	}
	if len(docFreq) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	m := &Model{
		vocabulary: make(map[string]int, len(terms)),
		terms:      terms,
		idf:        make([]float64, len(terms)),
		tokenizer:  tok,
	}
	n := float64(len(docs))
	for dim, term := range terms {
		m.vocabulary[term] = dim
		m.idf[dim] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors := make([]Vector, len(docs))
	for i := range docs {
		vectors[i] = m.weigh(counts[i])
	}
	return m, vectors, nil
}

// Transform projects text into the fitted space. Terms outside the
// vocabulary are ignored.
func (m *Model) Transform(text string) Vector {
	return m.weigh(m.tokenizer.Counts(text))
}

// Dimensions returns the vocabulary size.
func (m *Model) Dimensions() int {
	return len(m.terms)
}

// Term returns the term for a dimension.
func (m *Model) Term(dim int) string {
	return m.terms[dim]
}

// Dimension returns the dimension of term, if it is in the vocabulary.
func (m *Model) Dimension(term string) (int, bool) {
	dim, ok := m.vocabulary[term]
	return dim, ok
}

// IDF returns the inverse document frequency weight of a dimension.
func (m *Model) IDF(dim int) float64 {
	return m.idf[dim]
}

// weigh converts term counts into a normalized sparse vector.
func (m *Model) weigh(counts map[string]int) Vector {
	v := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for term := range counts {
		if dim, ok := m.vocabulary[term]; ok {
			v.Indices = append(v.Indices, dim)
		}
	}
	sort.Ints(v.Indices)
	for _, dim := range v.Indices {
		v.Values = append(v.Values, float64(counts[m.terms[dim]])*m.idf[dim])
	}
	return v.Normalized()
}
