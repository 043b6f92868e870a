// Package similarity builds the dense pairwise cosine similarity matrix of a
// vector space.
//
// The matrix costs O(N²) memory and O(N²·d) time for N vectors with d average
// non-zero dimensions. It suits catalogs of thousands of records; larger
// catalogs need an approximate nearest-neighbor structure instead.
package similarity

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/dan-solli/movierec/pkg/vectorize"
)

// Matrix is an immutable symmetric N×N similarity matrix with values in
// [0, 1]. It is safe for concurrent reads.
type Matrix struct {
	n    int
	data []float64 // row-major
}

// Options configures matrix construction.
type Options struct {
	Workers int // Goroutines computing rows (default: runtime.NumCPU())
}

// Build computes cosine similarity between every pair of vectors.
// The diagonal is 1 for non-zero vectors and 0 for zero vectors.
// Rows are split across workers; each worker fills the upper triangle of
// its rows and mirrors it into the lower triangle.
func Build(ctx context.Context, vectors []vectorize.Vector, opts Options) (*Matrix, error) {
	n := len(vectors)
	m := &Matrix{n: n, data: make([]float64, n*n)}
	if n == 0 {
		return m, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	norms := make([]float64, n)
	for i, v := range vectors {
		norms[i] = v.Norm()
	}

	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				m.fillRow(i, vectors, norms)
			}
		}()
	}

	var err error
feed:
	for i := 0; i < n; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case rows <- i:
		}
	}
	close(rows)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return m, nil
}

// fillRow writes row i from the diagonal rightwards and the matching column.
// Distinct rows touch disjoint cells, so workers need no locking.
func (m *Matrix) fillRow(i int, vectors []vectorize.Vector, norms []float64) {
	if norms[i] > 0 {
		m.data[i*m.n+i] = 1
	}
	for j := i + 1; j < m.n; j++ {
		s := cosine(vectors[i], vectors[j], norms[i], norms[j])
		m.data[i*m.n+j] = s
		m.data[j*m.n+i] = s
	}
}

// Cosine computes the cosine similarity between two sparse vectors, clamped
// to [0, 1]. Returns 0 if either vector is zero.
func Cosine(a, b vectorize.Vector) float64 {
	return cosine(a, b, a.Norm(), b.Norm())
}

func cosine(a, b vectorize.Vector, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	s := a.Dot(b) / (normA * normB)
	// Rounding can push parallel unit vectors just past 1.
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}

// Size returns N.
func (m *Matrix) Size() int {
	return m.n
}

// At returns the similarity of rows i and j.
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.n+j]
}

// Scored pairs a row index with its similarity to a query row.
type Scored struct {
	Index int
	Score float64
}

// Ranked returns every row except row, sorted by similarity to row
// descending. Ties keep ascending row order. skip, if non-nil, drops extra
// rows from the ranking.
func (m *Matrix) Ranked(row int, skip func(int) bool) []Scored {
	out := make([]Scored, 0, m.n)
	base := row * m.n
	for j := 0; j < m.n; j++ {
		if j == row || (skip != nil && skip(j)) {
			continue
		}
		out = append(out, Scored{Index: j, Score: m.data[base+j]})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}
