// Package index builds the immutable lookup structures a catalog is served
// from: the TF-IDF vector space, the similarity matrix, the exact title map
// and the actor and genre sets.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dan-solli/movierec/pkg/catalog"
	"github.com/dan-solli/movierec/pkg/similarity"
	"github.com/dan-solli/movierec/pkg/tokenize"
	"github.com/dan-solli/movierec/pkg/vectorize"
)

// Build stage names reported to Options.OnStage.
const (
	StageVectorize  = "vectorize"
	StageSimilarity = "similarity"
	StageIndex      = "index"
)

// ErrEmptyCatalog indicates that no record survived normalization.
var ErrEmptyCatalog = errors.New("empty catalog: no indexable records")

// Options configures Build.
type Options struct {
	// Workers bounds the goroutines computing similarity rows (default: runtime.NumCPU()).
	Workers int

	// Tokenizer used for the vector space (default: tokenize.New()).
	Tokenizer *tokenize.Tokenizer

	// OnStage, if set, is called after each build stage completes.
	OnStage func(stage string, d time.Duration)
}

// Stats describes a built index.
type Stats struct {
	Records     int `json:"records"`
	Vocabulary  int `json:"vocabulary"`
	Actors      int `json:"actors"`
	Genres      int `json:"genres"`
	ZeroVectors int `json:"zeroVectors"`
}

// Index holds everything the query engine reads. It is immutable once Build
// returns and safe for concurrent use.
type Index struct {
	id      string
	records []catalog.Record
	model   *vectorize.Model
	vectors []vectorize.Vector
	sim     *similarity.Matrix
	byTitle map[string]int // TitleNorm -> row, first seen wins
	actors  []string       // sorted, lowercase
	genres  []string       // sorted, lowercase
	stats   Stats
}

// Build indexes records, which must already be normalized. Records keep
// their catalog order; Record.Row is rewritten to the position in records.
func Build(ctx context.Context, records []catalog.Record, opts Options) (*Index, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}

	idx := &Index{
		id:      uuid.New().String(),
		records: make([]catalog.Record, len(records)),
	}
	copy(idx.records, records)
	for i := range idx.records {
		idx.records[i].Row = i
	}

	docs := make([]string, len(idx.records))
	for i := range idx.records {
		docs[i] = idx.records[i].CombinedText
	}

	start := time.Now()
	model, vectors, err := vectorize.Fit(docs, opts.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("fit vector space: %w", err)
	}
	idx.model = model
	idx.vectors = vectors
	opts.report(StageVectorize, time.Since(start))

	start = time.Now()
	sim, err := similarity.Build(ctx, vectors, similarity.Options{Workers: opts.Workers})
	if err != nil {
		return nil, fmt.Errorf("build similarity matrix: %w", err)
	}
	idx.sim = sim
	opts.report(StageSimilarity, time.Since(start))

	start = time.Now()
	idx.buildLookups()
	opts.report(StageIndex, time.Since(start))

	idx.stats = Stats{
		Records:    len(idx.records),
		Vocabulary: model.Dimensions(),
		Actors:     len(idx.actors),
		Genres:     len(idx.genres),
	}
	for _, v := range vectors {
		if v.IsZero() {
			idx.stats.ZeroVectors++
		}
	}

	return idx, nil
}

func (o Options) report(stage string, d time.Duration) {
	if o.OnStage != nil {
		o.OnStage(stage, d)
	}
}

func (idx *Index) buildLookups() {
	idx.byTitle = make(map[string]int, len(idx.records))
	actors := make(map[string]struct{})
	genres := make(map[string]struct{})

	for i := range idx.records {
		r := &idx.records[i]
		if _, ok := idx.byTitle[r.TitleNorm]; !ok {
			idx.byTitle[r.TitleNorm] = i
		}
		for _, a := range r.Actors {
			actors[strings.ToLower(a)] = struct{}{}
		}
		for _, g := range r.Genres {
			genres[strings.ToLower(g)] = struct{}{}
		}
	}

	idx.actors = sortedKeys(actors)
	idx.genres = sortedKeys(genres)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ID returns the build identifier.
func (idx *Index) ID() string {
	return idx.id
}

// Len returns the number of indexed records.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Record returns the record at row. The pointer must not be modified.
func (idx *Index) Record(row int) *catalog.Record {
	return &idx.records[row]
}

// Lookup resolves a title through the exact title map. The title is
// normalized first, so case and spacing do not matter.
func (idx *Index) Lookup(title string) (int, bool) {
	key := catalog.NormalizeTitle(title)
	if key == "" {
		return 0, false
	}
	row, ok := idx.byTitle[key]
	return row, ok
}

// Actors returns the sorted lowercase actor set.
// The slice is shared; callers must not modify it.
func (idx *Index) Actors() []string {
	return idx.actors
}

// Genres returns the sorted lowercase genre set.
// The slice is shared; callers must not modify it.
func (idx *Index) Genres() []string {
	return idx.genres
}

// HasGenre reports whether genre, case-folded and trimmed, is a known genre token.
func (idx *Index) HasGenre(genre string) bool {
	key := strings.ToLower(strings.TrimSpace(genre))
	i := sort.SearchStrings(idx.genres, key)
	return i < len(idx.genres) && idx.genres[i] == key
}

// Similarity returns the pairwise similarity matrix.
func (idx *Index) Similarity() *similarity.Matrix {
	return idx.sim
}

// Model returns the fitted vector space.
func (idx *Index) Model() *vectorize.Model {
	return idx.model
}

// Vector returns the weighted vector of a row.
func (idx *Index) Vector(row int) vectorize.Vector {
	return idx.vectors[row]
}

// Stats returns build statistics.
func (idx *Index) Stats() Stats {
	return idx.stats
}
