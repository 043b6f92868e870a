// Package search provides the query operations served from a movie index.
package search

import (
	"github.com/dan-solli/movierec/pkg/catalog"
	"github.com/dan-solli/movierec/pkg/index"
)

// Default result counts applied to non-positive limits.
const (
	DefaultLimit = 10
	DefaultTopN  = 5
)

// Result is one movie in a recommendation or filter response.
type Result struct {
	Title       string   `json:"title"`
	Rating      string   `json:"rating"`     // Empty when missing
	Actors      []string `json:"actors"`     // Every actor, title-cased
	TopActors   []string `json:"top_actors"` // First two actors, for headlines
	Genre       string   `json:"genre"`      // Genres joined with " | "
	ReleaseDate string   `json:"release_date"`
	Story       string   `json:"story"`
	// Score is the similarity to the query. Set only on similarity results,
	// where 0 is a real score.
	Score *float64 `json:"score,omitempty"`
}

// Engine answers queries against an immutable index.
// All methods are safe for concurrent use.
type Engine struct {
	idx *index.Index
}

// NewEngine creates an engine over idx.
func NewEngine(idx *index.Index) *Engine {
	return &Engine{idx: idx}
}

// Index returns the underlying index.
func (e *Engine) Index() *index.Index {
	return e.idx
}

func newResult(r *catalog.Record) Result {
	return Result{
		Title:       r.Title,
		Rating:      r.Rating.Text,
		Actors:      r.ActorsTitled(),
		TopActors:   r.TopActors,
		Genre:       r.GenresPretty,
		ReleaseDate: r.ReleaseDate,
		Story:       r.Story,
	}
}

func scoredResult(r *catalog.Record, score float64) Result {
	res := newResult(r)
	res.Score = &score
	return res
}

func applyLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}
