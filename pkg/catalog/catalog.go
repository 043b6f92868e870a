// Package catalog provides movie catalog sources and record normalization.
package catalog

import (
	"context"
	"errors"
	"strings"
)

// Canonical column names. Every source maps its columns onto these.
const (
	ColumnTitle       = "title"
	ColumnRating      = "rating"
	ColumnGenres      = "genres"
	ColumnActors      = "actors"
	ColumnStory       = "story"
	ColumnReleaseDate = "release_date"
)

// columnAliases lists alternative header names seen in exported datasets.
var columnAliases = map[string]string{
	"title_x":     ColumnTitle,
	"imdb_rating": ColumnRating,
}

// ErrUnsupportedFormat indicates an unknown catalog format name.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// RawRecord is one row of a catalog as column name -> raw text.
// Missing columns read as the empty string.
type RawRecord map[string]string

// Get returns the raw text for a canonical column.
func (r RawRecord) Get(column string) string {
	return r[column]
}

// Source loads raw catalog rows.
type Source interface {
	// Load reads every row of the catalog.
	// A missing or unreadable catalog is an error; malformed rows are not.
	Load(ctx context.Context) ([]RawRecord, error)
}

// Record is a normalized movie ready for indexing.
type Record struct {
	Row          int      // Position in the indexed catalog
	Title        string   // Display title
	TitleNorm    string   // Lookup key, see NormalizeTitle
	Story        string   // Free-text synopsis
	GenresRaw    string   // Genre text as loaded
	Genres       []string // Genre tokens
	GenresPretty string   // Genres joined with " | "
	ActorsRaw    string   // Actor text as loaded
	Actors       []string // Actor tokens, original casing
	TopActors    []string // First two actors, title-cased
	Rating       Rating
	ReleaseDate  string // Opaque, never parsed
	CombinedText string // Story, genres and actors: the similarity signal
}

// ActorsTitled returns every actor token title-cased for display.
func (r *Record) ActorsTitled() []string {
	out := make([]string, 0, len(r.Actors))
	for _, a := range r.Actors {
		out = append(out, TitleCase(a))
	}
	return out
}

// canonicalColumn maps a header name to its canonical column name.
func canonicalColumn(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := columnAliases[key]; ok {
		return alias
	}
	return key
}

// assign stores value under column unless a canonical column already holds
// a value from an earlier header. "title" beats "title_x" when both exist.
func (r RawRecord) assign(header, value string) {
	col := canonicalColumn(header)
	if existing, ok := r[col]; ok && existing != "" && col != strings.ToLower(strings.TrimSpace(header)) {
		return
	}
	r[col] = value
}
