package search

import (
	"strings"

	"github.com/dan-solli/movierec/pkg/catalog"
)

// SearchTitles returns up to limit display titles whose normalized form
// contains the normalized query, in catalog order.
func (e *Engine) SearchTitles(query string, limit int) []string {
	q := catalog.NormalizeTitle(query)
	if q == "" {
		return []string{}
	}
	limit = applyLimit(limit, DefaultLimit)

	out := make([]string, 0, limit)
	for row := 0; row < e.idx.Len() && len(out) < limit; row++ {
		r := e.idx.Record(row)
		if strings.Contains(r.TitleNorm, q) {
			out = append(out, r.Title)
		}
	}
	return out
}

// SearchActors returns up to limit title-cased actor names containing the
// case-folded query, in sorted order.
func (e *Engine) SearchActors(query string, limit int) []string {
	return matchSet(e.idx.Actors(), query, applyLimit(limit, DefaultLimit))
}

// SearchGenres returns up to limit title-cased genre names containing the
// case-folded query, in sorted order.
func (e *Engine) SearchGenres(query string, limit int) []string {
	return matchSet(e.idx.Genres(), query, applyLimit(limit, DefaultLimit))
}

// Search is autocomplete: title matches, then actor matches, then genre
// matches, truncated to limit.
func (e *Engine) Search(query string, limit int) []string {
	limit = applyLimit(limit, DefaultLimit)

	out := e.SearchTitles(query, limit)
	out = append(out, e.SearchActors(query, limit)...)
	out = append(out, e.SearchGenres(query, limit)...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// matchSet scans a sorted lowercase set for entries containing query.
func matchSet(set []string, query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []string{}
	}

	out := make([]string, 0)
	for _, s := range set {
		if len(out) >= limit {
			break
		}
		if strings.Contains(s, q) {
			out = append(out, catalog.TitleCase(s))
		}
	}
	return out
}
