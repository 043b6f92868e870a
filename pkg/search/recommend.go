package search

import (
	"sort"
	"strings"

	"github.com/dan-solli/movierec/pkg/catalog"
	"github.com/dan-solli/movierec/pkg/similarity"
)

// Recommend resolves title through the exact title index and returns up to
// topN other records ranked by content similarity, most similar first.
// Ties keep catalog order. Records sharing the title's normalized form are
// never returned. An unknown title yields an empty result.
func (e *Engine) Recommend(title string, topN int) []Result {
	row, ok := e.idx.Lookup(title)
	if !ok {
		return []Result{}
	}
	topN = applyLimit(topN, DefaultTopN)
	self := e.idx.Record(row).TitleNorm

	ranked := e.idx.Similarity().Ranked(row, func(j int) bool {
		return e.idx.Record(j).TitleNorm == self
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return e.scoredResults(ranked)
}

// RecommendByText projects free text into the fitted vector space and
// returns up to topN records ranked by similarity to it, most similar first.
// Ties keep catalog order. Records with no shared term are not returned, so
// text without a known term yields an empty result.
func (e *Engine) RecommendByText(text string, topN int) []Result {
	q := e.idx.Model().Transform(text)
	if q.IsZero() {
		return []Result{}
	}
	topN = applyLimit(topN, DefaultTopN)

	var ranked []similarity.Scored
	for row := 0; row < e.idx.Len(); row++ {
		if s := similarity.Cosine(q, e.idx.Vector(row)); s > 0 {
			ranked = append(ranked, similarity.Scored{Index: row, Score: s})
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return e.scoredResults(ranked)
}

func (e *Engine) scoredResults(ranked []similarity.Scored) []Result {
	out := make([]Result, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, scoredResult(e.idx.Record(s.Index), s.Score))
	}
	return out
}

// MoviesByActor returns every record with an actor token containing the
// case-folded name, in catalog order. Matching is per token, not over the
// joined actor text, but short names still match inside longer ones.
func (e *Engine) MoviesByActor(name string) []Result {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return []Result{}
	}
	return e.filter(-1, func(r *catalog.Record) bool {
		return anyContains(r.Actors, q)
	})
}

// MoviesByGenre returns up to limit records with a genre token containing
// the case-folded genre, in catalog order.
func (e *Engine) MoviesByGenre(genre string, limit int) []Result {
	q := strings.ToLower(strings.TrimSpace(genre))
	if q == "" {
		return []Result{}
	}
	return e.filter(applyLimit(limit, DefaultLimit), func(r *catalog.Record) bool {
		return anyContains(r.Genres, q)
	})
}

// TopRated returns up to limit records by rating, highest first.
// Records without a numeric rating sort last; ties keep catalog order.
func (e *Engine) TopRated(limit int) []Result {
	rows := make([]int, e.idx.Len())
	for i := range rows {
		rows[i] = i
	}
	return e.byRating(rows, applyLimit(limit, DefaultLimit))
}

// TitleMatchesByRating returns up to limit records whose normalized title
// contains the normalized query, ranked by rating, highest first.
func (e *Engine) TitleMatchesByRating(query string, limit int) []Result {
	q := catalog.NormalizeTitle(query)
	if q == "" {
		return []Result{}
	}
	var rows []int
	for row := 0; row < e.idx.Len(); row++ {
		if strings.Contains(e.idx.Record(row).TitleNorm, q) {
			rows = append(rows, row)
		}
	}
	return e.byRating(rows, applyLimit(limit, DefaultLimit))
}

// filter collects matching records in catalog order. A negative limit
// means no cap.
func (e *Engine) filter(limit int, match func(*catalog.Record) bool) []Result {
	out := make([]Result, 0)
	for row := 0; row < e.idx.Len(); row++ {
		if limit >= 0 && len(out) >= limit {
			break
		}
		r := e.idx.Record(row)
		if match(r) {
			out = append(out, newResult(r))
		}
	}
	return out
}

func (e *Engine) byRating(rows []int, limit int) []Result {
	sort.SliceStable(rows, func(a, b int) bool {
		return e.idx.Record(rows[a]).Rating.Less(e.idx.Record(rows[b]).Rating)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, newResult(e.idx.Record(row)))
	}
	return out
}

func anyContains(tokens []string, q string) bool {
	for _, t := range tokens {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
