package search

import "strings"

// Kind is the intent of a free-text request, decided once by Classify.
type Kind string

const (
	// ByTitle runs the title fallback chain: similarity, then title
	// substring ranked by rating, then actor match.
	ByTitle Kind = "title"

	// ByGenre filters by genre.
	ByGenre Kind = "genre"

	// ByActor filters by actor.
	ByActor Kind = "actor"

	// TopRated lists the highest rated records.
	TopRated Kind = "top-rated"
)

// Stage names the step of Resolve that produced an Outcome.
type Stage string

const (
	StageSimilarity     Stage = "similarity"
	StageTitleSubstring Stage = "title-substring"
	StageActor          Stage = "actor"
	StageGenre          Stage = "genre"
	StageTopRated       Stage = "top-rated"
	StageNone           Stage = "none"
)

// topRatedKeywords are the phrases that ask for the top-rated list.
var topRatedKeywords = map[string]struct{}{
	"top rated":     {},
	"top-rated":     {},
	"toprated":      {},
	"best rated":    {},
	"highest rated": {},
	"top":           {},
}

// Request is a classified query.
type Request struct {
	Kind  Kind
	Text  string
	Limit int // Result cap; non-positive uses the kind's default
}

// Outcome is the answer to a Request.
type Outcome struct {
	Results  []Result `json:"results"`
	Stage    Stage    `json:"stage"`
	NotFound bool     `json:"notFound"`
}

// Classify decides the intent of free text. An exact, case-insensitive match
// of a known genre is ByGenre; a top-rated keyword is TopRated; anything
// else is ByTitle. Internal whitespace runs are collapsed before matching.
func (e *Engine) Classify(text string) Request {
	key := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	switch {
	case key != "" && e.idx.HasGenre(key):
		return Request{Kind: ByGenre, Text: text}
	case isTopRatedKeyword(key):
		return Request{Kind: TopRated, Text: text}
	default:
		return Request{Kind: ByTitle, Text: text}
	}
}

func isTopRatedKeyword(key string) bool {
	_, ok := topRatedKeywords[key]
	return ok
}

// Resolve answers req. For ByTitle each stage runs only when the previous
// one returned nothing. An empty answer is reported as NotFound with
// StageNone, never as an error.
func (e *Engine) Resolve(req Request) Outcome {
	switch req.Kind {
	case ByGenre:
		return outcome(e.MoviesByGenre(req.Text, req.Limit), StageGenre)
	case TopRated:
		return outcome(e.TopRated(req.Limit), StageTopRated)
	case ByActor:
		return outcome(e.MoviesByActor(req.Text), StageActor)
	}

	if res := e.Recommend(req.Text, req.Limit); len(res) > 0 {
		return outcome(res, StageSimilarity)
	}
	if res := e.TitleMatchesByRating(req.Text, req.Limit); len(res) > 0 {
		return outcome(res, StageTitleSubstring)
	}
	return outcome(e.MoviesByActor(req.Text), StageActor)
}

// Answer classifies text and resolves it.
func (e *Engine) Answer(text string, limit int) Outcome {
	req := e.Classify(text)
	req.Limit = limit
	return e.Resolve(req)
}

func outcome(results []Result, stage Stage) Outcome {
	if len(results) == 0 {
		return Outcome{Results: []Result{}, Stage: StageNone, NotFound: true}
	}
	return Outcome{Results: results, Stage: stage}
}
