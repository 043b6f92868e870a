package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	e := newEngine(t, testCatalog())

	tests := []struct {
		name string
		text string
		want Kind
	}{
		{"known genre", "Thriller", ByGenre},
		{"genre with spacing", "  romance ", ByGenre},
		{"partial genre is a title", "thrill", ByTitle},
		{"top rated", "top rated", TopRated},
		{"top rated mixed case", "TOP   Rated", TopRated},
		{"hyphenated", "top-rated", TopRated},
		{"joined", "toprated", TopRated},
		{"best rated", "best rated", TopRated},
		{"highest rated", "highest rated", TopRated},
		{"top", "top", TopRated},
		{"title", "Heat", ByTitle},
		{"empty", "", ByTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := e.Classify(tt.text)
			assert.Equal(t, tt.want, req.Kind)
			assert.Equal(t, tt.text, req.Text)
		})
	}
}

func TestResolve_TitleChain(t *testing.T) {
	e := newEngine(t, testCatalog())

	tests := []struct {
		name       string
		text       string
		wantStage  Stage
		wantTitles []string
	}{
		{"exact title uses similarity", "heat", StageSimilarity, nil},
		{"partial title ranked by rating", "hea", StageTitleSubstring, []string{"Heat", "Heat Wave"}},
		{"actor name", "hanks", StageActor, []string{"Sleepless in Seattle", "You've Got Mail"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Resolve(Request{Kind: ByTitle, Text: tt.text, Limit: 3})
			assert.Equal(t, tt.wantStage, out.Stage)
			assert.False(t, out.NotFound)
			require.NotEmpty(t, out.Results)
			if tt.wantTitles != nil {
				assert.Equal(t, tt.wantTitles, titles(out.Results))
			}
		})
	}
}

func TestResolve_SimilarityExcludesQuery(t *testing.T) {
	e := newEngine(t, testCatalog())

	out := e.Resolve(Request{Kind: ByTitle, Text: "Heat", Limit: 2})
	require.Equal(t, StageSimilarity, out.Stage)
	assert.Len(t, out.Results, 2)
	assert.NotContains(t, titles(out.Results), "Heat")
	assert.Greater(t, score(t, out.Results[0]), 0.0)
}

func TestResolve_NotFound(t *testing.T) {
	e := newEngine(t, testCatalog())

	out := e.Resolve(Request{Kind: ByTitle, Text: "zzz"})
	assert.True(t, out.NotFound)
	assert.Equal(t, StageNone, out.Stage)
	assert.NotNil(t, out.Results)
	assert.Empty(t, out.Results)

	out = e.Resolve(Request{Kind: ByGenre, Text: "western"})
	assert.True(t, out.NotFound)
	assert.Equal(t, StageNone, out.Stage)
}

func TestResolve_DirectKinds(t *testing.T) {
	e := newEngine(t, testCatalog())

	out := e.Resolve(Request{Kind: ByGenre, Text: "thriller", Limit: 10})
	assert.Equal(t, StageGenre, out.Stage)
	assert.Equal(t, []string{"Heat", "Ronin"}, titles(out.Results))

	out = e.Resolve(Request{Kind: TopRated, Limit: 2})
	assert.Equal(t, StageTopRated, out.Stage)
	assert.Equal(t, []string{"Heat", "Ronin"}, titles(out.Results))

	out = e.Resolve(Request{Kind: ByActor, Text: "meg"})
	assert.Equal(t, StageActor, out.Stage)
	assert.Equal(t, []string{"Sleepless in Seattle", "You've Got Mail"}, titles(out.Results))
}

func TestAnswer(t *testing.T) {
	e := newEngine(t, testCatalog())

	out := e.Answer("Crime", 1)
	assert.Equal(t, StageGenre, out.Stage)
	assert.Equal(t, []string{"Heat"}, titles(out.Results))

	out = e.Answer("best rated", 1)
	assert.Equal(t, StageTopRated, out.Stage)
	assert.Equal(t, []string{"Heat"}, titles(out.Results))

	out = e.Answer("Ronin", 1)
	assert.Equal(t, StageSimilarity, out.Stage)
	assert.Equal(t, []string{"Heat"}, titles(out.Results))
}
