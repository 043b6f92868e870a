package movierec

import (
	"github.com/dan-solli/movierec/pkg/search"
)

// Type re-exports for caller convenience

// Result is re-exported from search package
type Result = search.Result

// Outcome is re-exported from search package
type Outcome = search.Outcome

// Request is re-exported from search package
type Request = search.Request

// Kind is re-exported from search package
type Kind = search.Kind

// Stage is re-exported from search package
type Stage = search.Stage

// Kind constants re-exported from search package
const (
	ByTitle  = search.ByTitle
	ByGenre  = search.ByGenre
	ByActor  = search.ByActor
	TopRated = search.TopRated
)
