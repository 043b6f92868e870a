package movierec

import (
	"context"
	"encoding/csv"
	"errors"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dan-solli/movierec/pkg/catalog"
	"github.com/dan-solli/movierec/pkg/index"
	"github.com/dan-solli/movierec/pkg/vectorize"
)

// Error type constants for classification
const (
	ErrTypeCatalog    = "catalog"
	ErrTypeDatabase   = "database"
	ErrTypeValidation = "validation"
	ErrTypeTimeout    = "timeout"
	ErrTypeUnknown    = "unknown"
)

// ClassifyError inspects an error and returns its type classification.
// This enables grouping errors by category in metrics and traces.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	errStrLower := strings.ToLower(err.Error())

	// Cancellation and deadlines
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		strings.Contains(errStrLower, "timeout") || strings.Contains(errStrLower, "deadline exceeded") {
		return ErrTypeTimeout
	}

	// Configuration and content problems
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) ||
		errors.Is(err, vectorize.ErrEmptyVocabulary) ||
		errors.Is(err, catalog.ErrInvalidTable) {
		return ErrTypeValidation
	}

	// Missing, unreadable or unusable catalog
	var pathErr *fs.PathError
	var parseErr *csv.ParseError
	if errors.As(err, &pathErr) || errors.As(err, &parseErr) ||
		errors.Is(err, catalog.ErrUnsupportedFormat) ||
		errors.Is(err, index.ErrEmptyCatalog) {
		return ErrTypeCatalog
	}

	// Database errors (SQLite specific)
	if strings.Contains(errStrLower, "sql") ||
		strings.Contains(errStrLower, "database") ||
		strings.Contains(errStrLower, "no such table") ||
		strings.Contains(errStrLower, "catalog table") ||
		strings.Contains(errStrLower, "catalog columns") ||
		strings.Contains(errStrLower, "scan catalog") ||
		strings.Contains(errStrLower, "iterate catalog") {
		return ErrTypeDatabase
	}

	if strings.Contains(errStrLower, "read catalog") {
		return ErrTypeCatalog
	}

	// Remaining validation errors
	if strings.Contains(errStrLower, "validation") ||
		strings.Contains(errStrLower, "invalid") ||
		strings.Contains(errStrLower, "required") ||
		strings.Contains(errStrLower, "cannot be empty") ||
		strings.Contains(errStrLower, "must be") {
		return ErrTypeValidation
	}

	// Default to unknown
	return ErrTypeUnknown
}
