package movierec

import (
	"time"

	"github.com/dan-solli/movierec/pkg/trace"
)

// OperationTrace captures timing data for an index build or a query.
type OperationTrace struct {
	// Spans contains timing data for each stage of the operation
	Spans []Span `json:"spans"`

	// TotalDurationMs is the total elapsed time for the operation in milliseconds
	TotalDurationMs int64 `json:"totalDurationMs"`
}

// Span represents a single timed stage within an operation.
// Stage names are stable:
//   - "load": Reading the catalog source
//   - "normalize": Field cleanup and row exclusion
//   - "vectorize": TF-IDF fitting
//   - "similarity": Pairwise similarity matrix
//   - "index": Title, actor and genre lookups
//   - "query": Answering one request
type Span struct {
	// Name identifies the operation stage (see Span documentation for stable names)
	Name string `json:"name"`

	// DurationMs is the elapsed time for this span in milliseconds
	DurationMs int64 `json:"durationMs"`

	// OK indicates whether the span completed successfully
	OK bool `json:"ok"`

	// Error contains error message if OK is false (optional)
	Error string `json:"error,omitempty"`

	// Counters provides additional metrics for the span (optional)
	// Example keys: "records", "dropped", "vocabulary", "results"
	Counters map[string]int64 `json:"counters,omitempty"`
}

// Span names
const (
	spanLoad       = "load"
	spanNormalize  = "normalize"
	spanVectorize  = "vectorize"
	spanSimilarity = "similarity"
	spanIndex      = "index"
	spanQuery      = "query"
)

// newTrace creates a new OperationTrace with empty spans
func newTrace() *OperationTrace {
	return &OperationTrace{
		Spans: make([]Span, 0),
	}
}

// addSpan appends a completed span to the trace
func (t *OperationTrace) addSpan(span Span) {
	t.Spans = append(t.Spans, span)
	t.TotalDurationMs += span.DurationMs
}

// record converts the trace into an exportable record.
// Span errors are reduced to their classification.
func (t *OperationTrace) record(operation, operationID string, start time.Time, opErr error) *trace.TraceRecord {
	rec := &trace.TraceRecord{
		Timestamp:   start,
		OperationID: operationID,
		Operation:   operation,
		DurationMs:  time.Since(start).Milliseconds(),
		Status:      "success",
		Spans:       make([]trace.SpanRecord, 0, len(t.Spans)),
	}
	if opErr != nil {
		rec.Status = "error"
		rec.ErrorType = ClassifyError(opErr)
	}
	for _, s := range t.Spans {
		sr := trace.SpanRecord{
			Name:       s.Name,
			DurationMs: s.DurationMs,
			OK:         s.OK,
			Counters:   s.Counters,
		}
		if !s.OK {
			sr.ErrorType = rec.ErrorType
		}
		rec.Spans = append(rec.Spans, sr)
	}
	return rec
}

// spanTimer is a helper for measuring span duration
type spanTimer struct {
	name    string
	start   time.Time
	trace   *OperationTrace
	enabled bool
}

// newSpanTimer creates a timer for a named span
func newSpanTimer(name string, trace *OperationTrace, enabled bool) *spanTimer {
	if !enabled || trace == nil {
		return &spanTimer{enabled: false}
	}
	return &spanTimer{
		name:    name,
		start:   time.Now(),
		trace:   trace,
		enabled: true,
	}
}

// finish completes the span and records it to the trace
func (st *spanTimer) finish(ok bool, err error, counters map[string]int64) {
	if !st.enabled {
		return
	}

	span := Span{
		Name:       st.name,
		DurationMs: time.Since(st.start).Milliseconds(),
		OK:         ok,
		Counters:   counters,
	}
	if err != nil {
		span.Error = err.Error()
	}
	st.trace.addSpan(span)
}
