// Package movierec provides a content-based movie recommendation and search
// index built once from a static catalog.
package movierec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dan-solli/movierec/pkg/catalog"
	"github.com/dan-solli/movierec/pkg/index"
	"github.com/dan-solli/movierec/pkg/metrics"
	"github.com/dan-solli/movierec/pkg/search"
	"github.com/dan-solli/movierec/pkg/trace"
)

// Operation names used in metrics and traces.
const (
	OpBuild     = "build"
	OpSearch    = "search"
	OpSimilar   = "similar"
	OpText      = "text"
	OpActor     = "actor"
	OpGenre     = "genre"
	OpTopRated  = "top-rated"
	OpRecommend = "recommend"
)

// Config holds configuration for a Recommender
type Config struct {
	// CatalogPath is the CSV file or SQLite database to load.
	CatalogPath string

	// CatalogFormat is "csv", "sqlite", or "" to infer from the file extension.
	CatalogFormat string

	// SQLiteDriver selects the database/sql driver (default: "sqlite", pure Go).
	SQLiteDriver string

	// SQLiteTable is the table holding the catalog (default: "movies").
	SQLiteTable string

	// Source overrides CatalogPath with an already configured source.
	Source catalog.Source

	// TopN is the default similarity result count (default: 5).
	TopN int

	// SearchLimit is the default result count for search and filters (default: 10).
	SearchLimit int

	// Workers bounds similarity matrix goroutines (default: runtime.NumCPU()).
	Workers int

	// Logger receives build and drop logs. Nil discards them.
	Logger *slog.Logger

	// Metrics receives operation metrics. Nil records nothing.
	Metrics metrics.Collector

	// TraceExporter receives one record per operation. Nil disables query tracing.
	TraceExporter trace.Exporter
}

// Stats describes a built Recommender.
type Stats struct {
	BuildID         string                 `json:"buildId"`
	Catalog         catalog.NormalizeStats `json:"catalog"`
	Index           index.Stats            `json:"index"`
	BuildDurationMs int64                  `json:"buildDurationMs"`
}

// Recommender is the main entry point: an immutable index plus the query
// engine over it. All query methods are safe for concurrent use.
type Recommender struct {
	config  Config
	engine  *search.Engine
	stats   Stats
	build   *OperationTrace
	logger  *slog.Logger
	metrics metrics.Collector
	tracer  trace.Exporter
}

// New loads the catalog, normalizes it and builds the index. A missing or
// unreadable catalog, or a catalog with no usable text, is an error and no
// Recommender is returned.
func New(ctx context.Context, cfg Config) (*Recommender, error) {
	// Apply defaults
	if cfg.TopN <= 0 {
		cfg.TopN = search.DefaultTopN
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = search.DefaultLimit
	}

	r := &Recommender{
		config:  cfg,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.TraceExporter,
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.metrics == nil {
		r.metrics = noopMetrics{}
	}

	if err := r.buildIndex(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// WithLogger replaces the logger and returns r for chaining.
func (r *Recommender) WithLogger(logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r.logger = logger
	return r
}

func (r *Recommender) buildIndex(ctx context.Context) (err error) {
	start := time.Now()
	operationID := uuid.New().String()
	tr := newTrace()
	r.build = tr

	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			r.metrics.RecordError(ctx, OpBuild, ClassifyError(err))
			r.logger.Error("index build failed",
				"operation_id", operationID,
				"error_type", ClassifyError(err),
				"error", err)
		}
		r.metrics.RecordOperation(ctx, OpBuild, status, time.Since(start).Milliseconds())
		r.export(ctx, tr.record(OpBuild, operationID, start, err), r.stats.BuildID)
	}()

	// Load
	timer := newSpanTimer(spanLoad, tr, true)
	raw, err := r.load(ctx)
	timer.finish(err == nil, err, map[string]int64{"rows": int64(len(raw))})
	r.metrics.RecordStage(ctx, OpBuild, spanLoad, lastSpanMs(tr))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// Normalize
	timer = newSpanTimer(spanNormalize, tr, true)
	records, nstats := catalog.Normalize(raw)
	timer.finish(true, nil, map[string]int64{
		"kept":    int64(nstats.Kept),
		"dropped": int64(nstats.Dropped()),
	})
	r.metrics.RecordStage(ctx, OpBuild, spanNormalize, lastSpanMs(tr))
	if nstats.Dropped() > 0 {
		r.logger.Debug("catalog rows excluded",
			"operation_id", operationID,
			"empty_title", nstats.EmptyTitle,
			"duplicate_title", nstats.DuplicateTitle,
			"empty_text", nstats.EmptyText)
	}

	// Vectorize, similarity, lookups
	idx, err := index.Build(ctx, records, index.Options{
		Workers: r.config.Workers,
		OnStage: func(stage string, d time.Duration) {
			tr.addSpan(Span{Name: stage, DurationMs: d.Milliseconds(), OK: true})
			r.metrics.RecordStage(ctx, OpBuild, stage, d.Milliseconds())
		},
	})
	if err != nil {
		tr.addSpan(Span{Name: failedStage(tr, err), OK: false, Error: err.Error()})
		return fmt.Errorf("build index: %w", err)
	}

	r.engine = search.NewEngine(idx)
	r.stats = Stats{
		BuildID:         idx.ID(),
		Catalog:         nstats,
		Index:           idx.Stats(),
		BuildDurationMs: time.Since(start).Milliseconds(),
	}

	r.metrics.SetCatalogCount(ctx, "records", int64(r.stats.Index.Records))
	r.metrics.SetCatalogCount(ctx, "dropped", int64(nstats.Dropped()))
	r.metrics.SetCatalogCount(ctx, "vocabulary", int64(r.stats.Index.Vocabulary))
	r.metrics.SetCatalogCount(ctx, "actors", int64(r.stats.Index.Actors))
	r.metrics.SetCatalogCount(ctx, "genres", int64(r.stats.Index.Genres))

	r.logger.Info("index built",
		"operation_id", operationID,
		"build_id", r.stats.BuildID,
		"rows", nstats.Raw,
		"records", r.stats.Index.Records,
		"dropped", nstats.Dropped(),
		"vocabulary", r.stats.Index.Vocabulary,
		"actors", r.stats.Index.Actors,
		"genres", r.stats.Index.Genres,
		"duration_ms", r.stats.BuildDurationMs)
	return nil
}

func (r *Recommender) load(ctx context.Context) ([]catalog.RawRecord, error) {
	if r.config.Source != nil {
		return r.config.Source.Load(ctx)
	}

	src, closer, err := catalog.Open(catalog.OpenOptions{
		Path:   r.config.CatalogPath,
		Format: r.config.CatalogFormat,
		Driver: r.config.SQLiteDriver,
		Table:  r.config.SQLiteTable,
	})
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return src.Load(ctx)
}

// failedStage names the index stage that did not report completion.
func failedStage(tr *OperationTrace, err error) string {
	if errors.Is(err, index.ErrEmptyCatalog) {
		return spanIndex
	}
	switch tr.Spans[len(tr.Spans)-1].Name {
	case spanNormalize:
		return spanVectorize
	case spanVectorize:
		return spanSimilarity
	default:
		return spanIndex
	}
}

func lastSpanMs(tr *OperationTrace) int64 {
	if len(tr.Spans) == 0 {
		return 0
	}
	return tr.Spans[len(tr.Spans)-1].DurationMs
}

// export hands a trace record to the exporter, if any. Export failures are
// logged and never fail the operation.
func (r *Recommender) export(ctx context.Context, rec *trace.TraceRecord, buildID string) {
	if r.tracer == nil {
		return
	}
	if buildID != "" {
		rec.IDs = map[string]interface{}{"buildId": buildID}
	}
	if err := r.tracer.Export(ctx, rec); err != nil {
		r.logger.Warn("trace export failed", "operation", rec.Operation, "error", err)
	}
}

// observe records metrics and the optional trace for a query.
func (r *Recommender) observe(ctx context.Context, operation string, start time.Time, results int) {
	elapsed := time.Since(start).Milliseconds()
	r.metrics.RecordOperation(ctx, operation, "success", elapsed)
	r.metrics.RecordStage(ctx, operation, spanQuery, elapsed)

	if r.tracer == nil {
		return
	}
	tr := newTrace()
	tr.addSpan(Span{
		Name:       spanQuery,
		DurationMs: elapsed,
		OK:         true,
		Counters:   map[string]int64{"results": int64(results)},
	})
	r.export(ctx, tr.record(operation, uuid.New().String(), start, nil), r.stats.BuildID)
}

// Search returns autocomplete suggestions: matching titles, then actors,
// then genres. A non-positive limit uses the configured SearchLimit.
func (r *Recommender) Search(ctx context.Context, query string, limit int) []string {
	start := time.Now()
	out := r.engine.Search(query, r.limit(limit))
	r.observe(ctx, OpSearch, start, len(out))
	return out
}

// RecommendBySimilarity returns up to topN titles most similar to the exact
// title. A non-positive topN uses the configured TopN.
func (r *Recommender) RecommendBySimilarity(ctx context.Context, title string, topN int) []Result {
	start := time.Now()
	if topN <= 0 {
		topN = r.config.TopN
	}
	out := r.engine.Recommend(title, topN)
	r.observe(ctx, OpSimilar, start, len(out))
	return out
}

// RecommendByText returns up to topN titles most similar to a free-text
// description. A non-positive topN uses the configured TopN.
func (r *Recommender) RecommendByText(ctx context.Context, text string, topN int) []Result {
	start := time.Now()
	if topN <= 0 {
		topN = r.config.TopN
	}
	out := r.engine.RecommendByText(text, topN)
	r.observe(ctx, OpText, start, len(out))
	return out
}

// RecommendByActor returns every movie with an actor matching name.
func (r *Recommender) RecommendByActor(ctx context.Context, name string) []Result {
	start := time.Now()
	out := r.engine.MoviesByActor(name)
	r.observe(ctx, OpActor, start, len(out))
	return out
}

// RecommendByGenre returns up to limit movies with a genre matching genre.
func (r *Recommender) RecommendByGenre(ctx context.Context, genre string, limit int) []Result {
	start := time.Now()
	out := r.engine.MoviesByGenre(genre, r.limit(limit))
	r.observe(ctx, OpGenre, start, len(out))
	return out
}

// TopRated returns up to limit movies by rating, highest first.
func (r *Recommender) TopRated(ctx context.Context, limit int) []Result {
	start := time.Now()
	out := r.engine.TopRated(r.limit(limit))
	r.observe(ctx, OpTopRated, start, len(out))
	return out
}

// Recommend classifies free text and runs the fallback chain: genre or
// top-rated keywords answer directly; anything else tries exact-title
// similarity, then partial titles ranked by rating, then actors.
func (r *Recommender) Recommend(ctx context.Context, text string) Outcome {
	start := time.Now()
	req := r.engine.Classify(text)
	req.Limit = r.config.SearchLimit
	if req.Kind == search.ByTitle {
		req.Limit = r.config.TopN
	}
	out := r.engine.Resolve(req)
	r.observe(ctx, OpRecommend, start, len(out.Results))
	r.logger.Debug("recommend resolved",
		"kind", string(req.Kind),
		"stage", string(out.Stage),
		"results", len(out.Results))
	return out
}

// Resolve answers an already classified request.
func (r *Recommender) Resolve(ctx context.Context, req Request) Outcome {
	start := time.Now()
	out := r.engine.Resolve(req)
	r.observe(ctx, OpRecommend, start, len(out.Results))
	return out
}

// Stats returns build statistics.
func (r *Recommender) Stats() Stats {
	return r.stats
}

// ID returns the build identifier.
func (r *Recommender) ID() string {
	return r.stats.BuildID
}

// BuildTrace returns the timing spans of the index build.
func (r *Recommender) BuildTrace() *OperationTrace {
	return r.build
}

// Engine returns the underlying query engine.
func (r *Recommender) Engine() *search.Engine {
	return r.engine
}

// Close releases the trace exporter.
func (r *Recommender) Close() error {
	if r.tracer == nil {
		return nil
	}
	return r.tracer.Close()
}

func (r *Recommender) limit(limit int) int {
	if limit <= 0 {
		return r.config.SearchLimit
	}
	return limit
}

// noopMetrics is used when Config.Metrics is nil. metrics.NoopCollector is
// only compiled without the metrics build tag.
type noopMetrics struct{}

func (noopMetrics) RecordOperation(context.Context, string, string, int64) {}
func (noopMetrics) RecordStage(context.Context, string, string, int64)     {}
func (noopMetrics) RecordError(context.Context, string, string)            {}
func (noopMetrics) SetCatalogCount(context.Context, string, int64)         {}
