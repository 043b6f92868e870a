package movierec

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// captureHandler is a slog.Handler that captures log records for test assertions
type captureHandler struct {
	records []slog.Record
	mu      sync.Mutex
}

func newCaptureHandler() *captureHandler {
	return &captureHandler{
		records: make([]slog.Record, 0),
	}
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *captureHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *captureHandler) getRecords() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]slog.Record, len(h.records))
	copy(result, h.records)
	return result
}

func (h *captureHandler) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = h.records[:0]
}

func findRecord(records []slog.Record, msg string) (slog.Record, bool) {
	for _, r := range records {
		if r.Message == msg {
			return r, true
		}
	}
	return slog.Record{}, false
}

func attrs(r slog.Record) map[string]slog.Value {
	out := make(map[string]slog.Value)
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value
		return true
	})
	return out
}

// TestNew_NilLoggerSafe verifies building and querying with no logger does not panic
func TestNew_NilLoggerSafe(t *testing.T) {
	r := newTestRecommender(t, Config{})
	ctx := context.Background()

	r.Search(ctx, "heat", 5)
	r.Recommend(ctx, "zzz")
	r.WithLogger(nil).Recommend(ctx, "heat")
}

// TestWithLogger_Injection verifies WithLogger returns same instance (fluent pattern)
func TestWithLogger_Injection(t *testing.T) {
	r := newTestRecommender(t, Config{})

	handler := newCaptureHandler()
	returned := r.WithLogger(slog.New(handler))
	if returned != r {
		t.Errorf("WithLogger() should return same instance for method chaining")
	}

	r.Recommend(context.Background(), "Heat")
	if _, ok := findRecord(handler.getRecords(), "recommend resolved"); !ok {
		t.Errorf("Expected recommend log after WithLogger(), got none")
	}
}

// TestNew_LogsBuildSummary verifies one Info record with counts after build
func TestNew_LogsBuildSummary(t *testing.T) {
	handler := newCaptureHandler()
	r := newTestRecommender(t, Config{Logger: slog.New(handler)})

	rec, ok := findRecord(handler.getRecords(), "index built")
	if !ok {
		t.Fatalf("Expected 'index built' log, got %d records", len(handler.getRecords()))
	}
	if rec.Level != slog.LevelInfo {
		t.Errorf("Expected Info level, got %v", rec.Level)
	}

	a := attrs(rec)
	if got := a["records"].Int64(); got != 4 {
		t.Errorf("Expected records=4, got %d", got)
	}
	if got := a["dropped"].Int64(); got != 2 {
		t.Errorf("Expected dropped=2, got %d", got)
	}
	if got := a["build_id"].String(); got != r.ID() {
		t.Errorf("Expected build_id=%s, got %s", r.ID(), got)
	}
	for _, key := range []string{"vocabulary", "actors", "genres", "duration_ms", "operation_id"} {
		if _, ok := a[key]; !ok {
			t.Errorf("Expected attribute %q in build log", key)
		}
	}
}

// TestNew_LogsDropsAtDebug verifies excluded rows are reported at debug level by reason
func TestNew_LogsDropsAtDebug(t *testing.T) {
	handler := newCaptureHandler()
	newTestRecommender(t, Config{Logger: slog.New(handler)})

	rec, ok := findRecord(handler.getRecords(), "catalog rows excluded")
	if !ok {
		t.Fatal("Expected 'catalog rows excluded' log")
	}
	if rec.Level != slog.LevelDebug {
		t.Errorf("Expected Debug level, got %v", rec.Level)
	}
	a := attrs(rec)
	if a["empty_title"].Int64() != 1 || a["duplicate_title"].Int64() != 1 || a["empty_text"].Int64() != 0 {
		t.Errorf("Unexpected drop counts: %v", a)
	}
}

// TestNew_LogsFailure verifies a failed build logs its classification
func TestNew_LogsFailure(t *testing.T) {
	handler := newCaptureHandler()
	_, err := New(context.Background(), Config{
		CatalogPath: filepath.Join(t.TempDir(), "missing.csv"),
		Logger:      slog.New(handler),
	})
	if err == nil {
		t.Fatal("Expected error for missing catalog")
	}

	rec, ok := findRecord(handler.getRecords(), "index build failed")
	if !ok {
		t.Fatal("Expected 'index build failed' log")
	}
	if got := attrs(rec)["error_type"].String(); got != ErrTypeCatalog {
		t.Errorf("Expected error_type=%s, got %s", ErrTypeCatalog, got)
	}
}

// TestLogs_NoStoryText verifies no log attribute carries catalog story content
func TestLogs_NoStoryText(t *testing.T) {
	handler := newCaptureHandler()
	r := newTestRecommender(t, Config{Logger: slog.New(handler)})
	ctx := context.Background()

	handler.reset()
	r.Recommend(ctx, "Heat")
	r.Recommend(ctx, "thriller")

	data, err := os.ReadFile(writeCatalog(t))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "briefcase") {
		t.Fatal("fixture changed: expected story text in catalog")
	}

	for _, rec := range handler.getRecords() {
		rec.Attrs(func(a slog.Attr) bool {
			if strings.Contains(a.Value.String(), "briefcase") {
				t.Errorf("log %q attribute %q leaks story text", rec.Message, a.Key)
			}
			return true
		})
	}
}
