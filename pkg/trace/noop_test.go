//go:build !tracing

package trace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewFileExporter_DisabledWritesNothing(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "traces.jsonl")

	exporter, err := NewFileExporter(tracePath, WithMaxSize(1024), WithMaxRotatedFiles(2))
	if err != nil {
		t.Fatalf("NewFileExporter failed: %v", err)
	}
	if _, ok := exporter.(*NoopExporter); !ok {
		t.Fatalf("Expected *NoopExporter without the tracing tag, got %T", exporter)
	}

	record := &TraceRecord{
		Timestamp:   time.Now(),
		OperationID: "op-1",
		Operation:   "build",
		Status:      "success",
	}
	if err := exporter.Export(context.Background(), record); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if err := exporter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(tracePath); !os.IsNotExist(err) {
		t.Errorf("Expected no trace file, stat returned %v", err)
	}
}
