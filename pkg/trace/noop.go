//go:build !tracing

package trace

// NewFileExporter returns a no-op exporter when tracing is disabled.
// This function signature matches the tracing-enabled version for API compatibility.
func NewFileExporter(filePath string, opts ...FileExporterOption) (Exporter, error) {
	return &NoopExporter{}, nil
}

// WithMaxSize is accepted and ignored when tracing is disabled.
func WithMaxSize(bytes int64) FileExporterOption {
	return func(interface{}) {}
}

// WithMaxRotatedFiles is accepted and ignored when tracing is disabled.
func WithMaxRotatedFiles(count int) FileExporterOption {
	return func(interface{}) {}
}
