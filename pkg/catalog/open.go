package catalog

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Catalog formats accepted by Open.
const (
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

// OpenOptions selects and configures a catalog source.
type OpenOptions struct {
	Path   string
	Format string // "csv", "sqlite", or "" to infer from the file extension
	Driver string // SQLite driver name
	Table  string // SQLite table name
}

// Open builds the Source described by opts. The returned closer releases
// any resources held by the source and is never nil.
func Open(opts OpenOptions) (Source, io.Closer, error) {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = inferFormat(opts.Path)
	}

	switch format {
	case FormatCSV:
		return NewCSVSource(opts.Path), nopCloser{}, nil
	case FormatSQLite:
		src, err := NewSQLiteSource(opts.Driver, opts.Path, opts.Table)
		if err != nil {
			return nil, nopCloser{}, err
		}
		return src, src, nil
	default:
		return nil, nopCloser{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
}

func inferFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatCSV
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
