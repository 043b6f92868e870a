//go:build tracing

package trace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// Rotation defaults.
const (
	defaultMaxBytes = 10 * 1024 * 1024
	defaultKeep     = 5
)

var errExporterClosed = errors.New("trace exporter closed")

// FileExporter appends one JSON object per line to a file. When the file
// reaches its size limit it becomes <path>.1, older generations shift up,
// and generations past the keep count are removed.
type FileExporter struct {
	path     string
	maxBytes int64
	keep     int

	mu     sync.Mutex
	out    *countingFile
	enc    *json.Encoder
	closed bool
}

// countingFile tracks the size of the active trace file.
type countingFile struct {
	f    *os.File
	size int64
}

func (c *countingFile) Write(p []byte) (int, error) {
	n, err := c.f.Write(p)
	c.size += int64(n)
	return n, err
}

// generation is one rotated file, <path>.<n>.
type generation struct {
	n    int
	path string
}

// WithMaxSize sets the file size that triggers rotation (default: 10MB).
func WithMaxSize(bytes int64) FileExporterOption {
	return func(iface interface{}) {
		if fe, ok := iface.(*FileExporter); ok && bytes > 0 {
			fe.maxBytes = bytes
		}
	}
}

// WithMaxRotatedFiles sets how many rotated generations to keep (default: 5).
// Zero keeps none: a full file is discarded.
func WithMaxRotatedFiles(count int) FileExporterOption {
	return func(iface interface{}) {
		if fe, ok := iface.(*FileExporter); ok && count >= 0 {
			fe.keep = count
		}
	}
}

// NewFileExporter opens filePath for appending, creating parent directories.
// Generations left over from a run with a larger keep count are pruned.
// An empty path disables tracing and returns a NoopExporter.
func NewFileExporter(filePath string, opts ...FileExporterOption) (Exporter, error) {
	if filePath == "" {
		return &NoopExporter{}, nil
	}

	fe := &FileExporter{
		path:     filePath,
		maxBytes: defaultMaxBytes,
		keep:     defaultKeep,
	}
	for _, opt := range opts {
		opt(fe)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	if err := fe.prune(); err != nil {
		return nil, err
	}
	if err := fe.open(); err != nil {
		return nil, err
	}
	return fe, nil
}

// Export writes record as one line and rotates when the size limit is hit.
func (fe *FileExporter) Export(ctx context.Context, record *TraceRecord) error {
	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.closed {
		return errExporterClosed
	}
	// A failed rotation leaves no active file.
	if fe.out == nil {
		if err := fe.open(); err != nil {
			return err
		}
	}
	if err := fe.enc.Encode(record); err != nil {
		return fmt.Errorf("encode trace record: %w", err)
	}
	if fe.out.size < fe.maxBytes {
		return nil
	}
	if err := fe.rotate(); err != nil {
		return fmt.Errorf("rotate trace file: %w", err)
	}
	return nil
}

// Close syncs and closes the active file. Calling it again is a no-op.
func (fe *FileExporter) Close() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()

	if fe.closed {
		return nil
	}
	fe.closed = true
	return fe.closeFile()
}

func (fe *FileExporter) open() error {
	f, err := os.OpenFile(fe.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat trace file: %w", err)
	}
	fe.out = &countingFile{f: f, size: info.Size()}
	fe.enc = json.NewEncoder(fe.out)
	return nil
}

func (fe *FileExporter) closeFile() error {
	if fe.out == nil {
		return nil
	}
	f := fe.out.f
	fe.out = nil
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync trace file: %w", err)
	}
	return f.Close()
}

// rotate shifts every generation up by one, drops those past keep, and
// reopens an empty active file. Must be called with the lock held.
func (fe *FileExporter) rotate() error {
	if err := fe.closeFile(); err != nil {
		return err
	}

	gens, err := fe.generations()
	if err != nil {
		return err
	}
	for i := len(gens) - 1; i >= 0; i-- {
		g := gens[i]
		if g.n >= fe.keep {
			if err := os.Remove(g.path); err != nil {
				return fmt.Errorf("remove rotated file %s: %w", g.path, err)
			}
			continue
		}
		next := fe.generationPath(g.n + 1)
		if err := os.Rename(g.path, next); err != nil {
			return fmt.Errorf("shift rotated file %s -> %s: %w", g.path, next, err)
		}
	}

	if fe.keep == 0 {
		err = os.Remove(fe.path)
	} else {
		err = os.Rename(fe.path, fe.generationPath(1))
	}
	if err != nil {
		return fmt.Errorf("retire trace file: %w", err)
	}
	return fe.open()
}

// prune removes generations numbered above keep.
func (fe *FileExporter) prune() error {
	gens, err := fe.generations()
	if err != nil {
		return err
	}
	for _, g := range gens {
		if g.n <= fe.keep {
			continue
		}
		if err := os.Remove(g.path); err != nil {
			return fmt.Errorf("prune rotated file %s: %w", g.path, err)
		}
	}
	return nil
}

func (fe *FileExporter) generationPath(n int) string {
	return fe.path + "." + strconv.Itoa(n)
}

// generations lists rotated files, oldest-numbered last.
// Only names of the form <base>.<positive integer> count.
func (fe *FileExporter) generations() ([]generation, error) {
	dir, base := filepath.Dir(fe.path), filepath.Base(fe.path)+"."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read trace directory: %w", err)
	}

	var gens []generation
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, base) {
			continue
		}
		suffix := name[len(base):]
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 || strconv.Itoa(n) != suffix {
			continue
		}
		gens = append(gens, generation{n: n, path: filepath.Join(dir, name)})
	}

	sort.Slice(gens, func(i, j int) bool { return gens[i].n < gens[j].n })
	return gens, nil
}
