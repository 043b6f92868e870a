package catalog

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// CSVSource reads a catalog from a CSV file with a header row.
// Every value is treated as text regardless of how it looks.
type CSVSource struct {
	Path string
}

// NewCSVSource creates a CSV catalog source for path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

// Load opens the file and reads every row.
func (s *CSVSource) Load(ctx context.Context) ([]RawRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

// ReadCSV reads a header row followed by data rows from r.
// Short rows leave their trailing columns empty; long rows drop extra cells.
func ReadCSV(ctx context.Context, r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read catalog header: empty file")
		}
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	var rows []RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row %d: %w", len(rows)+1, err)
		}

		row := make(RawRecord, len(header))
		for i, name := range header {
			value := ""
			if i < len(rec) {
				value = rec[i]
			}
			row.assign(name, value)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func trimBOM(s string) string {
	const bom = "\ufeff"
	if len(s) >= len(bom) && s[:len(bom)] == bom {
		return s[len(bom):]
	}
	return s
}
