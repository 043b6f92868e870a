package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultSQLiteDriver is the pure-Go driver registered by modernc.org/sqlite.
const DefaultSQLiteDriver = "sqlite"

// DefaultSQLiteTable is the table read when none is configured.
const DefaultSQLiteTable = "movies"

// ErrInvalidTable indicates a table name that is not a plain identifier.
var ErrInvalidTable = errors.New("invalid table name")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads a catalog from one SQLite table.
// Every column becomes text: NULL reads as "", numbers use their shortest
// decimal form.
type SQLiteSource struct {
	db    *sql.DB
	table string
	owned bool
}

// NewSQLiteSource opens dbPath with driver ("" selects DefaultSQLiteDriver)
// and reads table ("" selects DefaultSQLiteTable).
// The dbPath can be a file path, a "file:" URI or ":memory:". A file path
// must already exist; the driver would otherwise create an empty database.
func NewSQLiteSource(driver, dbPath, table string) (*SQLiteSource, error) {
	if driver == "" {
		driver = DefaultSQLiteDriver
	}
	if !isSQLiteDSN(dbPath) {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
	}
	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	src, err := NewSQLiteSourceFromDB(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	src.owned = true
	return src, nil
}

// isSQLiteDSN reports whether dbPath names an in-memory database or a URI
// rather than a plain file.
func isSQLiteDSN(dbPath string) bool {
	return dbPath == ":memory:" || strings.HasPrefix(dbPath, "file:")
}

// NewSQLiteSourceFromDB reads table from an already open database.
// The caller keeps ownership of db.
func NewSQLiteSourceFromDB(db *sql.DB, table string) (*SQLiteSource, error) {
	if table == "" {
		table = DefaultSQLiteTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return &SQLiteSource{db: db, table: table}, nil
}

// Load reads every row of the table in rowid order.
func (s *SQLiteSource) Load(ctx context.Context) ([]RawRecord, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog table %s: %w", s.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog columns: %w", err)
	}

	var out []RawRecord
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		row := make(RawRecord, len(columns))
		for i, name := range columns {
			row.assign(name, sqlText(values[i]))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog rows: %w", err)
	}

	return out, nil
}

// Close releases the database when the source opened it.
func (s *SQLiteSource) Close() error {
	if s.owned && s.db != nil {
		return s.db.Close()
	}
	return nil
}

// sqlText renders a scanned column value as text.
func sqlText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
