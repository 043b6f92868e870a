//go:build cgo_sqlite

package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCGODriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cgo.db")

	db, err := sql.Open(CGOSQLiteDriver, path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE movies (title TEXT, story TEXT); INSERT INTO movies VALUES ('Heat', 'heist');`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	src, err := NewSQLiteSource(CGOSQLiteDriver, path, "")
	require.NoError(t, err)
	defer src.Close()

	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Heat", rows[0].Get(ColumnTitle))
}
