//go:build cgo_sqlite

package catalog

// This file registers the cgo SQLite driver under the name "sqlite3".
// Select it with NewSQLiteSource(CGOSQLiteDriver, path, table).

import _ "github.com/mattn/go-sqlite3" // cgo SQLite driver

// CGOSQLiteDriver is the driver name registered by mattn/go-sqlite3.
const CGOSQLiteDriver = "sqlite3"
