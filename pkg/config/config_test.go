package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"MOVIEREC_CONFIG",
	"MOVIEREC_CATALOG_PATH",
	"MOVIEREC_CATALOG_FORMAT",
	"MOVIEREC_SQLITE_DRIVER",
	"MOVIEREC_SQLITE_TABLE",
	"MOVIEREC_TOP_N",
	"MOVIEREC_SEARCH_LIMIT",
	"MOVIEREC_WORKERS",
	"MOVIEREC_LOG_LEVEL",
	"MOVIEREC_LOG_FORMAT",
	"MOVIEREC_TRACE_PATH",
	"MOVIEREC_METRICS",
}

// clearEnv blanks every MOVIEREC_ variable for the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "movies.csv", cfg.Catalog.Path)
	assert.Equal(t, "sqlite", cfg.Catalog.SQLiteDriver)
	assert.Equal(t, "movies", cfg.Catalog.SQLiteTable)
	assert.Equal(t, 5, cfg.Query.TopN)
	assert.Equal(t, 10, cfg.Query.SearchLimit)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "movierec.yaml", `
catalog:
  path: data/movies.db
  format: sqlite
  sqlite_table: films
query:
  top_n: 3
build:
  workers: 2
log:
  level: debug
  format: json
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/movies.db", cfg.Catalog.Path)
	assert.Equal(t, "sqlite", cfg.Catalog.Format)
	assert.Equal(t, "films", cfg.Catalog.SQLiteTable)
	assert.Equal(t, "sqlite", cfg.Catalog.SQLiteDriver, "unset fields keep defaults")
	assert.Equal(t, 3, cfg.Query.TopN)
	assert.Equal(t, 10, cfg.Query.SearchLimit)
	assert.Equal(t, 2, cfg.Build.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	_, err = Load(writeFile(t, "bad.yaml", "catalog: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown format", "catalog:\n  format: xlsx\n"},
		{"unknown driver", "catalog:\n  sqlite_driver: postgres\n"},
		{"negative workers", "build:\n  workers: -1\n"},
		{"unknown level", "log:\n  level: loud\n"},
		{"unknown log format", "log:\n  format: xml\n"},
		{"top n too large", "query:\n  top_n: 5000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeFile(t, "movierec.yaml", tt.yaml))
			require.Error(t, err)

			var verrs validator.ValidationErrors
			assert.True(t, errors.As(err, &verrs), "expected validator errors, got %v", err)
		})
	}
}

func TestMerge(t *testing.T) {
	base := Default()

	t.Run("override wins", func(t *testing.T) {
		override := Config{}
		override.Catalog.Path = "other.csv"
		override.Trace.Path = "traces.jsonl"
		result := merge(base, override)
		assert.Equal(t, "other.csv", result.Catalog.Path)
		assert.Equal(t, "traces.jsonl", result.Trace.Path)
		assert.Equal(t, base.Query, result.Query)
	})

	t.Run("zero values do not override", func(t *testing.T) {
		result := merge(base, Config{})
		assert.Equal(t, base, result)
	})
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOVIEREC_CATALOG_PATH", " env.db ")
	t.Setenv("MOVIEREC_CATALOG_FORMAT", "SQLITE")
	t.Setenv("MOVIEREC_SQLITE_TABLE", "films")
	t.Setenv("MOVIEREC_TOP_N", "7")
	t.Setenv("MOVIEREC_SEARCH_LIMIT", "20")
	t.Setenv("MOVIEREC_WORKERS", "3")
	t.Setenv("MOVIEREC_LOG_LEVEL", "WARN")
	t.Setenv("MOVIEREC_TRACE_PATH", "out/traces.jsonl")
	t.Setenv("MOVIEREC_METRICS", "true")

	cfg := Default()
	require.NoError(t, applyEnvOverrides(&cfg))

	assert.Equal(t, "env.db", cfg.Catalog.Path)
	assert.Equal(t, "sqlite", cfg.Catalog.Format)
	assert.Equal(t, "films", cfg.Catalog.SQLiteTable)
	assert.Equal(t, 7, cfg.Query.TopN)
	assert.Equal(t, 20, cfg.Query.SearchLimit)
	assert.Equal(t, 3, cfg.Build.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "out/traces.jsonl", cfg.Trace.Path)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestApplyEnvOverrides_Invalid(t *testing.T) {
	for _, key := range []string{"MOVIEREC_TOP_N", "MOVIEREC_SEARCH_LIMIT", "MOVIEREC_WORKERS", "MOVIEREC_METRICS"} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, "lots")
			cfg := Default()
			err := applyEnvOverrides(&cfg)
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "movierec.yaml", "query:\n  top_n: 3\n")
	t.Setenv("MOVIEREC_TOP_N", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Query.TopN)
}

func TestResolve(t *testing.T) {
	t.Run("explicit file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MOVIEREC_CONFIG", writeFile(t, "custom.yaml", "catalog:\n  path: custom.csv\n"))
		cfg, err := Resolve()
		require.NoError(t, err)
		assert.Equal(t, "custom.csv", cfg.Catalog.Path)
	})

	t.Run("explicit file missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MOVIEREC_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Resolve()
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("default file in working directory", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte("query:\n  search_limit: 4\n"), 0644))
		t.Chdir(dir)

		cfg, err := Resolve()
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Query.SearchLimit)
	})

	t.Run("no file", func(t *testing.T) {
		clearEnv(t)
		t.Chdir(t.TempDir())
		cfg, err := Resolve()
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %q", out)
	assert.Contains(t, out, `"msg":"shown"`)

	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestRecommender(t *testing.T) {
	cfg := Default()
	cfg.Catalog.Path = "films.db"
	cfg.Catalog.Format = "sqlite"
	cfg.Query.TopN = 2
	cfg.Build.Workers = 4

	rc, collector, err := cfg.Recommender(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, collector)
	assert.Nil(t, rc.Metrics)
	assert.Nil(t, rc.TraceExporter)
	assert.NotNil(t, rc.Logger)
	assert.Equal(t, "films.db", rc.CatalogPath)
	assert.Equal(t, "sqlite", rc.CatalogFormat)
	assert.Equal(t, "movies", rc.SQLiteTable)
	assert.Equal(t, 2, rc.TopN)
	assert.Equal(t, 10, rc.SearchLimit)
	assert.Equal(t, 4, rc.Workers)

	cfg.Metrics.Enabled = true
	cfg.Trace.Path = filepath.Join(t.TempDir(), "traces", "out.jsonl")
	rc, collector, err = cfg.Recommender(&bytes.Buffer{})
	require.NoError(t, err)
	require.NotNil(t, collector)
	assert.Equal(t, collector, rc.Metrics)
	require.NotNil(t, rc.TraceExporter)
	assert.NoError(t, rc.TraceExporter.Close())
}
