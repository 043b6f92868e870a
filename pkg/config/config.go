// Package config loads movierec settings from a YAML file and MOVIEREC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dan-solli/movierec/pkg/catalog"
	"github.com/dan-solli/movierec/pkg/metrics"
	"github.com/dan-solli/movierec/pkg/movierec"
	"github.com/dan-solli/movierec/pkg/search"
	"github.com/dan-solli/movierec/pkg/trace"
)

const defaultConfigFile = "movierec.yaml"

// Config captures catalog, query, build and observability settings.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Query   QueryConfig   `yaml:"query"`
	Build   BuildConfig   `yaml:"build"`
	Log     LogConfig     `yaml:"log"`
	Trace   TraceConfig   `yaml:"trace"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// CatalogConfig locates the movie catalog.
type CatalogConfig struct {
	Path         string `yaml:"path" validate:"required"`
	Format       string `yaml:"format" validate:"omitempty,oneof=csv sqlite"`
	SQLiteDriver string `yaml:"sqlite_driver" validate:"omitempty,oneof=sqlite sqlite3"`
	SQLiteTable  string `yaml:"sqlite_table" validate:"omitempty,max=128"`
}

// QueryConfig holds default result counts.
type QueryConfig struct {
	TopN        int `yaml:"top_n" validate:"gte=1,lte=1000"`
	SearchLimit int `yaml:"search_limit" validate:"gte=1,lte=1000"`
}

// BuildConfig tunes index construction. Zero workers means one per CPU.
type BuildConfig struct {
	Workers int `yaml:"workers" validate:"gte=0,lte=1024"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// TraceConfig enables the JSON-lines trace file. Empty path disables it.
type TraceConfig struct {
	Path      string `yaml:"path"`
	MaxSizeMB int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxFiles  int    `yaml:"max_files" validate:"gte=0"`
}

// MetricsConfig enables the Prometheus collector.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

var validate = validator.New()

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Catalog: CatalogConfig{
			Path:         "movies.csv",
			SQLiteDriver: catalog.DefaultSQLiteDriver,
			SQLiteTable:  catalog.DefaultSQLiteTable,
		},
		Query: QueryConfig{
			TopN:        search.DefaultTopN,
			SearchLimit: search.DefaultLimit,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Trace: TraceConfig{
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Resolve loads configuration from file and environment variables.
// The file is MOVIEREC_CONFIG if set, otherwise movierec.yaml when present.
func Resolve() (Config, error) {
	path := strings.TrimSpace(os.Getenv("MOVIEREC_CONFIG"))
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	} else if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), fmt.Errorf("provided MOVIEREC_CONFIG file %q not found", path)
	}
	return Load(path)
}

// Load merges the file at path (if non-empty) over Default, applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		loaded, err := loadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = merge(cfg, loaded)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	return cfg, nil
}

func merge(base, override Config) Config {
	result := base

	c := override.Catalog
	if c.Path != "" {
		result.Catalog.Path = c.Path
	}
	if c.Format != "" {
		result.Catalog.Format = c.Format
	}
	if c.SQLiteDriver != "" {
		result.Catalog.SQLiteDriver = c.SQLiteDriver
	}
	if c.SQLiteTable != "" {
		result.Catalog.SQLiteTable = c.SQLiteTable
	}

	if override.Query.TopN != 0 {
		result.Query.TopN = override.Query.TopN
	}
	if override.Query.SearchLimit != 0 {
		result.Query.SearchLimit = override.Query.SearchLimit
	}
	if override.Build.Workers != 0 {
		result.Build.Workers = override.Build.Workers
	}

	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}
	if override.Log.Format != "" {
		result.Log.Format = override.Log.Format
	}

	if override.Trace.Path != "" {
		result.Trace.Path = override.Trace.Path
	}
	if override.Trace.MaxSizeMB != 0 {
		result.Trace.MaxSizeMB = override.Trace.MaxSizeMB
	}
	if override.Trace.MaxFiles != 0 {
		result.Trace.MaxFiles = override.Trace.MaxFiles
	}

	if override.Metrics.Enabled {
		result.Metrics.Enabled = true
	}

	return result
}

func applyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_CATALOG_PATH")); v != "" {
		cfg.Catalog.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_CATALOG_FORMAT")); v != "" {
		cfg.Catalog.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_SQLITE_DRIVER")); v != "" {
		cfg.Catalog.SQLiteDriver = v
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_SQLITE_TABLE")); v != "" {
		cfg.Catalog.SQLiteTable = v
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_TOP_N")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MOVIEREC_TOP_N %q: %w", v, err)
		}
		cfg.Query.TopN = n
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_SEARCH_LIMIT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MOVIEREC_SEARCH_LIMIT %q: %w", v, err)
		}
		cfg.Query.SearchLimit = n
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MOVIEREC_WORKERS %q: %w", v, err)
		}
		cfg.Build.Workers = n
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_LOG_LEVEL")); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_LOG_FORMAT")); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_TRACE_PATH")); v != "" {
		cfg.Trace.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("MOVIEREC_METRICS")); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MOVIEREC_METRICS %q: %w", v, err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}

// Logger builds a slog logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.Log.Level)}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Recommender converts the configuration into movierec.Config. Logs go to
// logOut. The returned collector is nil unless metrics are enabled.
func (c Config) Recommender(logOut io.Writer) (movierec.Config, *metrics.MetricsCollector, error) {
	rc := movierec.Config{
		CatalogPath:   c.Catalog.Path,
		CatalogFormat: c.Catalog.Format,
		SQLiteDriver:  c.Catalog.SQLiteDriver,
		SQLiteTable:   c.Catalog.SQLiteTable,
		TopN:          c.Query.TopN,
		SearchLimit:   c.Query.SearchLimit,
		Workers:       c.Build.Workers,
		Logger:        c.Logger(logOut),
	}

	var collector *metrics.MetricsCollector
	if c.Metrics.Enabled {
		collector = metrics.NewCollector()
		rc.Metrics = collector
	}

	if c.Trace.Path != "" {
		exporter, err := trace.NewFileExporter(c.Trace.Path,
			trace.WithMaxSize(int64(c.Trace.MaxSizeMB)*1024*1024),
			trace.WithMaxRotatedFiles(c.Trace.MaxFiles))
		if err != nil {
			return movierec.Config{}, nil, fmt.Errorf("open trace exporter: %w", err)
		}
		rc.TraceExporter = exporter
	}

	return rc, collector, nil
}
