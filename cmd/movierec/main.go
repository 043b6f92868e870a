// Command movierec answers catalog searches and recommendations from the
// command line. Every command prints JSON on stdout.
//
// Usage:
//
//	movierec [-config file] [-n limit] [-metrics] <command> [args]
//
// Commands:
//
//	search <query>      autocomplete over titles, actors and genres
//	similar <title>     titles most similar to an exact title
//	like <text>         titles most similar to a description
//	actor <name>        movies with a matching actor
//	genre <genre>       movies with a matching genre
//	top                 highest rated movies
//	recommend <text>    free text with title, actor and genre fallback
//	stats               build statistics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/goccy/go-json"
	"github.com/prometheus/common/expfmt"

	"github.com/dan-solli/movierec/pkg/config"
	"github.com/dan-solli/movierec/pkg/metrics"
	"github.com/dan-solli/movierec/pkg/movierec"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("movierec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file (default: $MOVIEREC_CONFIG or ./movierec.yaml)")
	limit := fs.Int("n", 0, "result count (0 uses the configured default)")
	dumpMetrics := fs.Bool("metrics", false, "write Prometheus metrics to stderr on exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: movierec [-config file] [-n limit] [-metrics] <search|similar|like|actor|genre|top|recommend|stats> [args]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}
	command, rest := fs.Arg(0), strings.Join(fs.Args()[1:], " ")

	if err := checkArgs(command, rest); err != nil {
		fmt.Fprintf(stderr, "movierec: %v\n", err)
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "movierec: %v\n", err)
		return exitFailure
	}
	if *dumpMetrics {
		cfg.Metrics.Enabled = true
	}

	rc, collector, err := cfg.Recommender(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "movierec: %v\n", err)
		return exitFailure
	}

	rec, err := movierec.New(ctx, rc)
	if err != nil {
		if rc.TraceExporter != nil {
			rc.TraceExporter.Close()
		}
		fmt.Fprintf(stderr, "movierec: %v\n", err)
		return exitFailure
	}
	defer rec.Close()

	out := execute(ctx, rec, command, rest, *limit)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "movierec: encode output: %v\n", err)
		return exitFailure
	}

	if collector != nil {
		if err := writeMetrics(stderr, collector); err != nil {
			fmt.Fprintf(stderr, "movierec: write metrics: %v\n", err)
		}
	}
	return exitOK
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Resolve()
}

func checkArgs(command, rest string) error {
	switch command {
	case "search", "similar", "like", "actor", "genre", "recommend":
		if strings.TrimSpace(rest) == "" {
			return fmt.Errorf("%w: %s needs an argument", errUsage, command)
		}
	case "top", "stats":
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
	return nil
}

func execute(ctx context.Context, rec *movierec.Recommender, command, arg string, limit int) interface{} {
	switch command {
	case "search":
		return rec.Search(ctx, arg, limit)
	case "similar":
		return rec.RecommendBySimilarity(ctx, arg, limit)
	case "like":
		return rec.RecommendByText(ctx, arg, limit)
	case "actor":
		results := rec.RecommendByActor(ctx, arg)
		if limit > 0 && len(results) > limit {
			results = results[:limit]
		}
		return results
	case "genre":
		return rec.RecommendByGenre(ctx, arg, limit)
	case "top":
		return rec.TopRated(ctx, limit)
	case "recommend":
		return rec.Recommend(ctx, arg)
	default:
		return rec.Stats()
	}
}

func writeMetrics(w io.Writer, collector *metrics.MetricsCollector) error {
	families, err := collector.Registry().Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
