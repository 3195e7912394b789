// Command rainfall runs a single rainfall query against the Environment Agency
// APIs and prints the station totals.
//
// Upstream endpoints, limits, timeouts, and optional geocoding are configured
// from the same environment variables as the API service.
//
// Usage:
//
//	go run ./cmd/rainfall -lat 52.45 -lon -2.15 -radius 20 \
//	  -start 2024-01-01 -end 2024-01-02 -format table
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/rainfall-explorer/internal/adapter/environmentagency"
	"github.com/couchcryptid/rainfall-explorer/internal/adapter/mapbox"
	"github.com/couchcryptid/rainfall-explorer/internal/config"
	"github.com/couchcryptid/rainfall-explorer/internal/domain"
	"github.com/couchcryptid/rainfall-explorer/internal/observability"
	"github.com/couchcryptid/rainfall-explorer/internal/pipeline"
)

type options struct {
	lat, lon   float64
	radius     int
	start, end string
	format     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, observability.NewMetrics())
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, metrics *observability.Metrics) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	q, err := opts.query()
	if err != nil {
		fmt.Fprintln(stderr, domain.StatusMessage(err))
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}

	// stdout carries the result, so logs always go to stderr.
	logger := observability.NewConsoleLogger(stderr, cfg.LogLevel)
	p := newPipeline(cfg, logger, metrics)

	result, err := p.Run(ctx, q)
	if err := render(stdout, opts.format, result); err != nil {
		fmt.Fprintln(stderr, "render:", err)
		return 1
	}
	return exitCode(err)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("rainfall", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.Float64Var(&opts.lat, "lat", 0, "latitude of the search centre (WGS84)")
	fs.Float64Var(&opts.lon, "lon", 0, "longitude of the search centre (WGS84)")
	fs.IntVar(&opts.radius, "radius", domain.DefaultRadiusKm, "search radius in km")
	fs.StringVar(&opts.start, "start", "", "start date YYYY-MM-DD (default today)")
	fs.StringVar(&opts.end, "end", "", "end date YYYY-MM-DD (default today)")
	fs.StringVar(&opts.format, "format", "table", "output format: table or json")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.format != "table" && opts.format != "json" {
		fmt.Fprintf(stderr, "unknown format %q\n", opts.format)
		return options{}, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

func (o options) query() (domain.Query, error) {
	start, end := domain.Today(), domain.Today()
	var err error
	if o.start != "" {
		if start, err = domain.ParseDate(o.start); err != nil {
			return domain.Query{}, err
		}
	}
	if o.end != "" {
		if end, err = domain.ParseDate(o.end); err != nil {
			return domain.Query{}, err
		}
	}
	return domain.Query{
		Latitude:  o.lat,
		Longitude: o.lon,
		RadiusKm:  o.radius,
		StartDate: start,
		EndDate:   end,
	}, nil
}

func newPipeline(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *pipeline.Pipeline {
	client := environmentagency.NewClient(logger, metrics)
	registry := environmentagency.NewStationRegistry(client, cfg.StationsURL, cfg.StationsLimit, cfg.StationsTimeout)
	readings := environmentagency.NewReadingsClient(client, cfg.ReadingsURL, cfg.ReadingsLimit, cfg.ReadingsTimeout)

	var opts []pipeline.Option
	if cfg.MapboxEnabled {
		opts = append(opts, pipeline.WithGeocoder(mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)))
	}

	return pipeline.New(registry, readings, pipeline.FetchConfig{
		Workers:      cfg.ReadingsWorkers,
		MaxRetries:   cfg.ReadingsMaxRetries,
		RetryBackoff: cfg.ReadingsRetryBackoff,
	}, logger, metrics, opts...)
}

// exitCode is 0 for a completed query, including the empty outcomes.
func exitCode(err error) int {
	switch domain.Outcome(err) {
	case "ok", "no_stations", "no_readings":
		return 0
	default:
		return 1
	}
}
