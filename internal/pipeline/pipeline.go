package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
	"github.com/couchcryptid/rainfall-explorer/internal/geodesy"
	"github.com/couchcryptid/rainfall-explorer/internal/observability"
)

// StationLocator finds rainfall stations within a radius of a grid point.
type StationLocator interface {
	FindStations(ctx context.Context, easting, northing float64, radiusKm int) ([]domain.Station, error)
}

// ReadingsSource fetches the raw readings of one station. Each call is a
// single attempt; retries are the fetcher's job.
type ReadingsSource interface {
	StationReadings(ctx context.Context, stationRef string, start, end time.Time) ([]domain.RawReading, error)
}

// Publisher delivers a completed result downstream.
type Publisher interface {
	Publish(ctx context.Context, result domain.Result) error
}

// FetchConfig bounds the readings fan-out.
type FetchConfig struct {
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithGeocoder enables place names in the selection summary.
func WithGeocoder(g domain.Geocoder) Option {
	return func(p *Pipeline) { p.geocoder = g }
}

// WithPublisher streams successful results to p.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithClock sets the clock used for retry backoff waits.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.fetcher.clock = c }
}

// Pipeline runs rainfall queries: locate stations, fetch and clean their
// readings, aggregate, merge and reproject. It holds no per-query state and
// is safe for concurrent use.
type Pipeline struct {
	locator   StationLocator
	fetcher   *fetcher
	geocoder  domain.Geocoder
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	registryDown atomic.Bool
}

// New creates a Pipeline over the given station locator and readings source.
func New(locator StationLocator, source ReadingsSource, cfg FetchConfig, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		locator: locator,
		fetcher: &fetcher{
			source:       source,
			workers:      max(cfg.Workers, 1),
			maxRetries:   max(cfg.MaxRetries, 0),
			retryBackoff: cfg.RetryBackoff,
			clock:        clockwork.NewRealClock(),
			logger:       logger,
			metrics:      metrics,
		},
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness reports an error while the station registry is failing.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.registryDown.Load() {
		return errors.New("station registry unavailable on last query")
	}
	return nil
}

// Run executes one query. On failure the returned Result still carries the
// query id, the selection and a status message, with empty data.
func (p *Pipeline) Run(ctx context.Context, q domain.Query) (domain.Result, error) {
	start := time.Now()
	queryID := uuid.NewString()
	logger := p.logger.With("query_id", queryID)

	result, err := p.run(ctx, queryID, q, logger)
	if err != nil {
		if errors.Is(context.Cause(ctx), domain.ErrSuperseded) {
			err = domain.ErrSuperseded
		}
		result = failedResult(queryID, q.Describe(), err)
	}

	outcome := domain.Outcome(err)
	p.metrics.Queries.WithLabelValues(outcome).Inc()
	p.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	logger.Log(ctx, outcomeLevel(outcome), "query finished",
		"outcome", outcome,
		"stations", result.StationCount,
		"readings", result.ReadingCount,
		"failed_stations", len(result.FailedStations),
		"duration", time.Since(start),
	)
	if err != nil && outcomeLevel(outcome) == slog.LevelError {
		logger.Error("query failed", "error", err)
	}
	return result, err
}

func outcomeLevel(outcome string) slog.Level {
	switch outcome {
	case "upstream", "conversion":
		return slog.LevelError
	case "invalid":
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func (p *Pipeline) run(ctx context.Context, queryID string, q domain.Query, logger *slog.Logger) (domain.Result, error) {
	if err := q.Validate(); err != nil {
		return domain.Result{}, err
	}
	logger.Info("query started", "selection", q.Describe())

	easting, northing, err := geodesy.ToGrid(q.Latitude, q.Longitude)
	if err != nil {
		return domain.Result{}, err
	}

	stations, err := p.locate(ctx, easting, northing, q.RadiusKm, logger)
	if err != nil {
		return domain.Result{}, err
	}
	p.metrics.StationsDiscovered.Observe(float64(len(stations)))
	logger.Debug("stations located", "count", len(stations), "easting", easting, "northing", northing)

	refs := make([]string, len(stations))
	for i, st := range stations {
		refs[i] = st.Reference
	}

	fetched, err := p.fetcher.fetch(ctx, refs, q.StartDate, q.EndDate, logger)
	if err != nil {
		return domain.Result{}, err
	}

	records, readingCount, err := p.transform(stations, fetched.readings, logger)
	if err != nil {
		return domain.Result{}, err
	}

	result := domain.Assemble(records, readingCount, fetched.failed)
	result.QueryID = queryID
	result.Selection = domain.DescribeSelection(ctx, q, p.geocoder, logger)
	result.GeneratedAt = domain.Now()

	p.publish(ctx, result, logger)
	return result, nil
}

// locate queries the registry and tracks its health for readiness. Stations
// whose grid coordinates cannot be reprojected are dropped.
func (p *Pipeline) locate(ctx context.Context, easting, northing float64, radiusKm int, logger *slog.Logger) ([]domain.Station, error) {
	stations, err := p.locator.FindStations(ctx, easting, northing, radiusKm)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var netErr *domain.NetworkError
	switch {
	case errors.As(err, &netErr):
		p.registryDown.Store(true)
		return nil, fmt.Errorf("locate stations: %w", err)
	case err != nil:
		p.registryDown.Store(false)
		return nil, err
	}
	p.registryDown.Store(false)

	usable := make([]domain.Station, 0, len(stations))
	for _, st := range stations {
		if err := geodesy.CheckGrid(st.Easting, st.Northing); err != nil {
			logger.Warn("dropping station outside the grid", "station_reference", st.Reference, "error", err)
			continue
		}
		usable = append(usable, st)
	}
	if len(usable) == 0 {
		return nil, domain.ErrNoStationsFound
	}
	return usable, nil
}

func (p *Pipeline) publish(ctx context.Context, result domain.Result, logger *slog.Logger) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, result); err != nil {
		logger.Warn("publish result failed", "error", err)
	}
}

func failedResult(queryID, selection string, err error) domain.Result {
	return domain.Result{
		QueryID:        queryID,
		Selection:      selection,
		Status:         domain.StatusMessage(err),
		Table:          []domain.TableRow{},
		Points:         []domain.MapPoint{},
		FailedStations: []string{},
		GeneratedAt:    domain.Now(),
	}
}
