package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
)

// --- stubs ---

type stubLocator struct {
	stations []domain.Station
	err      error
	calls    atomic.Int32
}

func (s *stubLocator) FindStations(_ context.Context, _, _ float64, _ int) ([]domain.Station, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.stations, nil
}

type stubSource struct {
	mu       sync.Mutex
	readings map[string][]domain.RawReading
	errs     map[string][]error // consumed one per call
	delay    time.Duration
	calls    atomic.Int32
	inflight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *stubSource) StationReadings(ctx context.Context, ref string, _, _ time.Time) ([]domain.RawReading, error) {
	s.calls.Add(1)
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, &domain.NetworkError{Endpoint: "readings", Err: ctx.Err()}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if queue := s.errs[ref]; len(queue) > 0 {
		err := queue[0]
		s.errs[ref] = queue[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.readings[ref], nil
}

type mockGeocoder struct {
	result domain.GeocodingResult
	err    error
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return m.result, m.err
}

type recordingPublisher struct {
	mu      sync.Mutex
	results []domain.Result
	err     error
}

func (r *recordingPublisher) Publish(_ context.Context, result domain.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return r.err
}

// --- fixtures ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

// westMidlands is a query centred on (52.45, -2.15) over two days.
func westMidlands(t *testing.T) domain.Query {
	t.Helper()
	return domain.Query{
		Latitude:  52.45,
		Longitude: -2.15,
		RadiusKm:  20,
		StartDate: mustDate(t, "2024-01-01"),
		EndDate:   mustDate(t, "2024-01-02"),
	}
}

func station(ref string, easting, northing float64) domain.Station {
	return domain.Station{Reference: ref, Label: "Gauge " + ref, Easting: easting, Northing: northing}
}

func raws(ref string, values ...float64) []domain.RawReading {
	out := make([]domain.RawReading, len(values))
	at := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		out[i] = domain.RawReading{
			StationReference: ref,
			Timestamp:        at.Add(time.Duration(i) * 15 * time.Minute),
			Value:            strconv.FormatFloat(v, 'f', -1, 64),
		}
	}
	return out
}

func serverError() error {
	return &domain.NetworkError{Endpoint: "readings", StatusCode: 503, Err: io.ErrUnexpectedEOF}
}

func badRequest() error {
	return &domain.NetworkError{Endpoint: "readings", StatusCode: 400, Err: io.ErrUnexpectedEOF}
}
