package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
	"github.com/couchcryptid/rainfall-explorer/internal/observability"
)

// fetcher retrieves readings for many stations with a bounded worker pool.
// A station that keeps failing is recorded and the others carry on.
type fetcher struct {
	source       ReadingsSource
	workers      int
	maxRetries   int
	retryBackoff time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
}

type fetchResult struct {
	readings [][]domain.RawReading // indexed like the input refs
	failed   []string
}

func (f *fetcher) fetch(ctx context.Context, refs []string, start, end time.Time, logger *slog.Logger) (fetchResult, error) {
	readings := make([][]domain.RawReading, len(refs))
	errs := make([]error, len(refs))

	var g errgroup.Group
	g.SetLimit(f.workers)
	for i, ref := range refs {
		g.Go(func() error {
			readings[i], errs[i] = f.fetchStation(ctx, ref, start, end, logger)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return fetchResult{}, err
	}

	var failed []string
	causes := make(map[string]error)
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed = append(failed, refs[i])
		causes[refs[i]] = err
		f.metrics.StationFailures.Inc()
		logger.Warn("station readings unavailable", "station_reference", refs[i], "error", err)
	}

	if len(refs) > 0 && len(failed) == len(refs) {
		return fetchResult{}, &domain.PartialFailure{Failed: failed, Total: len(refs), Causes: causes}
	}
	return fetchResult{readings: readings, failed: failed}, nil
}

// fetchStation retries transient failures with exponential backoff. Client
// errors and malformed responses fail immediately.
func (f *fetcher) fetchStation(ctx context.Context, ref string, start, end time.Time, logger *slog.Logger) ([]domain.RawReading, error) {
	var readings []domain.RawReading
	op := func() error {
		r, err := f.source.StationReadings(ctx, ref, start, end)
		if err != nil {
			if !domain.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		readings = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Debug("retrying station readings", "station_reference", ref, "error", err, "wait", wait)
	}

	err := backoff.RetryNotifyWithTimer(op, f.policy(ctx), notify, &clockTimer{clock: f.clock})
	return readings, err
}

func (f *fetcher) policy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryBackoff
	b.MaxInterval = 10 * f.retryBackoff
	b.MaxElapsedTime = 0
	b.Clock = f.clock
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.maxRetries)), ctx)
}

// clockTimer adapts a clockwork clock to backoff.Timer.
type clockTimer struct {
	clock clockwork.Clock
	timer clockwork.Timer
}

func (t *clockTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = t.clock.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *clockTimer) C() <-chan time.Time {
	return t.timer.Chan()
}
