package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rainfall"

// Metrics holds the Prometheus counters and histograms for rainfall queries.
type Metrics struct {
	Queries       *prometheus.CounterVec // labels: outcome={ok,no_stations,no_readings,invalid,conversion,upstream,superseded,cancelled}
	QueryDuration prometheus.Histogram

	// Upstream (Environment Agency) calls.
	UpstreamRequests *prometheus.CounterVec   // labels: endpoint={stations,readings}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: endpoint
	StationFailures  prometheus.Counter

	// Validation.
	ReadingsAccepted   prometheus.Counter
	ReadingsDropped    prometheus.Counter
	StationsDiscovered prometheus.Histogram

	// Optional enrichers.
	GeocodeRequests  *prometheus.CounterVec // labels: outcome={success,error,empty}
	ResultsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Queries,
		m.QueryDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.StationFailures,
		m.ReadingsAccepted,
		m.ReadingsDropped,
		m.StationsDiscovered,
		m.GeocodeRequests,
		m.ResultsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Rainfall queries by outcome.",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Duration of a complete rainfall query.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Environment Agency API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Environment Agency API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		StationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_fetch_failures_total",
			Help:      "Stations whose readings could not be fetched after retries.",
		}),
		ReadingsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_accepted_total",
			Help:      "Readings that passed validation.",
		}),
		ReadingsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_dropped_total",
			Help:      "Readings rejected by validation.",
		}),
		StationsDiscovered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stations_discovered",
			Help:      "Number of stations found per query.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding requests by outcome.",
		}, []string{"outcome"}),
		ResultsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_published_total",
			Help:      "Query results published to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}
