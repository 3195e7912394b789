package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	defaultStationsURL = "https://environment.data.gov.uk/hydrology/id/stations"
	defaultReadingsURL = "https://environment.data.gov.uk/flood-monitoring/data/readings"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Environment Agency endpoints.
	StationsURL     string
	ReadingsURL     string
	StationsLimit   int
	ReadingsLimit   int
	StationsTimeout time.Duration
	ReadingsTimeout time.Duration

	// Readings fan-out.
	ReadingsWorkers      int
	ReadingsMaxRetries   int
	ReadingsRetryBackoff time.Duration

	// Mapbox reverse geocoding of the query centre.
	MapboxToken   string
	MapboxEnabled bool
	MapboxTimeout time.Duration

	// Optional result stream. Publishing is disabled when no brokers are set.
	KafkaBrokers      []string
	KafkaResultsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	stationsTimeout, err := parseDuration("STATIONS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	readingsTimeout, err := parseDuration("READINGS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	retryBackoff, err := parseDuration("READINGS_RETRY_BACKOFF", "250ms")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	stationsLimit, err := parseInt("STATIONS_LIMIT", 100000, 1, 1000000)
	if err != nil {
		return nil, err
	}
	readingsLimit, err := parseInt("READINGS_LIMIT", 10000, 1, 1000000)
	if err != nil {
		return nil, err
	}
	workers, err := parseInt("READINGS_WORKERS", 8, 1, 64)
	if err != nil {
		return nil, err
	}
	maxRetries, err := parseInt("READINGS_MAX_RETRIES", 2, 0, 10)
	if err != nil {
		return nil, err
	}

	stationsURL, err := parseURL("STATIONS_URL", defaultStationsURL)
	if err != nil {
		return nil, err
	}
	readingsURL, err := parseURL("READINGS_URL", defaultReadingsURL)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		StationsURL:     stationsURL,
		ReadingsURL:     readingsURL,
		StationsLimit:   stationsLimit,
		ReadingsLimit:   readingsLimit,
		StationsTimeout: stationsTimeout,
		ReadingsTimeout: readingsTimeout,

		ReadingsWorkers:      workers,
		ReadingsMaxRetries:   maxRetries,
		ReadingsRetryBackoff: retryBackoff,

		MapboxToken:   mapboxToken,
		MapboxEnabled: mapboxEnabled,
		MapboxTimeout: mapboxTimeout,

		KafkaBrokers:      brokers,
		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "rainfall-totals"),
	}

	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.PublishEnabled() && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// PublishEnabled reports whether query results are streamed to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

func parseURL(key, def string) (string, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid %s: %q is not an absolute URL", key, s)
	}
	return s, nil
}
