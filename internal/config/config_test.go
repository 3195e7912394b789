package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMapboxToken = "pk.test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://environment.data.gov.uk/hydrology/id/stations", cfg.StationsURL)
	assert.Equal(t, "https://environment.data.gov.uk/flood-monitoring/data/readings", cfg.ReadingsURL)
	assert.Equal(t, 100000, cfg.StationsLimit)
	assert.Equal(t, 10000, cfg.ReadingsLimit)
	assert.Equal(t, 30*time.Second, cfg.StationsTimeout)
	assert.Equal(t, 30*time.Second, cfg.ReadingsTimeout)
	assert.Equal(t, 8, cfg.ReadingsWorkers)
	assert.Equal(t, 2, cfg.ReadingsMaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.ReadingsRetryBackoff)
	assert.False(t, cfg.MapboxEnabled)
	assert.Empty(t, cfg.MapboxToken)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "rainfall-totals", cfg.KafkaResultsTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("STATIONS_URL", "http://localhost:8081/hydrology/id/stations")
	t.Setenv("READINGS_URL", "http://localhost:8081/flood-monitoring/data/readings")
	t.Setenv("STATIONS_LIMIT", "500")
	t.Setenv("READINGS_LIMIT", "2000")
	t.Setenv("STATIONS_TIMEOUT", "5s")
	t.Setenv("READINGS_TIMEOUT", "3s")
	t.Setenv("READINGS_WORKERS", "4")
	t.Setenv("READINGS_MAX_RETRIES", "0")
	t.Setenv("READINGS_RETRY_BACKOFF", "1s")
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_RESULTS_TOPIC", "custom-totals")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:8081/hydrology/id/stations", cfg.StationsURL)
	assert.Equal(t, "http://localhost:8081/flood-monitoring/data/readings", cfg.ReadingsURL)
	assert.Equal(t, 500, cfg.StationsLimit)
	assert.Equal(t, 2000, cfg.ReadingsLimit)
	assert.Equal(t, 5*time.Second, cfg.StationsTimeout)
	assert.Equal(t, 3*time.Second, cfg.ReadingsTimeout)
	assert.Equal(t, 4, cfg.ReadingsWorkers)
	assert.Equal(t, 0, cfg.ReadingsMaxRetries)
	assert.Equal(t, 1*time.Second, cfg.ReadingsRetryBackoff)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, testMapboxToken, cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "custom-totals", cfg.KafkaResultsTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidDurations(t *testing.T) {
	for _, key := range []string{"STATIONS_TIMEOUT", "READINGS_TIMEOUT", "READINGS_RETRY_BACKOFF", "MAPBOX_TIMEOUT"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "bad")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_NegativeReadingsTimeout(t *testing.T) {
	t.Setenv("READINGS_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "READINGS_TIMEOUT")
}

func TestLoad_InvalidIntegers(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"READINGS_WORKERS", "0"},
		{"READINGS_WORKERS", "65"},
		{"READINGS_WORKERS", "many"},
		{"READINGS_MAX_RETRIES", "-1"},
		{"READINGS_MAX_RETRIES", "11"},
		{"STATIONS_LIMIT", "0"},
		{"READINGS_LIMIT", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_InvalidURL(t *testing.T) {
	t.Setenv("STATIONS_URL", "/relative/path")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATIONS_URL")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_MapboxExplicitlyDisabled(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", testMapboxToken)
	t.Setenv("MAPBOX_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_PublishRequiresTopic(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_RESULTS_TOPIC", "")
	cfg, err := Load()
	// An empty variable falls back to the default topic.
	require.NoError(t, err)
	assert.Equal(t, "rainfall-totals", cfg.KafkaResultsTopic)
}
