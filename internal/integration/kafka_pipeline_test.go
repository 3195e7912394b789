//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/rainfall-explorer/internal/adapter/environmentagency"
	"github.com/couchcryptid/rainfall-explorer/internal/adapter/kafka"
	"github.com/couchcryptid/rainfall-explorer/internal/config"
	"github.com/couchcryptid/rainfall-explorer/internal/domain"
	"github.com/couchcryptid/rainfall-explorer/internal/mockea"
	"github.com/couchcryptid/rainfall-explorer/internal/observability"
	"github.com/couchcryptid/rainfall-explorer/internal/pipeline"
)

const testResultsTopic = "test-rainfall-totals"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("rainfall-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type publishedTotal struct {
	QueryID          string  `json:"query_id"`
	Rank             int     `json:"rank"`
	StationReference string  `json:"station_reference"`
	TotalRainfall    float64 `json:"total_rainfall"`
}

// TestPipelinePublishesToKafka runs a query against the fixture server and
// reads the published station totals back from a real broker.
func TestPipelinePublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testResultsTopic)

	srv := httptest.NewServer(mockea.Default().Handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		KafkaBrokers:      []string{broker},
		KafkaResultsTopic: testResultsTopic,
	}
	metrics := observability.NewMetricsForTesting()
	publisher := kafka.NewPublisher(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = publisher.Close() })

	client := environmentagency.NewClient(discardLogger(), metrics)
	p := pipeline.New(
		environmentagency.NewStationRegistry(client, srv.URL+mockea.StationsPath, 100000, 10*time.Second),
		environmentagency.NewReadingsClient(client, srv.URL+mockea.ReadingsPath, 10000, 10*time.Second),
		pipeline.FetchConfig{Workers: 4, MaxRetries: 1, RetryBackoff: 10 * time.Millisecond},
		discardLogger(),
		metrics,
		pipeline.WithPublisher(publisher),
	)

	start, _ := domain.ParseDate("2024-01-01")
	end, _ := domain.ParseDate("2024-01-02")
	result, err := p.Run(ctx, domain.Query{Latitude: 52.45, Longitude: -2.15, RadiusKm: 20, StartDate: start, EndDate: end})
	require.NoError(t, err)
	require.Len(t, result.Table, 5)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testResultsTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	var got []publishedTotal
	for range result.Table {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from results topic")

		var total publishedTotal
		require.NoError(t, json.Unmarshal(msg.Value, &total))
		assert.Equal(t, total.StationReference, string(msg.Key))
		got = append(got, total)
	}

	for i, total := range got {
		assert.Equal(t, result.QueryID, total.QueryID)
		assert.Equal(t, i+1, total.Rank)
		assert.Equal(t, result.Table[i].Reference, total.StationReference)
		assert.InDelta(t, result.Table[i].TotalRainfall, total.TotalRainfall, 1e-9)
	}
}
