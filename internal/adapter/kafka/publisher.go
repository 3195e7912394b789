package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/rainfall-explorer/internal/config"
	"github.com/couchcryptid/rainfall-explorer/internal/domain"
	"github.com/couchcryptid/rainfall-explorer/internal/observability"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher streams query results to a Kafka topic, one message per station.
// It implements pipeline.Publisher.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured results topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// Publish writes every table row of result in a single WriteMessages call.
// Rows are keyed by station reference so a station's history stays on one
// partition.
func (p *Publisher) Publish(ctx context.Context, result domain.Result) error {
	if len(result.Table) == 0 {
		return nil
	}
	msgs, err := resultMessages(result)
	if err != nil {
		p.metrics.ResultsPublished.WithLabelValues("error").Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.metrics.ResultsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish %d station totals: %w", len(msgs), err)
	}
	p.metrics.ResultsPublished.WithLabelValues("success").Inc()
	p.logger.Debug("result published", "query_id", result.QueryID, "messages", len(msgs))
	return nil
}

// Close flushes pending messages and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// stationTotal is the wire form of one published row.
type stationTotal struct {
	QueryID          string    `json:"query_id"`
	Selection        string    `json:"selection"`
	Rank             int       `json:"rank"`
	StationReference string    `json:"station_reference"`
	Label            string    `json:"label"`
	Easting          float64   `json:"easting"`
	Northing         float64   `json:"northing"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	TotalRainfall    float64   `json:"total_rainfall"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// resultMessages serializes each table row, in rank order, into a Kafka message.
func resultMessages(result domain.Result) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, len(result.Table))
	for i, row := range result.Table {
		rec := stationTotal{
			QueryID:          result.QueryID,
			Selection:        result.Selection,
			Rank:             i + 1,
			StationReference: row.Reference,
			Label:            row.Label,
			Easting:          row.Easting,
			Northing:         row.Northing,
			TotalRainfall:    row.TotalRainfall,
			GeneratedAt:      result.GeneratedAt,
		}
		if i < len(result.Points) {
			rec.Latitude = result.Points[i].Latitude
			rec.Longitude = result.Points[i].Longitude
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("serialize station total %s: %w", row.Reference, err)
		}
		msgs[i] = kafkago.Message{
			Key:   []byte(row.Reference),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "query_id", Value: []byte(result.QueryID)},
				{Key: "generated_at", Value: []byte(result.GeneratedAt.Format(time.RFC3339))},
			},
		}
	}
	return msgs, nil
}
