// Package environmentagency talks to the Environment Agency hydrology station
// registry and the flood-monitoring readings API.
package environmentagency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
	"github.com/couchcryptid/rainfall-explorer/internal/observability"
)

const (
	endpointStations = "stations"
	endpointReadings = "readings"

	maxErrorBody = 512
)

// Client performs JSON GET requests against Environment Agency endpoints.
// Timeouts are applied per call by the registry and readings clients.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a client with a traced transport.
func NewClient(logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:  logger,
		metrics: metrics,
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint, fullURL string, v any) error {
	start := time.Now()
	err := c.doRequest(ctx, endpoint, fullURL, v)

	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	return err
}

func (c *Client) doRequest(ctx context.Context, endpoint, fullURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &domain.NetworkError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &domain.NetworkError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}
