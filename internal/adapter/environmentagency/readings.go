package environmentagency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
)

// ReadingsClient fetches rainfall readings for one station at a time.
type ReadingsClient struct {
	client  *Client
	baseURL string
	limit   int
	timeout time.Duration
}

// NewReadingsClient creates a client for the flood-monitoring readings endpoint.
func NewReadingsClient(client *Client, baseURL string, limit int, timeout time.Duration) *ReadingsClient {
	return &ReadingsClient{
		client:  client,
		baseURL: baseURL,
		limit:   limit,
		timeout: timeout,
	}
}

// StationReadings makes a single attempt to fetch the readings of one station
// between two calendar dates, inclusive. Items without a station reference are
// dropped; values are returned unparsed for the validator.
func (c *ReadingsClient) StationReadings(ctx context.Context, stationRef string, start, end time.Time) ([]domain.RawReading, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{
		"parameter":        {"rainfall"},
		"_view":            {"full"},
		"startdate":        {start.Format(domain.DateLayout)},
		"enddate":          {end.Format(domain.DateLayout)},
		"_limit":           {strconv.Itoa(c.limit)},
		"stationReference": {stationRef},
	}

	var resp readingsResponse
	if err := c.client.getJSON(ctx, endpointReadings, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	readings := make([]domain.RawReading, 0, len(resp.Items))
	for i, item := range resp.Items {
		r, err := item.toRawReading()
		if err != nil {
			c.client.logger.Debug("dropping reading item",
				"station_reference", stationRef,
				"index", i,
				"error", err,
			)
			continue
		}
		readings = append(readings, r)
	}
	return readings, nil
}

// Flood-monitoring API response types.

type readingsResponse struct {
	Items []readingItem `json:"items"`
}

type readingItem struct {
	DateTime string          `json:"dateTime"`
	Value    json.RawMessage `json:"value"`
	Quality  *string         `json:"quality"`
	Measure  json.RawMessage `json:"measure"`
}

type measure struct {
	StationReference string `json:"stationReference"`
}

func (r readingItem) toRawReading() (domain.RawReading, error) {
	// The full view embeds the measure; the default view only links to it.
	var m measure
	if len(r.Measure) == 0 || json.Unmarshal(r.Measure, &m) != nil || strings.TrimSpace(m.StationReference) == "" {
		return domain.RawReading{}, fmt.Errorf("measure.stationReference: %w", domain.ErrMissingField)
	}

	value := "null"
	if len(r.Value) > 0 {
		value = string(r.Value)
	}

	// dateTime does not take part in aggregation; an unparseable one is kept as zero.
	ts, _ := time.Parse(time.RFC3339, r.DateTime)

	return domain.RawReading{
		StationReference: strings.TrimSpace(m.StationReference),
		Timestamp:        ts,
		Value:            value,
		Quality:          r.Quality,
	}, nil
}
