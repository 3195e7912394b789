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
	"github.com/couchcryptid/rainfall-explorer/internal/geodesy"
)

// StationRegistry finds rainfall stations around a grid point.
type StationRegistry struct {
	client  *Client
	baseURL string
	limit   int
	timeout time.Duration
}

// NewStationRegistry creates a registry client for the hydrology stations endpoint.
func NewStationRegistry(client *Client, baseURL string, limit int, timeout time.Duration) *StationRegistry {
	return &StationRegistry{
		client:  client,
		baseURL: baseURL,
		limit:   limit,
		timeout: timeout,
	}
}

// FindStations returns rainfall stations within radiusKm of the grid point, in
// registry order. It returns domain.ErrNoStationsFound when nothing usable
// comes back. The call is never retried.
func (r *StationRegistry) FindStations(ctx context.Context, easting, northing float64, radiusKm int) ([]domain.Station, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	params := url.Values{
		"observedProperty": {"rainfall"},
		"easting":          {strconv.FormatFloat(easting, 'f', 0, 64)},
		"northing":         {strconv.FormatFloat(northing, 'f', 0, 64)},
		"dist":             {strconv.Itoa(radiusKm)},
		"_limit":           {strconv.Itoa(r.limit)},
	}

	var resp stationsResponse
	if err := r.client.getJSON(ctx, endpointStations, r.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	stations := make([]domain.Station, 0, len(resp.Items))
	seen := make(map[string]struct{}, len(resp.Items))
	for i, item := range resp.Items {
		st, err := item.toStation()
		if err != nil {
			r.client.logger.Warn("dropping station item", "index", i, "error", err)
			continue
		}
		if _, dup := seen[st.Reference]; dup {
			r.client.logger.Debug("dropping duplicate station", "station_reference", st.Reference)
			continue
		}
		seen[st.Reference] = struct{}{}
		stations = append(stations, st)
	}

	if len(stations) == 0 {
		return nil, domain.ErrNoStationsFound
	}
	return stations, nil
}

// Hydrology API response types.

type stationsResponse struct {
	Items []stationItem `json:"items"`
}

type stationItem struct {
	StationReference string          `json:"stationReference"`
	Label            json.RawMessage `json:"label"`
	Easting          json.RawMessage `json:"easting"`
	Northing         json.RawMessage `json:"northing"`
}

func (s stationItem) toStation() (domain.Station, error) {
	ref := strings.TrimSpace(s.StationReference)
	if ref == "" {
		return domain.Station{}, fmt.Errorf("stationReference: %w", domain.ErrMissingField)
	}
	easting, ok := parseNumber(s.Easting)
	if !ok {
		return domain.Station{}, fmt.Errorf("station %s easting: %w", ref, domain.ErrMissingField)
	}
	northing, ok := parseNumber(s.Northing)
	if !ok {
		return domain.Station{}, fmt.Errorf("station %s northing: %w", ref, domain.ErrMissingField)
	}
	if err := geodesy.CheckGrid(easting, northing); err != nil {
		return domain.Station{}, fmt.Errorf("station %s: %w", ref, err)
	}

	label := parseLabel(s.Label)
	if label == "" {
		label = ref
	}
	return domain.Station{
		Reference: ref,
		Label:     label,
		Easting:   easting,
		Northing:  northing,
	}, nil
}

// parseNumber accepts a JSON number or a numeric string.
func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		f, err := n.Float64()
		return f, err == nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// parseLabel accepts a string or an array of strings, using the first element.
func parseLabel(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}
