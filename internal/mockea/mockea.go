// Package mockea serves deterministic stand-ins for the Environment Agency
// station registry and readings endpoints. It backs the pipeline tests and
// cmd/mockserver.
package mockea

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// Paths mirror the real API so only the host differs.
const (
	StationsPath = "/hydrology/id/stations"
	ReadingsPath = "/flood-monitoring/data/readings"
)

// Station is a registry entry.
type Station struct {
	Reference string
	Label     string
	Easting   float64
	Northing  float64
}

// Reading is one rainfall reading. Value is the JSON token written as-is,
// so fixtures can serve numbers, quoted strings or null.
type Reading struct {
	DateTime time.Time
	Value    string
}

// Fixture holds the data and injected faults served by Handler. It is safe
// for concurrent use.
type Fixture struct {
	stations []Station
	readings map[string][]Reading

	mu            sync.Mutex
	stationsFault int
	stationsDelay time.Duration
	faults        map[string][]int
	delays        map[string]time.Duration
	stationCalls  int
	readingCalls  map[string]int
}

// New creates a fixture serving the given stations and per-station readings.
func New(stations []Station, readings map[string][]Reading) *Fixture {
	if readings == nil {
		readings = map[string][]Reading{}
	}
	return &Fixture{
		stations:     stations,
		readings:     readings,
		faults:       map[string][]int{},
		delays:       map[string]time.Duration{},
		readingCalls: map[string]int{},
	}
}

// FailStations makes every registry request answer with status.
func (f *Fixture) FailStations(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stationsFault = status
}

// DelayStations delays every registry response.
func (f *Fixture) DelayStations(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stationsDelay = d
}

// FailReadings queues statuses returned, one per request, for a station's
// readings before it starts succeeding. A status of 0 is ignored.
func (f *Fixture) FailReadings(ref string, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[ref] = append(f.faults[ref], statuses...)
}

// DelayReadings delays every readings response for ref.
func (f *Fixture) DelayReadings(ref string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[ref] = d
}

// StationCalls returns the number of registry requests served.
func (f *Fixture) StationCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stationCalls
}

// ReadingCalls returns the number of readings requests served for ref.
func (f *Fixture) ReadingCalls(ref string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readingCalls[ref]
}

// TotalReadingCalls returns the number of readings requests across stations.
func (f *Fixture) TotalReadingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, c := range f.readingCalls {
		n += c
	}
	return n
}

// Handler returns the HTTP handler for both endpoints.
func (f *Fixture) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+StationsPath, f.handleStations)
	mux.HandleFunc("GET "+ReadingsPath, f.handleReadings)
	return mux
}

func (f *Fixture) handleStations(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.stationCalls++
	fault := f.stationsFault
	delay := f.stationsDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if fault != 0 {
		http.Error(w, http.StatusText(fault), fault)
		return
	}

	q := r.URL.Query()
	easting, eErr := strconv.ParseFloat(q.Get("easting"), 64)
	northing, nErr := strconv.ParseFloat(q.Get("northing"), 64)
	dist, dErr := strconv.ParseFloat(q.Get("dist"), 64)
	filter := eErr == nil && nErr == nil && dErr == nil
	limit := parseLimit(q.Get("_limit"))

	items := make([]stationItem, 0, len(f.stations))
	for _, st := range f.stations {
		if filter && math.Hypot(st.Easting-easting, st.Northing-northing) > dist*1000 {
			continue
		}
		if len(items) == limit {
			break
		}
		items = append(items, stationItem{
			ID:               "http://environment.data.gov.uk/hydrology/id/stations/" + st.Reference,
			StationReference: st.Reference,
			Label:            st.Label,
			Easting:          st.Easting,
			Northing:         st.Northing,
		})
	}
	sharedobs.WriteJSON(w, http.StatusOK, envelope[stationItem]{Items: items})
}

func (f *Fixture) handleReadings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ref := q.Get("stationReference")

	f.mu.Lock()
	f.readingCalls[ref]++
	var fault int
	if queue := f.faults[ref]; len(queue) > 0 {
		fault, f.faults[ref] = queue[0], queue[1:]
	}
	delay := f.delays[ref]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if fault != 0 {
		http.Error(w, http.StatusText(fault), fault)
		return
	}

	start, sErr := time.Parse(time.DateOnly, q.Get("startdate"))
	end, eErr := time.Parse(time.DateOnly, q.Get("enddate"))
	limit := parseLimit(q.Get("_limit"))

	items := make([]readingItem, 0, len(f.readings[ref]))
	for _, rd := range f.readings[ref] {
		day := rd.DateTime.UTC().Truncate(24 * time.Hour)
		if (sErr == nil && day.Before(start)) || (eErr == nil && day.After(end)) {
			continue
		}
		if len(items) == limit {
			break
		}
		value := rd.Value
		if value == "" {
			value = "null"
		}
		items = append(items, readingItem{
			DateTime: rd.DateTime.UTC().Format(time.RFC3339),
			Value:    json.RawMessage(value),
			Measure: measure{
				ID:               "http://environment.data.gov.uk/flood-monitoring/id/measures/" + ref + "-rainfall-tipping_bucket_raingauge-t-15_min-mm",
				StationReference: ref,
			},
		})
	}
	sharedobs.WriteJSON(w, http.StatusOK, envelope[readingItem]{Items: items})
}

func parseLimit(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return -1
	}
	return n
}

type envelope[T any] struct {
	Items []T `json:"items"`
}

type stationItem struct {
	ID               string  `json:"@id"`
	StationReference string  `json:"stationReference"`
	Label            string  `json:"label"`
	Easting          float64 `json:"easting"`
	Northing         float64 `json:"northing"`
}

type readingItem struct {
	DateTime string          `json:"dateTime"`
	Value    json.RawMessage `json:"value"`
	Measure  measure         `json:"measure"`
}

type measure struct {
	ID               string `json:"@id"`
	StationReference string `json:"stationReference"`
}
