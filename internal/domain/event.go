package domain

import "time"

// Station is a rainfall gauge returned by the station registry. Easting and
// Northing are British National Grid metres and are the source of truth for
// location; Latitude/Longitude are only set after reprojection.
type Station struct {
	Reference string  `json:"station_reference"`
	Label     string  `json:"label"`
	Easting   float64 `json:"easting"`
	Northing  float64 `json:"northing"`
}

// RawReading is one reading item as delivered by the readings endpoint.
// Value holds the raw JSON token text ("0.2", "\"0.2\"", "null") so the
// validator can decide whether it is usable.
type RawReading struct {
	StationReference string
	Timestamp        time.Time
	Value            string
	Quality          *string
}

// Reading is a RawReading whose value parsed as a finite number.
type Reading struct {
	StationReference string
	Timestamp        time.Time
	Value            float64 // mm
	Quality          *string
}

// AggregateResult is the sum of valid readings for one station.
type AggregateResult struct {
	StationReference string
	TotalRainfall    float64
	ReadingCount     int
}

// MergedRecord is a station joined with its aggregate. TotalRainfall is
// always defined; stations without valid readings carry 0.
type MergedRecord struct {
	Station
	TotalRainfall float64 `json:"total_rainfall"`
	ReadingCount  int     `json:"reading_count"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

// TableRow is one row of the sortable results table.
type TableRow struct {
	Label         string  `json:"label"`
	Reference     string  `json:"station_reference"`
	Easting       float64 `json:"easting"`
	Northing      float64 `json:"northing"`
	TotalRainfall float64 `json:"total_rainfall"`
}

// MapPoint is one geolocated marker for map rendering.
type MapPoint struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	TotalRainfall float64 `json:"total_rainfall"`
	Label         string  `json:"label"`
}

// Result is the complete output of one pipeline run. Table and Points are
// row-aligned.
type Result struct {
	QueryID        string     `json:"query_id"`
	Selection      string     `json:"selection"`
	Status         string     `json:"status"`
	Table          []TableRow `json:"table"`
	Points         []MapPoint `json:"points"`
	StationCount   int        `json:"station_count"`
	ReadingCount   int        `json:"reading_count"`
	FailedStations []string   `json:"failed_stations"`
	GeneratedAt    time.Time  `json:"generated_at"`
}
