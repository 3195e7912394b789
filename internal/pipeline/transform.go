package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
	"github.com/couchcryptid/rainfall-explorer/internal/geodesy"
)

// transform validates and aggregates fetched readings, joins them onto the
// stations and reprojects every station to latitude/longitude. It returns the
// merged records in station order and the number of valid readings.
func (p *Pipeline) transform(stations []domain.Station, fetched [][]domain.RawReading, logger *slog.Logger) ([]domain.MergedRecord, int, error) {
	var raws []domain.RawReading
	for _, batch := range fetched {
		raws = append(raws, batch...)
	}

	valid, rejected := domain.ValidateReadings(raws)
	p.metrics.ReadingsAccepted.Add(float64(len(valid)))
	p.metrics.ReadingsDropped.Add(float64(len(rejected)))
	for _, r := range rejected {
		logger.Debug("reading dropped", "error", &r)
	}
	if len(valid) == 0 {
		return nil, 0, domain.ErrNoReadingsFound
	}

	merged := domain.Merge(stations, domain.Aggregate(valid))

	grid := make([]geodesy.Point, len(merged))
	for i, rec := range merged {
		grid[i] = geodesy.Point{X: rec.Easting, Y: rec.Northing}
	}
	geo, err := geodesy.ToGeographicBatch(grid)
	if err != nil {
		return nil, 0, err
	}
	for i := range merged {
		merged[i].Latitude, merged[i].Longitude = geo[i].X, geo[i].Y
	}

	return merged, len(valid), nil
}
