package domain

import (
	"context"
	"log/slog"
)

// DescribeSelection renders the query selection and, when a geocoder is
// configured and succeeds, appends the nearest place name. Geocoding failures
// degrade to the plain description.
func DescribeSelection(ctx context.Context, q Query, geocoder Geocoder, logger *slog.Logger) string {
	desc := q.Describe()
	if geocoder == nil {
		return desc
	}

	result, err := geocoder.ReverseGeocode(ctx, q.Latitude, q.Longitude)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", q.Latitude,
			"lon", q.Longitude,
			"error", err,
		)
		return desc
	}
	if result.PlaceName == "" {
		return desc
	}
	return desc + " near " + result.PlaceName
}
