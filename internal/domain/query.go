package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	// MinRadiusKm and MaxRadiusKm bound the search radius accepted from callers.
	MinRadiusKm = 1
	MaxRadiusKm = 200

	// DefaultRadiusKm is the radius used when a caller does not choose one.
	DefaultRadiusKm = 20

	// DateLayout is the calendar date format used in queries and upstream URLs.
	DateLayout = "2006-01-02"
)

// Query is the pipeline input supplied by the UI layer.
type Query struct {
	Latitude  float64
	Longitude float64
	RadiusKm  int
	StartDate time.Time
	EndDate   time.Time
}

// Validate checks the input contract. Dates are compared as calendar days.
func (q Query) Validate() error {
	if math.IsNaN(q.Latitude) || math.IsInf(q.Latitude, 0) || q.Latitude < -90 || q.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidInput, q.Latitude)
	}
	if math.IsNaN(q.Longitude) || math.IsInf(q.Longitude, 0) || q.Longitude < -180 || q.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidInput, q.Longitude)
	}
	if q.RadiusKm < MinRadiusKm || q.RadiusKm > MaxRadiusKm {
		return fmt.Errorf("%w: radius must be between %d and %d km, got %d", ErrInvalidInput, MinRadiusKm, MaxRadiusKm, q.RadiusKm)
	}
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if truncateDay(q.StartDate).After(truncateDay(q.EndDate)) {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidInput,
			q.StartDate.Format(DateLayout), q.EndDate.Format(DateLayout))
	}
	return nil
}

// Describe renders the selection the way the explorer's summary bar shows it,
// e.g. "(52.45, -2.15) +20km | 2024-01-01 to 2024-01-02".
func (q Query) Describe() string {
	return fmt.Sprintf("(%.2f, %.2f) +%dkm | %s to %s",
		q.Latitude, q.Longitude, q.RadiusKm,
		q.StartDate.Format(DateLayout), q.EndDate.Format(DateLayout))
}

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return t, nil
}

// Today returns the current calendar date in UTC according to the package clock.
func Today() time.Time {
	return truncateDay(clock.Now())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
