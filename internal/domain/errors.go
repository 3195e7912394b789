package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoStationsFound is returned when the registry has no rainfall
	// stations in the requested area. It is an outcome, not a fault.
	ErrNoStationsFound = errors.New("no stations found in the specified area")

	// ErrNoReadingsFound is returned when stations exist but none produced a
	// valid reading in the requested window.
	ErrNoReadingsFound = errors.New("no rainfall data found for the specified dates and area")

	// ErrInvalidInput marks a query that violates the input contract.
	ErrInvalidInput = errors.New("invalid query")

	// ErrMissingField marks a response item without a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrSuperseded is returned for a run cancelled by a newer one.
	ErrSuperseded = errors.New("query superseded by a newer request")
)

// ConversionError reports a coordinate outside the projection's valid domain.
type ConversionError struct {
	Op    string // "to_grid" or "to_geographic"
	X, Y  float64
	Index int // position within a batch, -1 for single conversions
	Cause string
}

func (e *ConversionError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("coordinate conversion %s failed at index %d (%g, %g): %s", e.Op, e.Index, e.X, e.Y, e.Cause)
	}
	return fmt.Sprintf("coordinate conversion %s failed (%g, %g): %s", e.Op, e.X, e.Y, e.Cause)
}

// NetworkError reports a failed call to an upstream endpoint. StatusCode is 0
// when the request never produced an HTTP response.
type NetworkError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: transport errors,
// timeouts, throttling and server errors. Client errors are final.
func (e *NetworkError) Retryable() bool {
	if errors.Is(e.Err, ErrMissingField) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a transient NetworkError.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Retryable()
	}
	return false
}

// ValidationError describes a reading dropped by the validator. It never
// leaves the domain package as a returned error; it is logged and counted.
type ValidationError struct {
	StationReference string
	Value            string
	Reason           string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("reading from %s rejected (%q): %s", e.StationReference, e.Value, e.Reason)
}

// PartialFailure lists stations whose readings could not be fetched. When
// Failed covers every station it is returned as a terminal error; otherwise
// it is only logged and reported in the summary.
type PartialFailure struct {
	Failed []string
	Total  int
	Causes map[string]error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%d of %d stations failed to return readings: %s",
		len(e.Failed), e.Total, strings.Join(e.Failed, ", "))
}

// All reports whether every station failed.
func (e *PartialFailure) All() bool {
	return e.Total > 0 && len(e.Failed) == e.Total
}

// StatusMessage maps a pipeline outcome to the status line shown to users.
func StatusMessage(err error) string {
	var (
		convErr *ConversionError
		netErr  *NetworkError
		partial *PartialFailure
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoStationsFound):
		return "No stations found in the specified area."
	case errors.Is(err, ErrNoReadingsFound):
		return "No rainfall data found for the specified dates and area."
	case errors.Is(err, ErrSuperseded):
		return "Query superseded by a newer request."
	case errors.Is(err, ErrInvalidInput):
		return "Please enter a valid selection: " + err.Error()
	case errors.As(err, &convErr):
		return "The selected location is outside the supported area: " + convErr.Error()
	case errors.As(err, &partial):
		return "Failed to fetch readings from every station: " + partial.Error()
	case errors.As(err, &netErr):
		return "Station registry unavailable: " + netErr.Error()
	default:
		return "An error occurred: " + err.Error()
	}
}

// Outcome classifies a pipeline result for metrics and API responses. An
// upstream call that hit its own deadline is an upstream failure; only a bare
// context error means the caller went away.
func Outcome(err error) string {
	var (
		convErr *ConversionError
		netErr  *NetworkError
		partial *PartialFailure
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoStationsFound):
		return "no_stations"
	case errors.Is(err, ErrNoReadingsFound):
		return "no_readings"
	case errors.Is(err, ErrSuperseded):
		return "superseded"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.As(err, &convErr):
		return "conversion"
	case errors.As(err, &netErr), errors.As(err, &partial):
		return "upstream"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "upstream"
	}
}
