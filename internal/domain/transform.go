package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	// MinValidReading and MaxValidReading bound a plausible reading in mm.
	// Values outside the band are sensor faults or sentinel values.
	MinValidReading = 0.0
	MaxValidReading = 100.0
)

var errUnparseable = errors.New("value is not numeric")

// ParseReadingValue parses the raw JSON token text of a reading value.
// Numbers and numeric strings are accepted; null, arrays, objects, NaN and
// infinities are not.
func ParseReadingValue(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "null" {
		return 0, errUnparseable
	}
	if strings.HasPrefix(s, `"`) {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return 0, errUnparseable
		}
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errUnparseable
	}
	return v, nil
}

// ValidateReadings keeps readings whose value parses and lies within
// [MinValidReading, MaxValidReading]. Rejections are returned for logging;
// they are not errors.
func ValidateReadings(raws []RawReading) ([]Reading, []ValidationError) {
	valid := make([]Reading, 0, len(raws))
	var rejected []ValidationError

	for _, raw := range raws {
		v, err := ParseReadingValue(raw.Value)
		if err != nil {
			rejected = append(rejected, ValidationError{
				StationReference: raw.StationReference,
				Value:            raw.Value,
				Reason:           err.Error(),
			})
			continue
		}
		if v < MinValidReading || v > MaxValidReading {
			rejected = append(rejected, ValidationError{
				StationReference: raw.StationReference,
				Value:            raw.Value,
				Reason:           "value outside plausible range",
			})
			continue
		}
		valid = append(valid, Reading{
			StationReference: raw.StationReference,
			Timestamp:        raw.Timestamp,
			Value:            v,
			Quality:          raw.Quality,
		})
	}
	return valid, rejected
}

// Aggregate sums readings per station. Results are ordered by first
// appearance of each station so the output is deterministic.
func Aggregate(readings []Reading) []AggregateResult {
	index := make(map[string]int)
	var out []AggregateResult

	for _, r := range readings {
		i, ok := index[r.StationReference]
		if !ok {
			i = len(out)
			index[r.StationReference] = i
			out = append(out, AggregateResult{StationReference: r.StationReference})
		}
		out[i].TotalRainfall += r.Value
		out[i].ReadingCount++
	}
	return out
}

// Merge left-joins stations with aggregates on exact reference equality.
// Every station appears once, in input order; stations without an aggregate
// get a total of zero. Totals are rounded to one decimal place.
func Merge(stations []Station, aggregates []AggregateResult) []MergedRecord {
	byRef := make(map[string]AggregateResult, len(aggregates))
	for _, a := range aggregates {
		byRef[a.StationReference] = a
	}

	merged := make([]MergedRecord, len(stations))
	for i, s := range stations {
		rec := MergedRecord{Station: s}
		if a, ok := byRef[s.Reference]; ok {
			rec.TotalRainfall = roundTenth(a.TotalRainfall)
			rec.ReadingCount = a.ReadingCount
		}
		merged[i] = rec
	}
	return merged
}

// roundTenth rounds half away from zero to one decimal place. Negative zero
// is normalised so totals are never reported as -0.
func roundTenth(v float64) float64 {
	r := math.Round(v*10) / 10
	if r == 0 {
		return 0
	}
	return r
}
