package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Assemble sorts merged records by total rainfall (descending, ties by
// ascending reference) and builds the row-aligned table and map points plus
// the summary status line. readingCount is the number of valid readings that
// went into the totals.
func Assemble(records []MergedRecord, readingCount int, failed []string) Result {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b MergedRecord) int {
		return cmp.Or(
			cmp.Compare(b.TotalRainfall, a.TotalRainfall),
			strings.Compare(a.Reference, b.Reference),
		)
	})

	table := make([]TableRow, len(sorted))
	points := make([]MapPoint, len(sorted))
	for i, rec := range sorted {
		table[i] = TableRow{
			Label:         rec.Label,
			Reference:     rec.Reference,
			Easting:       rec.Easting,
			Northing:      rec.Northing,
			TotalRainfall: rec.TotalRainfall,
		}
		points[i] = MapPoint{
			Latitude:      rec.Latitude,
			Longitude:     rec.Longitude,
			TotalRainfall: rec.TotalRainfall,
			Label:         rec.Label,
		}
	}

	failedCopy := slices.Clone(failed)
	slices.Sort(failedCopy)
	if failedCopy == nil {
		failedCopy = []string{}
	}

	return Result{
		Status:         Summarize(len(records), readingCount, len(failedCopy)),
		Table:          table,
		Points:         points,
		StationCount:   len(records),
		ReadingCount:   readingCount,
		FailedStations: failedCopy,
	}
}

// Summarize renders the status line for a completed query.
func Summarize(stations, readings, failed int) string {
	msg := fmt.Sprintf("Found %d stations and %d rainfall readings.", stations, readings)
	if failed > 0 {
		msg += fmt.Sprintf(" %d of %d stations failed to return readings.", failed, stations)
	}
	return msg
}
