package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_SortsByTotalThenReference(t *testing.T) {
	records := []MergedRecord{
		{Station: Station{Reference: "C", Label: "c"}, TotalRainfall: 2.0, Latitude: 3, Longitude: -3},
		{Station: Station{Reference: "B", Label: "b"}, TotalRainfall: 5.0, Latitude: 2, Longitude: -2},
		{Station: Station{Reference: "A", Label: "a"}, TotalRainfall: 2.0, Latitude: 1, Longitude: -1},
		{Station: Station{Reference: "D", Label: "d"}, TotalRainfall: 0.0, Latitude: 4, Longitude: -4},
	}

	result := Assemble(records, 12, nil)

	refs := make([]string, len(result.Table))
	for i, row := range result.Table {
		refs[i] = row.Reference
	}
	assert.Equal(t, []string{"B", "A", "C", "D"}, refs)

	for i := 1; i < len(result.Table); i++ {
		assert.GreaterOrEqual(t, result.Table[i-1].TotalRainfall, result.Table[i].TotalRainfall)
	}

	require.Len(t, result.Points, len(result.Table))
	for i, p := range result.Points {
		assert.Equal(t, result.Table[i].Label, p.Label)
		assert.Equal(t, result.Table[i].TotalRainfall, p.TotalRainfall)
	}
	assert.Equal(t, 1.0, result.Points[1].Latitude)
	assert.Equal(t, -1.0, result.Points[1].Longitude)

	assert.Equal(t, 4, result.StationCount)
	assert.Equal(t, 12, result.ReadingCount)
	assert.Equal(t, "Found 4 stations and 12 rainfall readings.", result.Status)
	assert.NotNil(t, result.FailedStations)
	assert.Empty(t, result.FailedStations)
}

func TestAssemble_DoesNotReorderInput(t *testing.T) {
	records := []MergedRecord{
		{Station: Station{Reference: "A"}, TotalRainfall: 1},
		{Station: Station{Reference: "B"}, TotalRainfall: 9},
	}

	Assemble(records, 0, nil)

	assert.Equal(t, "A", records[0].Reference)
}

func TestAssemble_ReportsFailures(t *testing.T) {
	records := []MergedRecord{
		{Station: Station{Reference: "A"}},
		{Station: Station{Reference: "B"}},
		{Station: Station{Reference: "C"}},
	}

	result := Assemble(records, 7, []string{"C"})

	assert.Equal(t, []string{"C"}, result.FailedStations)
	assert.Equal(t, "Found 3 stations and 7 rainfall readings. 1 of 3 stations failed to return readings.", result.Status)
}

func TestAssemble_Empty(t *testing.T) {
	result := Assemble(nil, 0, nil)

	assert.Empty(t, result.Table)
	assert.Empty(t, result.Points)
	assert.Equal(t, "Found 0 stations and 0 rainfall readings.", result.Status)
}
