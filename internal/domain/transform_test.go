package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

const (
	testRefA = "E1001"
	testRefB = "E1002"
	testRefC = "E1003"
)

func TestParseReadingValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantErr bool
	}{
		{"number", "0.2", 0.2, false},
		{"integer", "5", 5, false},
		{"negative", "-1.5", -1.5, false},
		{"quoted number", `"0.4"`, 0.4, false},
		{"quoted with spaces", `" 1.0 "`, 1.0, false},
		{"null", "null", 0, true},
		{"empty", "", 0, true},
		{"array", "[0.2,0.4]", 0, true},
		{"object", `{"v":1}`, 0, true},
		{"text", `"n/a"`, 0, true},
		{"nan", `"NaN"`, 0, true},
		{"infinity", `"Inf"`, 0, true},
		{"bad quoting", `"0.2`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReadingValue(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestValidateReadings(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
	raws := []RawReading{
		{StationReference: testRefA, Timestamp: ts, Value: "0"},
		{StationReference: testRefA, Timestamp: ts, Value: "100"},
		{StationReference: testRefA, Timestamp: ts, Value: "100.01"},
		{StationReference: testRefA, Timestamp: ts, Value: "-0.1"},
		{StationReference: testRefB, Timestamp: ts, Value: "null"},
		{StationReference: testRefB, Timestamp: ts, Value: `"2.5"`, Quality: ptr.To("Good")},
	}

	valid, rejected := ValidateReadings(raws)

	require.Len(t, valid, 3)
	assert.Equal(t, 0.0, valid[0].Value)
	assert.Equal(t, 100.0, valid[1].Value)
	assert.Equal(t, 2.5, valid[2].Value)
	assert.Equal(t, "Good", ptr.Deref(valid[2].Quality, ""))
	assert.Equal(t, ts, valid[0].Timestamp)

	require.Len(t, rejected, 3)
	assert.Equal(t, "100.01", rejected[0].Value)
	assert.Equal(t, "-0.1", rejected[1].Value)
	assert.Equal(t, testRefB, rejected[2].StationReference)
	assert.Contains(t, rejected[2].Error(), testRefB)
}

func TestValidateReadings_OutOfRangeNeverSummed(t *testing.T) {
	values := []string{"-1000", "-0.0001", "100.0001", "150", "1e6"}
	raws := make([]RawReading, 0, len(values))
	for _, v := range values {
		raws = append(raws, RawReading{StationReference: testRefA, Value: v})
	}

	valid, rejected := ValidateReadings(raws)

	assert.Empty(t, valid)
	assert.Len(t, rejected, len(values))
	assert.Empty(t, Aggregate(valid))
}

func TestAggregate(t *testing.T) {
	readings := []Reading{
		{StationReference: testRefB, Value: 1.0},
		{StationReference: testRefA, Value: 5.0},
		{StationReference: testRefB, Value: 2.5},
		{StationReference: testRefA, Value: 10.0},
	}

	got := Aggregate(readings)

	want := []AggregateResult{
		{StationReference: testRefB, TotalRainfall: 3.5, ReadingCount: 2},
		{StationReference: testRefA, TotalRainfall: 15.0, ReadingCount: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}

func TestMerge_LeftJoinDefaultsToZero(t *testing.T) {
	stations := []Station{
		{Reference: testRefA, Label: "Alpha", Easting: 380000, Northing: 280000},
		{Reference: testRefB, Label: "Bravo", Easting: 381000, Northing: 281000},
		{Reference: testRefC, Label: "Charlie", Easting: 382000, Northing: 282000},
	}
	aggregates := []AggregateResult{
		{StationReference: testRefC, TotalRainfall: 4.26, ReadingCount: 3},
		{StationReference: "UNKNOWN", TotalRainfall: 99, ReadingCount: 1},
	}

	merged := Merge(stations, aggregates)

	require.Len(t, merged, len(stations))
	assert.Equal(t, testRefA, merged[0].Reference)
	assert.Equal(t, 0.0, merged[0].TotalRainfall)
	assert.Equal(t, 0, merged[0].ReadingCount)
	assert.Equal(t, 0.0, merged[1].TotalRainfall)
	assert.Equal(t, 4.3, merged[2].TotalRainfall)
	assert.Equal(t, 3, merged[2].ReadingCount)
	assert.Equal(t, "Charlie", merged[2].Label)
}

func TestMerge_JoinIsExact(t *testing.T) {
	stations := []Station{{Reference: "e1001"}, {Reference: " E1001"}}
	merged := Merge(stations, []AggregateResult{{StationReference: testRefA, TotalRainfall: 1}})

	for _, rec := range merged {
		assert.Equal(t, 0.0, rec.TotalRainfall, rec.Reference)
	}
}

func TestMerge_NoStations(t *testing.T) {
	assert.Empty(t, Merge(nil, []AggregateResult{{StationReference: testRefA}}))
}

func TestRoundTenth(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.04, 0},
		{0.05, 0.1},
		{15.0, 15.0},
		{12.345, 12.3},
		{0.1 + 0.2, 0.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundTenth(tt.in), "roundTenth(%v)", tt.in)
	}
}
