package mockea

import (
	"fmt"
	"time"
)

// Default returns a fixture of six gauges in the West Midlands around
// (52.45, -2.15) with readings for 1–2 January 2024. It includes the shapes
// the validator must cope with: quoted values, nulls and out-of-range spikes.
// Station 2006 lies about 29 km away and only appears for wider searches.
//
// For a 20 km search over both days the totals are 2001=3.2, 2003=1.8,
// 2002=1.4, 2004=0.2 and 2005=0 from 15 valid readings.
func Default() *Fixture {
	stations := []Station{
		{Reference: "2001", Label: "Harborne", Easting: 402100, Northing: 284300},
		{Reference: "2002", Label: "Edgbaston Reservoir", Easting: 404600, Northing: 287200},
		{Reference: "2003", Label: "Halesowen", Easting: 396400, Northing: 283500},
		{Reference: "2004", Label: "Stourbridge", Easting: 389900, Northing: 284100},
		{Reference: "2005", Label: "Frankley", Easting: 399800, Northing: 280200},
		{Reference: "2006", Label: "Worcester", Easting: 385200, Northing: 255000},
	}

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	series := func(values ...string) []Reading {
		out := make([]Reading, len(values))
		for i, v := range values {
			out[i] = Reading{DateTime: start.Add(time.Duration(i) * 15 * time.Minute), Value: v}
		}
		return out
	}

	readings := map[string][]Reading{
		"2001": series("0.2", "0.4", "0.6", "1.0", "0.2"),
		"2002": series("0.2", `"0.4"`, "null", "0.8"),
		"2003": series("1.2", "150.0", "0.6"),
		"2004": series("0.0", "0.0", "0.2"),
		// 2005 is in the registry but reports nothing in the window.
		"2006": series("2.4", "-1.0", "3.6"),
	}
	readings["2001"] = append(readings["2001"], daySeries(start.AddDate(0, 0, 1), "0.4", "0.4")...)

	return New(stations, readings)
}

func daySeries(day time.Time, values ...string) []Reading {
	out := make([]Reading, len(values))
	for i, v := range values {
		out[i] = Reading{DateTime: day.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return out
}

// Scatter returns n stations laid out on a 1 km grid around a centre point,
// each with one reading of value mm. Useful for exercising the worker pool.
func Scatter(n int, easting, northing float64, value string) *Fixture {
	stations := make([]Station, n)
	readings := make(map[string][]Reading, n)
	at := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	for i := range n {
		ref := fmt.Sprintf("S%03d", i)
		stations[i] = Station{
			Reference: ref,
			Label:     "Gauge " + ref,
			Easting:   easting + float64(i%10)*1000,
			Northing:  northing + float64(i/10)*1000,
		}
		readings[ref] = []Reading{{DateTime: at, Value: value}}
	}
	return New(stations, readings)
}
