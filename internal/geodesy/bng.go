// Package geodesy converts between WGS84 latitude/longitude (EPSG:4326) and
// OSGB36 British National Grid easting/northing (EPSG:27700).
//
// The datum shift is the Ordnance Survey 7-parameter Helmert transformation,
// accurate to a few metres against OSTN15. Round trips through the grid are
// stable to well below a metre.
package geodesy

import (
	"fmt"
	"math"

	"github.com/couchcryptid/rainfall-explorer/internal/domain"
)

// Valid domain of EPSG:27700, in WGS84 degrees and grid metres. The grid
// bounds enclose the image of the geographic bounds, which reaches slightly
// west and south of the 0/0 false origin.
const (
	MinLatitude  = 49.75
	MaxLatitude  = 61.01
	MinLongitude = -9.01
	MaxLongitude = 2.01

	MinEasting  = -110000.0
	MaxEasting  = 700000.0
	MinNorthing = -20000.0
	MaxNorthing = 1300000.0
)

const (
	opToGrid       = "to_grid"
	opToGeographic = "to_geographic"
)

// Point is an ordered coordinate pair: (lat, lon) for geographic points,
// (easting, northing) for grid points.
type Point struct {
	X, Y float64
}

// ToGrid converts WGS84 latitude/longitude to British National Grid metres.
func ToGrid(lat, lon float64) (easting, northing float64, err error) {
	if err := checkGeographic(lat, lon, -1); err != nil {
		return 0, 0, err
	}
	easting, northing = toGrid(lat, lon)
	return easting, northing, nil
}

// ToGeographic converts British National Grid metres to WGS84
// latitude/longitude.
func ToGeographic(easting, northing float64) (lat, lon float64, err error) {
	if err := checkGrid(easting, northing, -1); err != nil {
		return 0, 0, err
	}
	lat, lon = toGeographic(easting, northing)
	return lat, lon, nil
}

// CheckGrid reports a *domain.ConversionError when the grid point lies
// outside the valid domain of EPSG:27700.
func CheckGrid(easting, northing float64) error {
	return checkGrid(easting, northing, -1)
}

// ToGridBatch converts (lat, lon) pairs to (easting, northing) pairs in order.
// It fails on the first pair outside the valid domain.
func ToGridBatch(points []Point) ([]Point, error) {
	out := make([]Point, len(points))
	for i, p := range points {
		if err := checkGeographic(p.X, p.Y, i); err != nil {
			return nil, err
		}
		out[i].X, out[i].Y = toGrid(p.X, p.Y)
	}
	return out, nil
}

// ToGeographicBatch converts (easting, northing) pairs to (lat, lon) pairs in
// order. It fails on the first pair outside the valid domain.
func ToGeographicBatch(points []Point) ([]Point, error) {
	out := make([]Point, len(points))
	for i, p := range points {
		if err := checkGrid(p.X, p.Y, i); err != nil {
			return nil, err
		}
		out[i].X, out[i].Y = toGeographic(p.X, p.Y)
	}
	return out, nil
}

func checkGeographic(lat, lon float64, index int) error {
	var cause string
	switch {
	case !finite(lat) || !finite(lon):
		cause = "coordinate is not finite"
	case lat < MinLatitude || lat > MaxLatitude:
		cause = fmt.Sprintf("latitude outside %g..%g", MinLatitude, MaxLatitude)
	case lon < MinLongitude || lon > MaxLongitude:
		cause = fmt.Sprintf("longitude outside %g..%g", MinLongitude, MaxLongitude)
	default:
		return nil
	}
	return &domain.ConversionError{Op: opToGrid, X: lat, Y: lon, Index: index, Cause: cause}
}

func checkGrid(easting, northing float64, index int) error {
	var cause string
	switch {
	case !finite(easting) || !finite(northing):
		cause = "coordinate is not finite"
	case easting < MinEasting || easting > MaxEasting:
		cause = fmt.Sprintf("easting outside %g..%g", MinEasting, MaxEasting)
	case northing < MinNorthing || northing > MaxNorthing:
		cause = fmt.Sprintf("northing outside %g..%g", MinNorthing, MaxNorthing)
	default:
		return nil
	}
	return &domain.ConversionError{Op: opToGeographic, X: easting, Y: northing, Index: index, Cause: cause}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func toGrid(lat, lon float64) (float64, float64) {
	x, y, z := toCartesian(wgs84, lat, lon)
	x, y, z = wgs84ToOSGB36.apply(x, y, z)
	oLat, oLon := fromCartesian(airy1830, x, y, z)
	return nationalGrid.project(oLat, oLon)
}

func toGeographic(easting, northing float64) (float64, float64) {
	oLat, oLon := nationalGrid.unproject(easting, northing)
	x, y, z := toCartesian(airy1830, oLat, oLon)
	x, y, z = wgs84ToOSGB36.inverse().apply(x, y, z)
	return fromCartesian(wgs84, x, y, z)
}
