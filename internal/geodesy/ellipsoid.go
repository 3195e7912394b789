package geodesy

import "math"

type ellipsoid struct {
	a, b float64 // semi-major and semi-minor axes, metres
}

func (e ellipsoid) e2() float64 {
	return (e.a*e.a - e.b*e.b) / (e.a * e.a)
}

var (
	wgs84    = ellipsoid{a: 6378137.000, b: 6356752.314245}
	airy1830 = ellipsoid{a: 6377563.396, b: 6356256.909}
)

// helmert is a 7-parameter similarity transform between ECEF frames.
// Translations are metres, scale is parts per million, rotations are
// arcseconds.
type helmert struct {
	tx, ty, tz float64
	s          float64
	rx, ry, rz float64
}

// Ordnance Survey published parameters, WGS84 to OSGB36.
var wgs84ToOSGB36 = helmert{
	tx: -446.448, ty: 125.157, tz: -542.060,
	s:  20.4894,
	rx: -0.1502, ry: -0.2470, rz: -0.8421,
}

func (h helmert) inverse() helmert {
	return helmert{tx: -h.tx, ty: -h.ty, tz: -h.tz, s: -h.s, rx: -h.rx, ry: -h.ry, rz: -h.rz}
}

func (h helmert) apply(x, y, z float64) (float64, float64, float64) {
	const arcsec = math.Pi / (180 * 3600)
	s1 := 1 + h.s*1e-6
	rx, ry, rz := h.rx*arcsec, h.ry*arcsec, h.rz*arcsec

	return h.tx + s1*x - rz*y + ry*z,
		h.ty + rz*x + s1*y - rx*z,
		h.tz - ry*x + rx*y + s1*z
}

// toCartesian converts geodetic degrees at zero ellipsoidal height to ECEF.
func toCartesian(e ellipsoid, lat, lon float64) (float64, float64, float64) {
	phi, lambda := radians(lat), radians(lon)
	sinPhi, cosPhi := math.Sincos(phi)
	sinLambda, cosLambda := math.Sincos(lambda)
	e2 := e.e2()
	nu := e.a / math.Sqrt(1-e2*sinPhi*sinPhi)

	return nu * cosPhi * cosLambda,
		nu * cosPhi * sinLambda,
		(1 - e2) * nu * sinPhi
}

// fromCartesian converts ECEF to geodetic degrees, discarding height.
func fromCartesian(e ellipsoid, x, y, z float64) (float64, float64) {
	e2 := e.e2()
	p := math.Hypot(x, y)
	phi := math.Atan2(z, p*(1-e2))

	for range 10 {
		sinPhi := math.Sin(phi)
		nu := e.a / math.Sqrt(1-e2*sinPhi*sinPhi)
		next := math.Atan2(z+e2*nu*sinPhi, p)
		if math.Abs(next-phi) < 1e-13 {
			phi = next
			break
		}
		phi = next
	}

	return degrees(phi), degrees(math.Atan2(y, x))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
