package geodesy

import "math"

// transverseMercator holds the projection constants of a national grid.
type transverseMercator struct {
	ellipsoid
	f0            float64 // scale factor on the central meridian
	lat0, lon0    float64 // true origin, degrees
	east0, north0 float64 // false origin, metres
}

var nationalGrid = transverseMercator{
	ellipsoid: airy1830,
	f0:        0.9996012717,
	lat0:      49,
	lon0:      -2,
	east0:     400000,
	north0:    -100000,
}

// meridionalArc is the developed arc M from the true origin latitude to phi.
func (tm transverseMercator) meridionalArc(phi float64) float64 {
	phi0 := radians(tm.lat0)
	n := (tm.a - tm.b) / (tm.a + tm.b)
	n2, n3 := n*n, n*n*n
	dPhi, sPhi := phi-phi0, phi+phi0

	return tm.b * tm.f0 * ((1+n+5.0/4*n2+5.0/4*n3)*dPhi -
		(3*n+3*n2+21.0/8*n3)*math.Sin(dPhi)*math.Cos(sPhi) +
		(15.0/8*n2+15.0/8*n3)*math.Sin(2*dPhi)*math.Cos(2*sPhi) -
		35.0/24*n3*math.Sin(3*dPhi)*math.Cos(3*sPhi))
}

// radii returns the transverse (nu) and meridional (rho) radii of curvature,
// scaled by f0, and eta² at phi.
func (tm transverseMercator) radii(phi float64) (nu, rho, eta2 float64) {
	e2 := tm.e2()
	sin2 := math.Sin(phi) * math.Sin(phi)
	nu = tm.a * tm.f0 / math.Sqrt(1-e2*sin2)
	rho = tm.a * tm.f0 * (1 - e2) / math.Pow(1-e2*sin2, 1.5)
	return nu, rho, nu/rho - 1
}

// project converts geodetic degrees on the grid's ellipsoid to easting/northing.
func (tm transverseMercator) project(lat, lon float64) (float64, float64) {
	phi := radians(lat)
	dLambda := radians(lon - tm.lon0)

	sinPhi, cosPhi := math.Sincos(phi)
	cos3, cos5 := cosPhi*cosPhi*cosPhi, math.Pow(cosPhi, 5)
	tan2 := math.Tan(phi) * math.Tan(phi)
	tan4 := tan2 * tan2
	nu, rho, eta2 := tm.radii(phi)

	i := tm.meridionalArc(phi) + tm.north0
	ii := nu / 2 * sinPhi * cosPhi
	iii := nu / 24 * sinPhi * cos3 * (5 - tan2 + 9*eta2)
	iiiA := nu / 720 * sinPhi * cos5 * (61 - 58*tan2 + tan4)
	iv := nu * cosPhi
	v := nu / 6 * cos3 * (nu/rho - tan2)
	vi := nu / 120 * cos5 * (5 - 18*tan2 + tan4 + 14*eta2 - 58*tan2*eta2)

	dl2 := dLambda * dLambda
	northing := i + ii*dl2 + iii*dl2*dl2 + iiiA*dl2*dl2*dl2
	easting := tm.east0 + iv*dLambda + v*dl2*dLambda + vi*dl2*dl2*dLambda
	return easting, northing
}

// unproject converts easting/northing to geodetic degrees on the grid's ellipsoid.
func (tm transverseMercator) unproject(easting, northing float64) (float64, float64) {
	phi := radians(tm.lat0)
	m := 0.0
	for range 100 {
		phi += (northing - tm.north0 - m) / (tm.a * tm.f0)
		m = tm.meridionalArc(phi)
		if math.Abs(northing-tm.north0-m) < 0.00001 {
			break
		}
	}

	nu, rho, eta2 := tm.radii(phi)
	tanPhi := math.Tan(phi)
	tan2 := tanPhi * tanPhi
	tan4 := tan2 * tan2
	tan6 := tan4 * tan2
	secPhi := 1 / math.Cos(phi)
	nu3, nu5, nu7 := nu*nu*nu, math.Pow(nu, 5), math.Pow(nu, 7)

	vii := tanPhi / (2 * rho * nu)
	viii := tanPhi / (24 * rho * nu3) * (5 + 3*tan2 + eta2 - 9*tan2*eta2)
	ix := tanPhi / (720 * rho * nu5) * (61 + 90*tan2 + 45*tan4)
	x := secPhi / nu
	xi := secPhi / (6 * nu3) * (nu/rho + 2*tan2)
	xii := secPhi / (120 * nu5) * (5 + 28*tan2 + 24*tan4)
	xiiA := secPhi / (5040 * nu7) * (61 + 662*tan2 + 1320*tan4 + 720*tan6)

	dE := easting - tm.east0
	dE2 := dE * dE
	lat := phi - vii*dE2 + viii*dE2*dE2 - ix*dE2*dE2*dE2
	lon := radians(tm.lon0) + x*dE - xi*dE2*dE + xii*dE2*dE2*dE - xiiA*dE2*dE2*dE2*dE

	return degrees(lat), degrees(lon)
}
