package nhdr

import (
	"math"

	"github.com/paulmach/orb"
)

// WGS84 ellipsoid constants and the standard UTM scale factor.
const (
	semiMajor    = 6378137.0
	flattening   = 1 / 298.257223563
	scaleFactor  = 0.9996
	falseEasting = 500000.0
)

var (
	e2  = flattening * (2 - flattening) // first eccentricity squared
	ep2 = e2 / (1 - e2)                 // second eccentricity squared
)

// centralMeridian returns the central meridian of a UTM zone in radians.
func centralMeridian(zone int) float64 {
	return float64(-183+6*zone) * math.Pi / 180
}

// utmForward projects a geographic point (lon, lat in degrees) into UTM
// easting/northing for the given zone. The Snyder transverse Mercator
// series is used. Northings are signed: no southern false northing is
// applied, so coordinates stay continuous across the equator.
func utmForward(zone int) func(orb.Point) orb.Point {
	lam0 := centralMeridian(zone)
	return func(p orb.Point) orb.Point {
		lam := p.Lon() * math.Pi / 180
		phi := p.Lat() * math.Pi / 180

		sinPhi := math.Sin(phi)
		cosPhi := math.Cos(phi)
		tanPhi := math.Tan(phi)

		n := semiMajor / math.Sqrt(1-e2*sinPhi*sinPhi)
		t := tanPhi * tanPhi
		c := ep2 * cosPhi * cosPhi
		a := cosPhi * (lam - lam0)

		m := meridionalArc(phi)

		a2 := a * a
		a3 := a2 * a
		a4 := a3 * a
		a5 := a4 * a
		a6 := a5 * a

		x := scaleFactor*n*(a+(1-t+c)*a3/6+
			(5-18*t+t*t+72*c-58*ep2)*a5/120) + falseEasting
		y := scaleFactor * (m + n*tanPhi*(a2/2+
			(5-t+9*c+4*c*c)*a4/24+
			(61-58*t+t*t+600*c-330*ep2)*a6/720))

		return orb.Point{x, y}
	}
}

// utmInverse converts UTM easting/northing for the given zone back to
// geographic degrees.
func utmInverse(zone int) func(orb.Point) orb.Point {
	lam0 := centralMeridian(zone)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	return func(p orb.Point) orb.Point {
		x := p.X() - falseEasting
		m := p.Y() / scaleFactor

		mu := m / (semiMajor * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))
		phi1 := mu +
			(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
			(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
			(151*e1*e1*e1/96)*math.Sin(6*mu) +
			(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

		sinPhi1 := math.Sin(phi1)
		cosPhi1 := math.Cos(phi1)
		tanPhi1 := math.Tan(phi1)

		c1 := ep2 * cosPhi1 * cosPhi1
		t1 := tanPhi1 * tanPhi1
		n1 := semiMajor / math.Sqrt(1-e2*sinPhi1*sinPhi1)
		r1 := semiMajor * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
		d := x / (n1 * scaleFactor)

		d2 := d * d
		d3 := d2 * d
		d4 := d3 * d
		d5 := d4 * d
		d6 := d5 * d

		phi := phi1 - (n1*tanPhi1/r1)*(d2/2-
			(5+3*t1+10*c1-4*c1*c1-9*ep2)*d4/24+
			(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d6/720)
		lam := lam0 + (d-(1+2*t1+c1)*d3/6+
			(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d5/120)/cosPhi1

		return orb.Point{lam * 180 / math.Pi, phi * 180 / math.Pi}
	}
}

// meridionalArc returns the distance along the meridian from the equator
// to latitude phi (radians) on the WGS84 ellipsoid.
func meridionalArc(phi float64) float64 {
	return semiMajor * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))
}
