package nhdr

import (
	"fmt"
	"math"
	"strings"
)

// CRS is a coordinate reference system descriptor. Two geometries may only
// be tested for intersection once they share the same CRS. The projected
// descriptor format "utm zone=<Z> datum=WGS84" is part of the collaborator
// contract and must be preserved bit-for-bit.
type CRS string

// WGS84 is the geographic (longitude/latitude, degree-based) CRS. Degrees
// are not metric: buffer distances and areas must never be measured in it.
const WGS84 CRS = "longlat datum=WGS84"

// UTMZone returns the UTM zone index for a longitude in decimal degrees,
// computed as floor((lon+180)/6)+1 and normalized into [1, 60]. The
// eastern boundary lon=180 yields a raw index of 61, which wraps to zone 1
// (180°E and 180°W name the same meridian).
func UTMZone(lon float64) int {
	// Wrap into [-180, 180) so any finite longitude maps to a valid zone.
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	zone := int(math.Floor(lon/6)) + 1
	if zone > 60 {
		zone = 1
	}
	return zone
}

// UTM returns the projected CRS descriptor for a UTM zone on the WGS84
// datum.
func UTM(zone int) CRS {
	return CRS(fmt.Sprintf("utm zone=%d datum=WGS84", zone))
}

// UTMForLongitude derives a locally accurate projected CRS from a
// longitude. UTM behaves near-equal-area and near-equal-distance within
// its zone, which makes it safe for buffering, area measurement and
// intersection testing.
func UTMForLongitude(lon float64) CRS {
	return UTM(UTMZone(lon))
}

// IsProjected reports whether the CRS uses metric (projected) units.
func (c CRS) IsProjected() bool {
	return strings.HasPrefix(string(c), "utm ")
}

// zone parses the UTM zone out of a projected descriptor.
func (c CRS) zone() (int, error) {
	var z int
	if _, err := fmt.Sscanf(string(c), "utm zone=%d datum=WGS84", &z); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCRS, string(c))
	}
	if z < 1 || z > 60 {
		return 0, fmt.Errorf("%w: zone %d out of range", ErrUnknownCRS, z)
	}
	return z, nil
}
