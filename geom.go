package nhdr

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// bufferSegments is the number of segments used to approximate a circular
// point buffer.
const bufferSegments = 64

// Buffer builds a circular polygon of the given radius around a point.
// The radius is interpreted in the units of the point's own CRS, so a
// buffer built from geographic coordinates is an angular-unit buffer. This
// matches the upstream behavior: buffers are constructed before
// reprojection.
func Buffer(p orb.Point, radius float64) orb.Polygon {
	ring := make(orb.Ring, 0, bufferSegments+1)
	for i := 0; i < bufferSegments; i++ {
		theta := 2 * math.Pi * float64(i) / bufferSegments
		ring = append(ring, orb.Point{
			p.X() + radius*math.Cos(theta),
			p.Y() + radius*math.Sin(theta),
		})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// Reproject transforms a geometry from one CRS to another. Only the
// geographic WGS84 CRS and UTM descriptors are understood; any other
// descriptor yields ErrUnknownCRS.
func Reproject(g orb.Geometry, from, to CRS) (orb.Geometry, error) {
	if g == nil {
		return nil, ErrEmptyGeometry
	}
	if from == "" || to == "" {
		return nil, ErrMissingCRS
	}
	if from == to {
		// Clone on the identity path too so callers always own the result.
		return orb.Clone(g), nil
	}

	forward, err := pointMapping(from, to)
	if err != nil {
		return nil, err
	}
	return project.Geometry(orb.Clone(g), forward), nil
}

// pointMapping builds the point transform between two CRS descriptors.
func pointMapping(from, to CRS) (func(orb.Point) orb.Point, error) {
	switch {
	case from == WGS84 && to.IsProjected():
		zone, err := to.zone()
		if err != nil {
			return nil, err
		}
		return utmForward(zone), nil

	case from.IsProjected() && to == WGS84:
		zone, err := from.zone()
		if err != nil {
			return nil, err
		}
		return utmInverse(zone), nil

	case from.IsProjected() && to.IsProjected():
		fromZone, err := from.zone()
		if err != nil {
			return nil, err
		}
		toZone, err := to.zone()
		if err != nil {
			return nil, err
		}
		inv := utmInverse(fromZone)
		fwd := utmForward(toZone)
		return func(p orb.Point) orb.Point { return fwd(inv(p)) }, nil
	}
	return nil, ErrUnknownCRS
}

// Area returns the planar area of a geometry. Meaningful only in a
// projected CRS.
func Area(g orb.Geometry) float64 {
	return planar.Area(g)
}

// Centroid returns the planar centroid of a geometry.
func Centroid(g orb.Geometry) orb.Point {
	c, _ := planar.CentroidArea(g)
	return c
}

// Union combines geometries into a single geometry: the narrowest Multi*
// type when all inputs share a dimension, otherwise a Collection.
func Union(geoms []orb.Geometry) orb.Geometry {
	var points orb.MultiPoint
	var lines orb.MultiLineString
	var polys orb.MultiPolygon

	for _, g := range geoms {
		if g == nil {
			continue
		}
		p, l, py := flatten(g)
		points = append(points, p...)
		lines = append(lines, l...)
		polys = append(polys, py...)
	}

	kinds := 0
	if len(points) > 0 {
		kinds++
	}
	if len(lines) > 0 {
		kinds++
	}
	if len(polys) > 0 {
		kinds++
	}

	switch {
	case kinds == 0:
		return nil
	case kinds > 1:
		c := orb.Collection{}
		if len(points) > 0 {
			c = append(c, points)
		}
		if len(lines) > 0 {
			c = append(c, lines)
		}
		if len(polys) > 0 {
			c = append(c, polys)
		}
		return c
	case len(points) > 0:
		return points
	case len(lines) > 0:
		return lines
	default:
		return polys
	}
}

// Intersects reports whether two geometries share any point. Both
// geometries must already be in the same planar CRS; the test is purely
// coordinate-based.
func Intersects(a, b orb.Geometry) bool {
	if a == nil || b == nil {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}

	ap, al, apoly := flatten(a)
	bp, bl, bpoly := flatten(b)

	for _, p := range ap {
		if pointIntersects(p, bp, bl, bpoly) {
			return true
		}
	}
	for _, p := range bp {
		if pointIntersects(p, nil, al, apoly) {
			return true
		}
	}
	for _, l := range al {
		for _, m := range bl {
			if lineIntersectsLine(l, m) {
				return true
			}
		}
		for _, py := range bpoly {
			if lineIntersectsPolygon(l, py) {
				return true
			}
		}
	}
	for _, l := range bl {
		for _, py := range apoly {
			if lineIntersectsPolygon(l, py) {
				return true
			}
		}
	}
	for _, p1 := range apoly {
		for _, p2 := range bpoly {
			if polygonIntersectsPolygon(p1, p2) {
				return true
			}
		}
	}
	return false
}

// flatten decomposes any orb geometry into primitive points, linestrings
// and polygons.
func flatten(g orb.Geometry) ([]orb.Point, []orb.LineString, []orb.Polygon) {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Point{v}, nil, nil
	case orb.MultiPoint:
		return []orb.Point(v), nil, nil
	case orb.LineString:
		return nil, []orb.LineString{v}, nil
	case orb.MultiLineString:
		return nil, []orb.LineString(v), nil
	case orb.Ring:
		return nil, nil, []orb.Polygon{{v}}
	case orb.Polygon:
		return nil, nil, []orb.Polygon{v}
	case orb.MultiPolygon:
		return nil, nil, []orb.Polygon(v)
	case orb.Bound:
		return nil, nil, []orb.Polygon{v.ToPolygon()}
	case orb.Collection:
		var points []orb.Point
		var lines []orb.LineString
		var polys []orb.Polygon
		for _, child := range v {
			p, l, py := flatten(child)
			points = append(points, p...)
			lines = append(lines, l...)
			polys = append(polys, py...)
		}
		return points, lines, polys
	default:
		return nil, nil, nil
	}
}

func pointIntersects(p orb.Point, points []orb.Point, lines []orb.LineString, polys []orb.Polygon) bool {
	for _, q := range points {
		if p.Equal(q) {
			return true
		}
	}
	for _, l := range lines {
		for i := 0; i+1 < len(l); i++ {
			if pointOnSegment(p, l[i], l[i+1]) {
				return true
			}
		}
	}
	for _, py := range polys {
		if planar.PolygonContains(py, p) {
			return true
		}
	}
	return false
}

func lineIntersectsLine(a, b orb.LineString) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func lineIntersectsPolygon(l orb.LineString, py orb.Polygon) bool {
	for _, p := range l {
		if planar.PolygonContains(py, p) {
			return true
		}
	}
	for _, ring := range py {
		for i := 0; i+1 < len(ring); i++ {
			for j := 0; j+1 < len(l); j++ {
				if segmentsIntersect(ring[i], ring[i+1], l[j], l[j+1]) {
					return true
				}
			}
		}
	}
	return false
}

func polygonIntersectsPolygon(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, p := range a[0] {
		if planar.PolygonContains(b, p) {
			return true
		}
	}
	for _, p := range b[0] {
		if planar.PolygonContains(a, p) {
			return true
		}
	}
	for _, ra := range a {
		for _, rb := range b {
			if lineIntersectsLine(orb.LineString(ra), orb.LineString(rb)) {
				return true
			}
		}
	}
	return false
}

// pointOnSegment reports whether p lies on the segment a-b.
func pointOnSegment(p, a, b orb.Point) bool {
	if cross(a, b, p) != 0 {
		return false
	}
	return withinSpan(p.X(), a.X(), b.X()) && withinSpan(p.Y(), a.Y(), b.Y())
}

// segmentsIntersect reports whether segments p1-p2 and q1-q2 share a
// point, including collinear overlap and endpoint touches.
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := sign(cross(q1, q2, p1))
	d2 := sign(cross(q1, q2, p2))
	d3 := sign(cross(p1, p2, q1))
	d4 := sign(cross(p1, p2, q2))

	if d1 != d2 && d3 != d4 {
		return true
	}
	if d1 == 0 && pointOnSegment(p1, q1, q2) {
		return true
	}
	if d2 == 0 && pointOnSegment(p2, q1, q2) {
		return true
	}
	if d3 == 0 && pointOnSegment(q1, p1, p2) {
		return true
	}
	if d4 == 0 && pointOnSegment(q2, p1, p2) {
		return true
	}
	return false
}

// cross returns the cross product of vectors o->a and o->b.
func cross(o, a, b orb.Point) float64 {
	return (a.X()-o.X())*(b.Y()-o.Y()) - (a.Y()-o.Y())*(b.X()-o.X())
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func withinSpan(v, a, b float64) bool {
	if a > b {
		a, b = b, a
	}
	return v >= a && v <= b
}
