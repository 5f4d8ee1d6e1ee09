package nhdr

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestBuffer(t *testing.T) {
	p := orb.Point{-73.0, 41.0}
	poly := Buffer(p, 0.05)

	if len(poly) != 1 {
		t.Fatalf("expected a single ring, got %d", len(poly))
	}
	ring := poly[0]
	if !ring[0].Equal(ring[len(ring)-1]) {
		t.Error("buffer ring is not closed")
	}
	for _, v := range ring {
		r := math.Hypot(v.X()-p.X(), v.Y()-p.Y())
		if math.Abs(r-0.05) > 1e-9 {
			t.Fatalf("vertex %v at radius %v, want 0.05", v, r)
		}
	}
}

func TestReproject_Errors(t *testing.T) {
	if _, err := Reproject(nil, WGS84, UTM(18)); !errors.Is(err, ErrEmptyGeometry) {
		t.Errorf("nil geometry: got %v", err)
	}
	if _, err := Reproject(orb.Point{0, 0}, "", UTM(18)); !errors.Is(err, ErrMissingCRS) {
		t.Errorf("missing source CRS: got %v", err)
	}
	if _, err := Reproject(orb.Point{0, 0}, CRS("lambert"), WGS84); !errors.Is(err, ErrUnknownCRS) {
		t.Errorf("unknown CRS: got %v", err)
	}
}

func TestReproject_Identity(t *testing.T) {
	line := orb.LineString{{-73, 41}, {-73.1, 41.1}}
	out, err := Reproject(line, WGS84, WGS84)
	if err != nil {
		t.Fatalf("Reproject failed: %v", err)
	}
	if !out.(orb.LineString)[0].Equal(line[0]) {
		t.Error("identity reprojection changed coordinates")
	}

	// The caller owns the result even when no transform ran.
	out.(orb.LineString)[0] = orb.Point{0, 0}
	if line[0].Equal(orb.Point{0, 0}) {
		t.Error("identity reprojection aliased the input geometry")
	}
}

func TestReproject_DoesNotMutateInput(t *testing.T) {
	line := orb.LineString{{-73, 41}, {-73.1, 41.1}}
	orig := line[0]
	if _, err := Reproject(line, WGS84, UTM(18)); err != nil {
		t.Fatalf("Reproject failed: %v", err)
	}
	if !line[0].Equal(orig) {
		t.Error("input geometry was mutated")
	}
}

func TestReproject_BetweenZones(t *testing.T) {
	p := orb.Point{-72.0, 41.0} // zone 18 border region
	in18, err := Reproject(p, WGS84, UTM(18))
	if err != nil {
		t.Fatalf("Reproject to zone 18 failed: %v", err)
	}
	in19, err := Reproject(in18, UTM(18), UTM(19))
	if err != nil {
		t.Fatalf("Reproject between zones failed: %v", err)
	}
	back, err := Reproject(in19, UTM(19), WGS84)
	if err != nil {
		t.Fatalf("Reproject back failed: %v", err)
	}
	got := back.(orb.Point)
	if math.Abs(got.Lon()-p.Lon()) > 1e-5 || math.Abs(got.Lat()-p.Lat()) > 1e-5 {
		t.Errorf("zone 18 -> 19 -> geographic gave %v, want %v", got, p)
	}
}

func TestIntersects(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}

	cases := []struct {
		name string
		a, b orb.Geometry
		want bool
	}{
		{"point inside polygon", orb.Point{5, 5}, square, true},
		{"point outside polygon", orb.Point{15, 5}, square, false},
		{"point on boundary", orb.Point{0, 5}, square, true},
		{"line crossing polygon", orb.LineString{{-5, 5}, {15, 5}}, square, true},
		{"line inside polygon", orb.LineString{{2, 2}, {8, 8}}, square, true},
		{"line outside polygon", orb.LineString{{20, 20}, {30, 30}}, square, false},
		{"crossing lines", orb.LineString{{0, 0}, {10, 10}}, orb.LineString{{0, 10}, {10, 0}}, true},
		{"parallel lines", orb.LineString{{0, 0}, {10, 0}}, orb.LineString{{0, 1}, {10, 1}}, false},
		{"overlapping polygons", square, orb.Polygon{{{5, 5}, {15, 5}, {15, 15}, {5, 15}, {5, 5}}}, true},
		{"disjoint polygons", square, orb.Polygon{{{20, 20}, {30, 20}, {30, 30}, {20, 30}, {20, 20}}}, false},
		{"contained polygon", square, orb.Polygon{{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}}}, true},
		{"identical points", orb.Point{3, 3}, orb.Point{3, 3}, true},
		{"distinct points", orb.Point{3, 3}, orb.Point{3, 4}, false},
		{"point on line", orb.Point{5, 0}, orb.LineString{{0, 0}, {10, 0}}, true},
		{"multiline touch", orb.MultiLineString{{{0, 0}, {1, 1}}, {{9, 9}, {12, 12}}}, square, true},
	}

	for _, c := range cases {
		if got := Intersects(c.a, c.b); got != c.want {
			t.Errorf("%s: Intersects = %v, want %v", c.name, got, c.want)
		}
		if got := Intersects(c.b, c.a); got != c.want {
			t.Errorf("%s (flipped): Intersects = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIntersects_PolygonInHole(t *testing.T) {
	donut := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{2, 2}, {2, 8}, {8, 8}, {8, 2}, {2, 2}},
	}
	inHole := orb.Polygon{{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}}}
	if Intersects(donut, inHole) {
		t.Error("polygon inside hole should not intersect the donut")
	}
}

func TestAreaAndCentroid(t *testing.T) {
	square := orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}
	if a := Area(square); math.Abs(a-16) > 1e-9 {
		t.Errorf("Area = %v, want 16", a)
	}
	c := Centroid(square)
	if math.Abs(c.X()-2) > 1e-9 || math.Abs(c.Y()-2) > 1e-9 {
		t.Errorf("Centroid = %v, want (2, 2)", c)
	}
}

func TestUnion(t *testing.T) {
	polys := Union([]orb.Geometry{
		orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		orb.Polygon{{{5, 5}, {6, 5}, {6, 6}, {5, 5}}},
	})
	if _, ok := polys.(orb.MultiPolygon); !ok {
		t.Errorf("polygon union: got %T, want orb.MultiPolygon", polys)
	}

	mixed := Union([]orb.Geometry{
		orb.Point{0, 0},
		orb.LineString{{1, 1}, {2, 2}},
	})
	if _, ok := mixed.(orb.Collection); !ok {
		t.Errorf("mixed union: got %T, want orb.Collection", mixed)
	}

	if Union(nil) != nil {
		t.Error("empty union should be nil")
	}
}
