package fgb

import (
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

// geometryType maps an orb geometry to its FlatGeobuf type tag. Only the
// types that occur in hydrography layers are supported.
func geometryType(geom orb.Geometry) flattypes.GeometryType {
	switch geom.(type) {
	case orb.Point:
		return flattypes.GeometryTypePoint
	case orb.MultiPoint:
		return flattypes.GeometryTypeMultiPoint
	case orb.LineString:
		return flattypes.GeometryTypeLineString
	case orb.MultiLineString:
		return flattypes.GeometryTypeMultiLineString
	case orb.Ring, orb.Polygon:
		return flattypes.GeometryTypePolygon
	case orb.MultiPolygon:
		return flattypes.GeometryTypeMultiPolygon
	default:
		return flattypes.GeometryTypeUnknown
	}
}

// encodeGeometry converts an orb geometry into a FlatGeobuf writer
// geometry. Returns nil for unsupported types.
func encodeGeometry(geom orb.Geometry, builder *flatbuffers.Builder) *writer.Geometry {
	if geom == nil {
		return nil
	}

	g := writer.NewGeometry(builder)
	switch v := geom.(type) {
	case orb.Point:
		g.SetType(flattypes.GeometryTypePoint)
		g.SetXY([]float64{v[0], v[1]})

	case orb.MultiPoint:
		g.SetType(flattypes.GeometryTypeMultiPoint)
		g.SetXY(flattenPoints(v))

	case orb.LineString:
		g.SetType(flattypes.GeometryTypeLineString)
		g.SetXY(flattenPoints(v))

	case orb.MultiLineString:
		g.SetType(flattypes.GeometryTypeMultiLineString)
		xy, ends := flattenParts(partsOfLines(v))
		g.SetXY(xy)
		g.SetEnds(ends)

	case orb.Ring:
		g.SetType(flattypes.GeometryTypePolygon)
		g.SetXY(flattenPoints(v))
		g.SetEnds([]uint32{uint32(len(v))})

	case orb.Polygon:
		g.SetType(flattypes.GeometryTypePolygon)
		xy, ends := flattenParts(partsOfRings(v))
		g.SetXY(xy)
		g.SetEnds(ends)

	case orb.MultiPolygon:
		g.SetType(flattypes.GeometryTypeMultiPolygon)
		parts := make([]writer.Geometry, 0, len(v))
		for _, poly := range v {
			pg := writer.NewGeometry(builder)
			pg.SetType(flattypes.GeometryTypePolygon)
			xy, ends := flattenParts(partsOfRings(poly))
			pg.SetXY(xy)
			pg.SetEnds(ends)
			parts = append(parts, *pg)
		}
		g.SetParts(parts)

	default:
		return nil
	}
	return g
}

// decodeGeometry converts a FlatGeobuf geometry back into orb types.
func decodeGeometry(fg *flattypes.Geometry) orb.Geometry {
	if fg == nil {
		return nil
	}

	switch fg.Type() {
	case flattypes.GeometryTypePoint:
		pts := readPoints(fg)
		if len(pts) == 0 {
			return nil
		}
		return pts[0]

	case flattypes.GeometryTypeMultiPoint:
		return orb.MultiPoint(readPoints(fg))

	case flattypes.GeometryTypeLineString:
		return orb.LineString(readPoints(fg))

	case flattypes.GeometryTypeMultiLineString:
		parts := readParts(fg)
		mls := make(orb.MultiLineString, 0, len(parts))
		for _, part := range parts {
			mls = append(mls, orb.LineString(part))
		}
		return mls

	case flattypes.GeometryTypePolygon:
		return decodePolygon(fg)

	case flattypes.GeometryTypeMultiPolygon:
		partsLen := fg.PartsLength()
		if partsLen == 0 {
			return orb.MultiPolygon{decodePolygon(fg)}
		}
		mp := make(orb.MultiPolygon, 0, partsLen)
		for i := 0; i < partsLen; i++ {
			var part flattypes.Geometry
			if fg.Parts(&part, i) {
				mp = append(mp, decodePolygon(&part))
			}
		}
		return mp

	default:
		return nil
	}
}

func decodePolygon(fg *flattypes.Geometry) orb.Polygon {
	parts := readParts(fg)
	poly := make(orb.Polygon, 0, len(parts))
	for _, part := range parts {
		poly = append(poly, orb.Ring(part))
	}
	return poly
}

// flattenPoints packs points into the interleaved XY layout.
func flattenPoints(pts []orb.Point) []float64 {
	xy := make([]float64, 0, len(pts)*2)
	for _, p := range pts {
		xy = append(xy, p[0], p[1])
	}
	return xy
}

func partsOfLines(mls orb.MultiLineString) [][]orb.Point {
	parts := make([][]orb.Point, 0, len(mls))
	for _, ls := range mls {
		parts = append(parts, ls)
	}
	return parts
}

func partsOfRings(poly orb.Polygon) [][]orb.Point {
	parts := make([][]orb.Point, 0, len(poly))
	for _, ring := range poly {
		parts = append(parts, ring)
	}
	return parts
}

// flattenParts packs multiple point runs into interleaved XY with
// cumulative end offsets.
func flattenParts(parts [][]orb.Point) ([]float64, []uint32) {
	total := 0
	for _, part := range parts {
		total += len(part)
	}

	xy := make([]float64, 0, total*2)
	ends := make([]uint32, 0, len(parts))
	cumulative := uint32(0)
	for _, part := range parts {
		for _, p := range part {
			xy = append(xy, p[0], p[1])
		}
		cumulative += uint32(len(part))
		ends = append(ends, cumulative)
	}
	return xy, ends
}

// readPoints unpacks the interleaved XY array.
func readPoints(fg *flattypes.Geometry) []orb.Point {
	xyLen := fg.XyLength()
	pts := make([]orb.Point, 0, xyLen/2)
	for i := 0; i+1 < xyLen; i += 2 {
		pts = append(pts, orb.Point{fg.Xy(i), fg.Xy(i + 1)})
	}
	return pts
}

// readParts splits the XY array on the ends offsets. With no ends array
// the whole run is a single part.
func readParts(fg *flattypes.Geometry) [][]orb.Point {
	pts := readPoints(fg)
	endsLen := fg.EndsLength()
	if endsLen == 0 {
		if len(pts) == 0 {
			return nil
		}
		return [][]orb.Point{pts}
	}

	parts := make([][]orb.Point, 0, endsLen)
	start := uint32(0)
	for i := 0; i < endsLen; i++ {
		end := fg.Ends(i)
		if end > uint32(len(pts)) {
			end = uint32(len(pts))
		}
		if end > start {
			parts = append(parts, pts[start:end])
		}
		start = end
	}
	return parts
}
