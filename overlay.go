package nhdr

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// QueryGeometry is the region-of-interest of an overlay query: either a
// buffered point or a polygon. The variant is chosen by the caller when
// the query is constructed, never inferred from which arguments happen to
// be set.
type QueryGeometry interface {
	// overlayGeometry returns the query geometry in its own CRS.
	overlayGeometry() (orb.Geometry, error)
	// crs returns the CRS the query coordinates are expressed in.
	crs() CRS
	// projectionLon returns the longitude used to derive the projected CRS.
	projectionLon() float64
}

// PointQuery selects features within a buffer distance of a point. The
// buffer is constructed in the point's own CRS before any reprojection,
// so for geographic coordinates the distance is in decimal degrees. That
// ordering is a compatibility requirement, not an approximation.
type PointQuery struct {
	Point  orb.Point
	CRS    CRS
	Buffer float64
}

func (q PointQuery) overlayGeometry() (orb.Geometry, error) {
	if q.CRS == "" {
		return nil, ErrMissingCRS
	}
	return Buffer(q.Point, q.Buffer), nil
}

func (q PointQuery) crs() CRS { return q.CRS }

func (q PointQuery) projectionLon() float64 { return q.Point.Lon() }

// PolygonQuery selects features intersecting a caller-supplied polygon.
// No buffering occurs; a buffer distance never affects the result.
type PolygonQuery struct {
	Polygon orb.Polygon
	CRS     CRS
}

func (q PolygonQuery) overlayGeometry() (orb.Geometry, error) {
	if q.CRS == "" {
		return nil, ErrMissingCRS
	}
	if len(q.Polygon) == 0 || len(q.Polygon[0]) == 0 {
		return nil, ErrEmptyGeometry
	}
	return q.Polygon, nil
}

func (q PolygonQuery) crs() CRS { return q.CRS }

// The projection is anchored on the polygon centroid.
func (q PolygonQuery) projectionLon() float64 { return Centroid(q.Polygon).Lon() }

// Selection is the outcome of an overlay query: for every input layer the
// subset of features intersecting the query geometry, reprojected into
// the locally derived UTM CRS. Point holds the reprojected query point
// for point-buffer queries and is nil otherwise.
type Selection struct {
	CRS    CRS
	Point  *orb.Point
	Layers map[string]*Layer
}

// Select filters each layer down to the features whose geometry
// intersects the query geometry. The query geometry and every layer are
// first reprojected into a UTM CRS derived from the query longitude, so
// the intersection test runs in locally metric coordinates. Feature order
// within a layer is preserved and output keys mirror input keys. Zero
// matching features is a valid outcome, not an error.
func Select(q QueryGeometry, layers map[string]*Layer) (*Selection, error) {
	queryGeom, err := q.overlayGeometry()
	if err != nil {
		return nil, err
	}

	target := UTMForLongitude(q.projectionLon())
	projected, err := Reproject(queryGeom, q.crs(), target)
	if err != nil {
		return nil, err
	}

	sel := &Selection{
		CRS:    target,
		Layers: make(map[string]*Layer, len(layers)),
	}

	if pq, ok := q.(PointQuery); ok {
		geom, err := Reproject(pq.Point, pq.CRS, target)
		if err != nil {
			return nil, err
		}
		pt := geom.(orb.Point)
		sel.Point = &pt
	}

	for name, layer := range layers {
		filtered, err := filterLayer(layer, projected, target)
		if err != nil {
			return nil, err
		}
		sel.Layers[name] = filtered
	}
	return sel, nil
}

// SelectLayer is the single-layer form of Select.
func SelectLayer(q QueryGeometry, layer *Layer) (*Layer, error) {
	sel, err := Select(q, map[string]*Layer{layer.Name: layer})
	if err != nil {
		return nil, err
	}
	return sel.Layers[layer.Name], nil
}

// filterLayer reprojects a layer into the target CRS and keeps the
// features intersecting the query geometry.
func filterLayer(layer *Layer, queryGeom orb.Geometry, target CRS) (*Layer, error) {
	if layer.CRS == "" {
		return nil, ErrMissingCRS
	}

	out := NewLayer(layer.Name, target)
	for _, f := range layer.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		geom, err := Reproject(f.Geometry, layer.CRS, target)
		if err != nil {
			return nil, err
		}
		if !Intersects(geom, queryGeom) {
			continue
		}
		nf := geojson.NewFeature(geom)
		nf.ID = f.ID
		nf.Properties = f.Properties
		out.Append(nf)
	}
	return out, nil
}
