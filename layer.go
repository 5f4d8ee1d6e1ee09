package nhdr

import (
	"strings"

	"github.com/paulmach/orb/geojson"
)

// COMID is the globally unique integer identifier carried by every
// hydrography reach and waterbody. It is the join key between feature
// layers and the flow-connectivity table.
type COMID int64

// Sentinel marks "outside the modeled domain" in flow tables. It is never
// a real reach identifier.
const Sentinel COMID = 0

// Layer is a named, ordered collection of hydrography features tagged
// with the CRS its coordinates are expressed in.
type Layer struct {
	Name     string
	CRS      CRS
	Features []*geojson.Feature
}

// NewLayer creates an empty layer.
func NewLayer(name string, crs CRS) *Layer {
	return &Layer{Name: name, CRS: crs}
}

// Append adds a feature, preserving insertion order.
func (l *Layer) Append(f *geojson.Feature) {
	l.Features = append(l.Features, f)
}

// Len returns the number of features in the layer.
func (l *Layer) Len() int {
	return len(l.Features)
}

// COMIDs returns the set of comids present in the layer. Features without
// a comid attribute are skipped.
func (l *Layer) COMIDs() ReachSet {
	set := make(ReachSet, len(l.Features))
	for _, f := range l.Features {
		if id, ok := FeatureCOMID(f); ok {
			set[id] = struct{}{}
		}
	}
	return set
}

// Subset returns a new layer holding the features whose comid belongs to
// the given set, in their original order.
func (l *Layer) Subset(set ReachSet) *Layer {
	out := NewLayer(l.Name, l.CRS)
	for _, f := range l.Features {
		if id, ok := FeatureCOMID(f); ok {
			if _, in := set[id]; in {
				out.Append(f)
			}
		}
	}
	return out
}

// FeatureCOMID extracts the comid attribute from a feature. Attribute
// names are matched case-insensitively and integer, long and double
// encodings are all accepted, since upstream sources disagree on both.
func FeatureCOMID(f *geojson.Feature) (COMID, bool) {
	if f == nil || f.Properties == nil {
		return 0, false
	}
	v, ok := f.Properties["comid"]
	if !ok {
		for k, pv := range f.Properties {
			if strings.EqualFold(k, "comid") {
				v = pv
				ok = true
				break
			}
		}
	}
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case int:
		return COMID(n), true
	case int32:
		return COMID(n), true
	case int64:
		return COMID(n), true
	case uint32:
		return COMID(n), true
	case uint64:
		return COMID(n), true
	case float32:
		return COMID(n), true
	case float64:
		return COMID(n), true
	default:
		return 0, false
	}
}
