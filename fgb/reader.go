package fgb

import (
	"fmt"
	"strings"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb/geojson"

	"github.com/gudaleon/nhdR"
)

// ReadLayerFile reads a FlatGeobuf layer file into an nhdr.Layer. The
// file is memory-mapped for access.
func ReadLayerFile(path string) (*nhdr.Layer, error) {
	f, err := flatgeobuf.New(path)
	if err != nil {
		return nil, err
	}
	return readLayer(f)
}

// ReadLayer reads a FlatGeobuf layer from byte data.
func ReadLayer(data []byte) (*nhdr.Layer, error) {
	f, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return readLayer(f)
}

func readLayer(f *flatgeobuf.FlatGeoBuf) (*nhdr.Layer, error) {
	h := f.Header()
	if h == nil {
		return nil, fmt.Errorf("fgb: missing header")
	}

	layer := nhdr.NewLayer(string(h.Name()), crsFromHeader(h))
	if h.FeaturesCount() == 0 {
		return layer, nil
	}

	// Feature iteration goes through the spatial index with the full
	// envelope; a file without an index cannot be enumerated.
	if h.IndexNodeSize() == 0 || h.EnvelopeLength() < 4 {
		return nil, ErrNoIndex
	}

	features, err := f.Search(h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3))
	if err != nil {
		return nil, err
	}

	for _, raw := range features {
		if feat := decodeFeature(raw, h); feat != nil {
			layer.Append(feat)
		}
	}
	return layer, nil
}

// decodeFeature converts one FlatGeobuf feature, lower-casing attribute
// names so comid joins behave regardless of source casing.
func decodeFeature(raw *flattypes.Feature, header *flattypes.Header) *geojson.Feature {
	if raw == nil {
		return nil
	}

	var geomObj flattypes.Geometry
	geom := decodeGeometry(raw.Geometry(&geomObj))
	if geom == nil {
		return nil
	}

	feat := geojson.NewFeature(geom)
	if n := raw.PropertiesLength(); n > 0 && header.ColumnsLength() > 0 {
		propBytes := make([]byte, n)
		for i := 0; i < n; i++ {
			propBytes[i] = byte(raw.Properties(i))
		}
		feat.Properties = decodeProperties(propBytes, header)
	}
	return feat
}

// crsFromHeader recovers the layer CRS. EPSG:4326 maps to the geographic
// WGS84 descriptor; projected layers carry their descriptor in the CRS
// name field (see writer).
func crsFromHeader(h *flattypes.Header) nhdr.CRS {
	var crs flattypes.Crs
	if h.Crs(&crs) == nil {
		return ""
	}
	if crs.Code() == 4326 {
		return nhdr.WGS84
	}
	if name := string(crs.Name()); strings.HasPrefix(name, "utm ") || name == string(nhdr.WGS84) {
		return nhdr.CRS(name)
	}
	return ""
}
