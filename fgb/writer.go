package fgb

import (
	"io"
	"os"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb/geojson"

	"github.com/gudaleon/nhdR"
)

// WriteLayer writes a layer to FlatGeobuf format. The layer name, CRS and
// attribute schema (lower-cased names) are stored in the file header.
func WriteLayer(w io.Writer, layer *nhdr.Layer, opts *WriteOptions) error {
	if opts == nil {
		opts = DefaultWriteOptions()
	}
	if layer == nil || layer.Len() == 0 {
		return ErrEmptyLayer
	}

	builder := flatbuffers.NewBuilder(4096)

	header := writer.NewHeader(builder)
	header.SetGeometryType(layerGeometryType(layer.Features))
	header.SetName(layer.Name)
	if opts.Description != "" {
		header.SetDescription(opts.Description)
	}

	schema := inferSchema(layer.Features)
	columns := schema.columns(builder)
	if len(columns) > 0 {
		header.SetColumns(columns)
	}

	if layer.CRS != "" {
		crs := writer.NewCrs(builder)
		if layer.CRS == nhdr.WGS84 {
			crs.SetOrg("EPSG")
			crs.SetCode(4326)
			crs.SetName("WGS 84")
		} else {
			// Projected layers keep the descriptor verbatim so the reader
			// can restore it bit-for-bit.
			crs.SetName(string(layer.CRS))
		}
		header.SetCrs(crs)
	}

	gen := &layerFeatureGenerator{features: layer.Features, schema: schema}
	fgbWriter := writer.NewWriter(header, opts.IncludeIndex, gen, nil)
	_, err := fgbWriter.Write(w)
	return err
}

// WriteLayerFile writes a layer to a file path.
func WriteLayerFile(path string, layer *nhdr.Layer, opts *WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLayer(f, layer, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// layerGeometryType returns the common geometry type of the features, or
// Unknown when they are mixed.
func layerGeometryType(features []*geojson.Feature) flattypes.GeometryType {
	t := flattypes.GeometryTypeUnknown
	for _, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		ft := geometryType(f.Geometry)
		if t == flattypes.GeometryTypeUnknown {
			t = ft
			continue
		}
		if ft != t {
			return flattypes.GeometryTypeUnknown
		}
	}
	return t
}

// layerFeatureGenerator feeds layer features to the FlatGeobuf writer in
// order.
type layerFeatureGenerator struct {
	features []*geojson.Feature
	schema   *columnSchema
	index    int
}

func (g *layerFeatureGenerator) Generate() *writer.Feature {
	for g.index < len(g.features) {
		f := g.features[g.index]
		g.index++
		if f == nil || f.Geometry == nil {
			continue
		}

		builder := flatbuffers.NewBuilder(1024)
		geom := encodeGeometry(f.Geometry, builder)
		if geom == nil {
			continue
		}

		feat := writer.NewFeature(builder)
		feat.SetGeometry(geom)
		if props := encodeProperties(f.Properties, g.schema); len(props) > 0 {
			feat.SetProperties(props)
		}
		return feat
	}
	return nil
}
