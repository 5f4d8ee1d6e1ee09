package main

import (
	"errors"
	"testing"

	"github.com/gudaleon/nhdR"
)

func TestLoadConfig_Point(t *testing.T) {
	src := `
data_dir = "./data"
unit     = "0202"

query {
  point  = [-73.24189, 41.0]
  buffer = 0.05
}

layer "nhdwaterbody" {}
layer "nhdflowline" {}

reaches {
  classify = "terminal"
  flow_db  = "./data/plusflow.db"
  layer    = "nhdflowline"
}
`
	cfg, err := LoadConfigData([]byte(src), "query.hcl")
	if err != nil {
		t.Fatalf("LoadConfigData failed: %v", err)
	}

	pq, ok := cfg.Query.(nhdr.PointQuery)
	if !ok {
		t.Fatalf("query resolved to %T, want PointQuery", cfg.Query)
	}
	if pq.Point.Lon() != -73.24189 || pq.Point.Lat() != 41.0 {
		t.Errorf("point = %v", pq.Point)
	}
	if pq.Buffer != 0.05 {
		t.Errorf("buffer = %v", pq.Buffer)
	}
	if pq.CRS != nhdr.WGS84 {
		t.Errorf("CRS = %q", pq.CRS)
	}

	if len(cfg.Layers) != 2 || cfg.Layers[0] != "nhdwaterbody" {
		t.Errorf("layers = %v", cfg.Layers)
	}
	if cfg.Reaches == nil || cfg.Reaches.Classify != "terminal" {
		t.Errorf("reaches = %+v", cfg.Reaches)
	}
}

func TestLoadConfig_Polygon(t *testing.T) {
	src := `
data_dir = "./data"
unit     = "0202"

query {
  polygon = [[-73.3, 40.95], [-73.2, 40.95], [-73.2, 41.05], [-73.3, 41.05]]
}

layer "nhdwaterbody" {}
`
	cfg, err := LoadConfigData([]byte(src), "query.hcl")
	if err != nil {
		t.Fatalf("LoadConfigData failed: %v", err)
	}

	pq, ok := cfg.Query.(nhdr.PolygonQuery)
	if !ok {
		t.Fatalf("query resolved to %T, want PolygonQuery", cfg.Query)
	}
	ring := pq.Polygon[0]
	if len(ring) != 5 {
		t.Fatalf("ring has %d vertices, want 5 (closed)", len(ring))
	}
	if !ring[0].Equal(ring[len(ring)-1]) {
		t.Error("ring was not closed")
	}
}

func TestLoadConfig_PointAndPolygonRejected(t *testing.T) {
	src := `
data_dir = "./data"
unit     = "0202"

query {
  point   = [-73.24189, 41.0]
  polygon = [[-73.3, 40.95], [-73.2, 40.95], [-73.2, 41.05]]
}
`
	_, err := LoadConfigData([]byte(src), "query.hcl")
	if !errors.Is(err, nhdr.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestLoadConfig_NeitherRejected(t *testing.T) {
	src := `
data_dir = "./data"
unit     = "0202"

query {
  buffer = 0.05
}
`
	_, err := LoadConfigData([]byte(src), "query.hcl")
	if !errors.Is(err, nhdr.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestLoadConfig_BadClassify(t *testing.T) {
	src := `
data_dir = "./data"
unit     = "0202"

query {
  point  = [-73.24189, 41.0]
  buffer = 0.05
}

reaches {
  classify = "sideways"
  flow_db  = "x.db"
  layer    = "nhdflowline"
}
`
	if _, err := LoadConfigData([]byte(src), "query.hcl"); err == nil {
		t.Error("expected error for bad classify mode")
	}
}
