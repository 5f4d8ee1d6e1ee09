package main

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/paulmach/orb"
	"github.com/zclconf/go-cty/cty"

	"github.com/gudaleon/nhdR"
)

// Config is the fully resolved query configuration. Mode dispatch (point
// versus polygon) happens once, here, while the file is decoded; the rest
// of the program only sees the tagged nhdr.QueryGeometry variant.
type Config struct {
	DataDir string
	Unit    string
	Query   nhdr.QueryGeometry
	Layers  []string
	Reaches *ReachConfig
}

// ReachConfig asks for terminal or leaf classification of one layer.
type ReachConfig struct {
	Classify string `hcl:"classify"` // "terminal" or "leaf"
	FlowDB   string `hcl:"flow_db"`
	Layer    string `hcl:"layer"`
}

// hclConfig mirrors the HCL file structure for decoding.
type hclConfig struct {
	DataDir string       `hcl:"data_dir"`
	Unit    string       `hcl:"unit"`
	Query   hclQuery     `hcl:"query,block"`
	Layers  []hclLayer   `hcl:"layer,block"`
	Reaches *ReachConfig `hcl:"reaches,block"`
}

type hclQuery struct {
	Point   hcl.Expression `hcl:"point,optional"`
	Polygon hcl.Expression `hcl:"polygon,optional"`
	Buffer  float64        `hcl:"buffer,optional"`
}

type hclLayer struct {
	Name string `hcl:"name,label"`
}

// LoadConfig parses and resolves a query configuration file.
func LoadConfig(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", path, diags)
	}
	return resolveConfig(file.Body)
}

// LoadConfigData parses a configuration from bytes (used by tests).
func LoadConfigData(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %w", filename, diags)
	}
	return resolveConfig(file.Body)
}

func resolveConfig(body hcl.Body) (*Config, error) {
	var raw hclConfig
	if diags := gohcl.DecodeBody(body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decode config: %w", diags)
	}

	query, err := resolveQuery(raw.Query)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir: raw.DataDir,
		Unit:    raw.Unit,
		Query:   query,
		Reaches: raw.Reaches,
	}
	for _, l := range raw.Layers {
		cfg.Layers = append(cfg.Layers, l.Name)
	}

	if cfg.Reaches != nil {
		switch cfg.Reaches.Classify {
		case "terminal", "leaf":
		default:
			return nil, fmt.Errorf("reaches.classify must be %q or %q, got %q",
				"terminal", "leaf", cfg.Reaches.Classify)
		}
	}
	return cfg, nil
}

// resolveQuery enforces the point/polygon exclusivity rule and builds the
// tagged query variant. Coordinates are geographic WGS84 by contract.
func resolveQuery(q hclQuery) (nhdr.QueryGeometry, error) {
	point, havePoint, err := coordFromExpr(q.Point)
	if err != nil {
		return nil, fmt.Errorf("query.point: %w", err)
	}
	ring, havePolygon, err := ringFromExpr(q.Polygon)
	if err != nil {
		return nil, fmt.Errorf("query.polygon: %w", err)
	}

	if havePoint == havePolygon {
		return nil, nhdr.ErrInvalidQuery
	}
	if havePoint {
		return nhdr.PointQuery{Point: point, CRS: nhdr.WGS84, Buffer: q.Buffer}, nil
	}
	return nhdr.PolygonQuery{Polygon: orb.Polygon{ring}, CRS: nhdr.WGS84}, nil
}

// coordFromExpr evaluates an optional [lon, lat] expression.
func coordFromExpr(expr hcl.Expression) (orb.Point, bool, error) {
	vals, ok, err := numberLists(expr, 1)
	if err != nil || !ok {
		return orb.Point{}, ok, err
	}
	if len(vals[0]) != 2 {
		return orb.Point{}, false, fmt.Errorf("expected [lon, lat], got %d values", len(vals[0]))
	}
	return orb.Point{vals[0][0], vals[0][1]}, true, nil
}

// ringFromExpr evaluates an optional [[x, y], ...] expression into a
// closed ring.
func ringFromExpr(expr hcl.Expression) (orb.Ring, bool, error) {
	vals, ok, err := numberLists(expr, 2)
	if err != nil || !ok {
		return nil, ok, err
	}
	ring := make(orb.Ring, 0, len(vals)+1)
	for i, pair := range vals {
		if len(pair) != 2 {
			return nil, false, fmt.Errorf("vertex %d: expected [x, y]", i)
		}
		ring = append(ring, orb.Point{pair[0], pair[1]})
	}
	if len(ring) < 3 {
		return nil, false, fmt.Errorf("polygon needs at least 3 vertices")
	}
	if !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring, true, nil
}

// numberLists evaluates an expression to nested numeric lists, depth 1
// for a flat coordinate, depth 2 for a vertex list. A missing or null
// expression reports ok=false.
func numberLists(expr hcl.Expression, depth int) ([][]float64, bool, error) {
	if expr == nil {
		return nil, false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, false, fmt.Errorf("evaluate: %w", diags)
	}
	if val.IsNull() {
		return nil, false, nil
	}

	if depth == 1 {
		pair, err := numbersOf(val)
		if err != nil {
			return nil, false, err
		}
		return [][]float64{pair}, true, nil
	}

	if !val.CanIterateElements() {
		return nil, false, fmt.Errorf("expected a list of coordinate pairs")
	}
	var out [][]float64
	for it := val.ElementIterator(); it.Next(); {
		_, el := it.Element()
		pair, err := numbersOf(el)
		if err != nil {
			return nil, false, err
		}
		out = append(out, pair)
	}
	return out, true, nil
}

// numbersOf converts a cty list/tuple of numbers to floats.
func numbersOf(val cty.Value) ([]float64, error) {
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("expected a list of numbers")
	}
	var out []float64
	for it := val.ElementIterator(); it.Next(); {
		_, el := it.Element()
		if el.Type() != cty.Number {
			return nil, fmt.Errorf("expected a number, got %s", el.Type().FriendlyName())
		}
		f, _ := el.AsBigFloat().Float64()
		out = append(out, f)
	}
	return out, nil
}
