// Command nhdquery runs spatial and flow-network queries against local
// hydrography data. The query is described by an HCL configuration file:
//
//	data_dir = "./data"
//	unit     = "0202"
//
//	query {
//	  point  = [-73.24189, 41.0]
//	  buffer = 0.05
//	}
//
//	layer "nhdwaterbody" {}
//	layer "nhdflowline" {}
//
//	reaches {
//	  classify = "terminal"
//	  flow_db  = "./data/plusflow.db"
//	  layer    = "nhdflowline"
//	}
//
// Results are written as GeoJSON to stdout, or as FlatGeobuf layer files
// when -out names a directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/gudaleon/nhdR"
	"github.com/gudaleon/nhdR/fgb"
	"github.com/gudaleon/nhdR/flowdb"
)

func main() {
	configPath := flag.String("config", "query.hcl", "query configuration file")
	outDir := flag.String("out", "", "write result layers as FlatGeobuf files to this directory")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(context.Background(), *configPath, *outDir, logger); err != nil {
		logger.Error("query failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, outDir string, logger *slog.Logger) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	store := fgb.NewStore(cfg.DataDir, logger)
	layers := make(map[string]*nhdr.Layer, len(cfg.Layers))
	for _, name := range cfg.Layers {
		layer, err := store.LoadLayer(ctx, cfg.Unit, name)
		if err != nil {
			return err
		}
		layers[name] = layer
	}

	sel, err := nhdr.Select(cfg.Query, layers)
	if err != nil {
		return err
	}
	for _, name := range sortedKeys(sel.Layers) {
		logger.Info("layer selected", "layer", name, "features", sel.Layers[name].Len())
	}

	results := sel.Layers
	if cfg.Reaches != nil {
		classified, err := classifyReaches(ctx, cfg, sel, logger)
		if err != nil {
			return err
		}
		results = map[string]*nhdr.Layer{classified.Name: classified}
	}

	if outDir != "" {
		return writeFlatGeobuf(outDir, results)
	}
	return writeGeoJSON(os.Stdout, results)
}

// classifyReaches applies terminal or leaf classification to the
// configured reach layer of the selection.
func classifyReaches(ctx context.Context, cfg *Config, sel *nhdr.Selection, logger *slog.Logger) (*nhdr.Layer, error) {
	layer, ok := sel.Layers[cfg.Reaches.Layer]
	if !ok {
		return nil, fmt.Errorf("reaches.layer %q is not a selected layer", cfg.Reaches.Layer)
	}

	db, err := flowdb.Open(cfg.Reaches.FlowDB, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	table, err := db.LoadFlowTable(ctx, cfg.Unit)
	if err != nil {
		return nil, err
	}

	reaches := layer.COMIDs()
	var out *nhdr.Layer
	if cfg.Reaches.Classify == "terminal" {
		out = nhdr.TerminalReaches(table, reaches, layer)
	} else {
		out = nhdr.LeafReaches(table, reaches, layer)
	}
	logger.Info("reaches classified",
		"mode", cfg.Reaches.Classify, "layer", layer.Name,
		"candidates", layer.Len(), "matched", out.Len())
	return out, nil
}

func writeGeoJSON(w *os.File, layers map[string]*nhdr.Layer) error {
	out := make(map[string]*geojson.FeatureCollection, len(layers))
	for name, layer := range layers {
		fc := geojson.NewFeatureCollection()
		for _, f := range layer.Features {
			fc.Append(f)
		}
		out[name] = fc
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeFlatGeobuf(dir string, layers map[string]*nhdr.Layer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, layer := range layers {
		if layer.Len() == 0 {
			continue // nothing matched; an empty result is not an error
		}
		path := filepath.Join(dir, name+".fgb")
		if err := fgb.WriteLayerFile(path, layer, nil); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]*nhdr.Layer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
