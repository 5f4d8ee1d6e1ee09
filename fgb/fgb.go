// Package fgb stores hydrography feature layers as FlatGeobuf files. It
// reads and writes nhdr.Layer values, preserving the comid attribute and
// the layer CRS, and backs the nhdr.LayerLoader contract with a directory
// of per-unit layer files.
package fgb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gudaleon/nhdR"
)

// Common errors returned by this package.
var (
	ErrEmptyLayer      = errors.New("fgb: layer has no features")
	ErrNoIndex         = errors.New("fgb: file has no spatial index")
	ErrUnsupportedType = errors.New("fgb: unsupported geometry type")
)

// WriteOptions configures layer writing.
type WriteOptions struct {
	Description  string // Layer description
	IncludeIndex bool   // Include a spatial index (default in DefaultWriteOptions: true)
}

// DefaultWriteOptions returns the default writer configuration.
func DefaultWriteOptions() *WriteOptions {
	return &WriteOptions{IncludeIndex: true}
}

// Store loads feature layers from a directory laid out as
// <dir>/<unit>/<dataset>.fgb. It implements nhdr.LayerLoader.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore creates a store rooted at dir. A nil logger disables logging.
func NewStore(dir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.Level(1000), // unreachable level, discards everything
		}))
	}
	return &Store{dir: dir, log: log}
}

// LoadLayer reads the named dataset for a watershed management unit.
func (s *Store) LoadLayer(ctx context.Context, unit, dataset string) (*nhdr.Layer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, unit, strings.ToLower(dataset)+".fgb")
	layer, err := ReadLayerFile(path)
	if err != nil {
		return nil, fmt.Errorf("fgb: load %s/%s: %w", unit, dataset, err)
	}
	s.log.Debug("layer loaded",
		"unit", unit, "dataset", dataset, "features", layer.Len())
	return layer, nil
}
