// Package nhdr answers spatial and topological questions over a
// hydrographic network: which mapped water features fall inside a region
// of interest (a buffered point or a polygon), and which flowline reaches
// are network outlets or headwaters with respect to a flow-connectivity
// table.
//
// The package is a pure in-memory core. Feature layers and flow tables are
// produced by collaborators (see LayerLoader and FlowLoader); nothing here
// performs I/O or retains state across calls.
package nhdr

import (
	"context"
	"errors"
)

// Common errors returned by this package.
var (
	ErrMissingCRS    = errors.New("nhdr: query geometry has no coordinate reference system")
	ErrEmptyGeometry = errors.New("nhdr: query geometry is empty")
	ErrInvalidQuery  = errors.New("nhdr: exactly one of point or polygon must be supplied")
	ErrUnknownCRS    = errors.New("nhdr: unrecognized coordinate reference system")
)

// LayerLoader supplies named feature layers for a watershed management
// unit. Implementations may read from disk or the network; returned layers
// must carry a comid attribute and a defined CRS.
type LayerLoader interface {
	LoadLayer(ctx context.Context, unit, dataset string) (*Layer, error)
}

// FlowLoader supplies the flow-connectivity table for a watershed
// management unit.
type FlowLoader interface {
	LoadFlowTable(ctx context.Context, unit string) (FlowTable, error)
}
