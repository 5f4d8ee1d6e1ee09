package nhdr

// FlowEdge is one entry of a flow-connectivity table: the From reach
// flows into the To reach. To == Sentinel marks a terminal outlet that
// leaves the modeled domain. Edges with From == Sentinel are never
// expected but are tolerated and discarded by every traversal.
type FlowEdge struct {
	From COMID
	To   COMID
}

// FlowTable is the full edge set for a watershed management unit. It is
// treated as immutable for the duration of a query.
type FlowTable []FlowEdge

// ReachSet is a transient set of comids of interest, typically the
// flowlines returned by a prior spatial query.
type ReachSet map[COMID]struct{}

// NewReachSet builds a set from explicit comids.
func NewReachSet(ids ...COMID) ReachSet {
	set := make(ReachSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports set membership.
func (s ReachSet) Contains(id COMID) bool {
	_, ok := s[id]
	return ok
}

// Restrict returns the edges touching the reach set: those whose From or
// To comid is a member. This bounds the graph algorithms to the locally
// relevant portion of a possibly continental-scale table.
func (t FlowTable) Restrict(reaches ReachSet) FlowTable {
	var out FlowTable
	for _, e := range t {
		if reaches.Contains(e.From) || reaches.Contains(e.To) {
			out = append(out, e)
		}
	}
	return out
}

// fromSet returns the set of non-sentinel From comids appearing in the
// table. Sentinel sources are discarded so a stray (0, x) edge cannot
// make the sentinel look like a reach with downstream continuation.
func (t FlowTable) fromSet() ReachSet {
	set := make(ReachSet, len(t))
	for _, e := range t {
		if e.From == Sentinel {
			continue
		}
		set[e.From] = struct{}{}
	}
	return set
}

// TerminalReaches returns the features of layer that are effective
// network outlets of the subgraph induced by reaches: local sinks whose
// immediate upstream edge carries a genuine (non-sentinel) source. A
// disconnected single edge with no traceable upstream flow is excluded.
// An empty result is a valid outcome, not an error.
func TerminalReaches(table FlowTable, reaches ReachSet, layer *Layer) *Layer {
	focal := table.Restrict(reaches)
	froms := focal.fromSet()

	// Upstream lookup keyed by downstream comid. Key-based joins only:
	// multiple upstream edges may share a downstream node.
	upstream := make(map[COMID][]FlowEdge, len(focal))
	for _, e := range focal {
		upstream[e.To] = append(upstream[e.To], e)
	}

	terminal := make(ReachSet)
	for _, e := range focal {
		if e.From == Sentinel {
			continue
		}
		if froms.Contains(e.To) {
			continue // has a downstream continuation inside the subgraph
		}
		for _, u := range upstream[e.From] {
			if u.From != Sentinel {
				terminal[e.From] = struct{}{}
				break
			}
		}
	}

	return layer.Subset(terminal)
}

// LeafReaches returns the features of layer that are headwater entry
// points of the subgraph induced by reaches: reaches carrying flow into
// the network with no upstream continuation inside it. Edges with a
// sentinel endpoint never contribute, and inflow from reaches outside
// the set does not disqualify a headwater.
func LeafReaches(table FlowTable, reaches ReachSet, layer *Layer) *Layer {
	focal := table.Restrict(reaches)

	// Reaches fed from inside the network: downstream ends of edges whose
	// endpoints both belong to the reach set.
	fed := make(ReachSet)
	for _, e := range table {
		if e.From == Sentinel || e.To == Sentinel {
			continue
		}
		if reaches.Contains(e.From) && reaches.Contains(e.To) {
			fed[e.To] = struct{}{}
		}
	}

	leaves := make(ReachSet)
	for _, e := range focal {
		if e.From == Sentinel || e.To == Sentinel {
			continue
		}
		if !reaches.Contains(e.From) {
			continue
		}
		if !fed.Contains(e.From) {
			leaves[e.From] = struct{}{}
		}
	}

	return layer.Subset(leaves)
}
