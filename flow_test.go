package nhdr

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// reachLayer builds a flowline layer with one short linestring per comid.
func reachLayer(ids ...COMID) *Layer {
	layer := NewLayer("nhdflowline", WGS84)
	for i, id := range ids {
		x := float64(i) / 100
		f := geojson.NewFeature(orb.LineString{{-73 + x, 41}, {-73 + x, 41.01}})
		f.Properties = geojson.Properties{"comid": int64(id)}
		layer.Append(f)
	}
	return layer
}

func comids(l *Layer) ReachSet {
	return l.COMIDs()
}

func TestRestrict(t *testing.T) {
	table := FlowTable{{1, 2}, {2, 3}, {8, 9}, {9, 1}}
	got := table.Restrict(NewReachSet(1, 2))
	if len(got) != 3 {
		t.Fatalf("Restrict kept %d edges, want 3", len(got))
	}
	for _, e := range got {
		if e.From != 1 && e.To != 1 && e.From != 2 && e.To != 2 {
			t.Errorf("edge %v does not touch the reach set", e)
		}
	}
}

func TestTerminalReaches(t *testing.T) {
	table := FlowTable{{1, 2}, {2, 3}, {3, 0}, {4, 2}}
	layer := reachLayer(1, 2, 3, 4)

	got := comids(TerminalReaches(table, NewReachSet(1, 2, 3, 4), layer))
	if len(got) != 1 || !got.Contains(3) {
		t.Errorf("terminal reaches = %v, want {3}", got)
	}
}

func TestTerminalReaches_DisconnectedEdge(t *testing.T) {
	// A single edge with no traceable upstream flow is not a genuine
	// outlet.
	table := FlowTable{{9, 0}}
	layer := reachLayer(9)

	got := TerminalReaches(table, NewReachSet(9), layer)
	if got.Len() != 0 {
		t.Errorf("expected empty terminal set, got %v", comids(got))
	}
}

func TestTerminalReaches_RequiresLayerMembership(t *testing.T) {
	table := FlowTable{{1, 2}, {2, 3}, {3, 0}}
	layer := reachLayer(1, 2) // 3 is missing from the geometry collection

	got := TerminalReaches(table, NewReachSet(1, 2, 3), layer)
	if got.Len() != 0 {
		t.Errorf("reach without geometry must not be returned, got %v", comids(got))
	}
}

func TestLeafReaches(t *testing.T) {
	table := FlowTable{{1, 2}, {2, 3}, {3, 0}, {4, 2}}
	layer := reachLayer(1, 2, 3, 4)

	got := comids(LeafReaches(table, NewReachSet(1, 2, 3, 4), layer))
	if len(got) != 2 || !got.Contains(1) || !got.Contains(4) {
		t.Errorf("leaf reaches = %v, want {1, 4}", got)
	}
}

func TestLeafReaches_ExternalInflowKeepsHeadwater(t *testing.T) {
	// Reach 7 feeds reach 1 but is outside the reach set: 1 still has no
	// upstream continuation inside the queried subgraph.
	table := FlowTable{{7, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 2}}
	layer := reachLayer(1, 2, 3, 4)

	got := comids(LeafReaches(table, NewReachSet(1, 2, 3, 4), layer))
	if len(got) != 2 || !got.Contains(1) || !got.Contains(4) {
		t.Errorf("leaf reaches = %v, want {1, 4}", got)
	}
}

func TestLeafReaches_Confluence(t *testing.T) {
	// Two branches joining at 3, which drains out: the branch heads are
	// the only leaves.
	table := FlowTable{{1, 3}, {2, 3}, {3, 0}}
	layer := reachLayer(1, 2, 3)

	got := comids(LeafReaches(table, NewReachSet(1, 2, 3), layer))
	if len(got) != 2 || !got.Contains(1) || !got.Contains(2) {
		t.Errorf("leaf reaches = %v, want {1, 2}", got)
	}

	terminal := comids(TerminalReaches(table, NewReachSet(1, 2, 3), layer))
	if len(terminal) != 1 || !terminal.Contains(3) {
		t.Errorf("terminal reaches = %v, want {3}", terminal)
	}
}

func TestSentinelNeverContributes(t *testing.T) {
	// Edges carrying the sentinel as fromcomid are tolerated and
	// discarded.
	table := FlowTable{{0, 5}, {5, 0}}
	layer := reachLayer(5)

	terminal := comids(TerminalReaches(table, NewReachSet(5), layer))
	if terminal.Contains(0) {
		t.Error("sentinel appeared in terminal result")
	}
	if len(terminal) != 0 {
		// (0,5) is not a genuine upstream connection for the sink (5,0).
		t.Errorf("terminal reaches = %v, want empty", terminal)
	}

	leaf := comids(LeafReaches(table, NewReachSet(5), layer))
	if leaf.Contains(0) {
		t.Error("sentinel appeared in leaf result")
	}
	if len(leaf) != 0 {
		// Both edges carry a sentinel endpoint and are discarded.
		t.Errorf("leaf reaches = %v, want empty", leaf)
	}
}

func TestTerminalReaches_SentinelSourceDoesNotMaskOutlet(t *testing.T) {
	// A stray (0, x) edge alongside a real outlet: the sentinel must not
	// be mistaken for a reach with downstream continuation, which would
	// suppress the genuine sink (3, 0).
	table := FlowTable{{1, 3}, {3, 0}, {0, 7}}
	layer := reachLayer(1, 3, 7)

	got := comids(TerminalReaches(table, NewReachSet(1, 3, 7), layer))
	if len(got) != 1 || !got.Contains(3) {
		t.Errorf("terminal reaches = %v, want {3}", got)
	}
}

func TestEmptyFlowTable(t *testing.T) {
	layer := reachLayer(1, 2)
	if got := TerminalReaches(nil, NewReachSet(1, 2), layer); got.Len() != 0 {
		t.Errorf("terminal on empty table = %v", comids(got))
	}
	if got := LeafReaches(nil, NewReachSet(1, 2), layer); got.Len() != 0 {
		t.Errorf("leaf on empty table = %v", comids(got))
	}
}
