package mcpserver

import (
	"testing"

	"github.com/cruxe/cruxe/internal/store"
)

// newGraphTestServer builds a server over three symbols on ref "live"
// chained A -> B -> C via calls edges, so get_call_graph's two-hop BFS
// has a direct (hop 1) and near (hop 2) neighbor to classify.
func newGraphTestServer(t *testing.T) *Server {
	t.Helper()
	srv, workspace := newTestServer(t)

	proj, err := srv.registry.Resolve(workspace)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	for _, sym := range []*store.Symbol{
		{Path: "a.go", Language: "go", SymbolID: "symA", SymbolStableID: "symA@live", Name: "A", QualifiedName: "demo.A", Kind: "function", LineStart: 1, LineEnd: 3},
		{Path: "b.go", Language: "go", SymbolID: "symB", SymbolStableID: "symB@live", Name: "B", QualifiedName: "demo.B", Kind: "function", LineStart: 1, LineEnd: 3},
		{Path: "c.go", Language: "go", SymbolID: "symC", SymbolStableID: "symC@live", Name: "C", QualifiedName: "demo.C", Kind: "function", LineStart: 1, LineEnd: 3},
	} {
		if err := proj.store.UpsertSymbol(proj.id, "live", sym); err != nil {
			t.Fatalf("UpsertSymbol %s: %v", sym.Name, err)
		}
	}

	for _, e := range []*store.Edge{
		{FromSymbolID: "symA", ToSymbolID: "symB", ToName: "B", EdgeType: "calls", ConfidenceBucket: "high", ConfidenceWeight: 1.0, SourceFile: "a.go"},
		{FromSymbolID: "symB", ToSymbolID: "symC", ToName: "C", EdgeType: "calls", ConfidenceBucket: "high", ConfidenceWeight: 1.0, SourceFile: "b.go"},
	} {
		if err := proj.store.InsertEdge(proj.id, "live", e); err != nil {
			t.Fatalf("InsertEdge: %v", err)
		}
	}

	return srv
}

func TestGetCallGraphTagsProximityByHopDepth(t *testing.T) {
	srv := newGraphTestServer(t)

	out, isErr := callTool(t, srv, "get_call_graph", map[string]any{
		"symbol_name": "A",
		"direction":   "callees",
		"depth":       5,
	})
	if isErr {
		t.Fatalf("get_call_graph returned an error envelope: %v", out)
	}

	result, ok := out["result"].(map[string]any)
	if !ok {
		t.Fatalf("result field missing or wrong type: %v", out)
	}
	callees, ok := result["callees"].([]any)
	if !ok || len(callees) != 2 {
		t.Fatalf("callees = %v, want 2 entries", result["callees"])
	}

	proximityByName := make(map[string]string, len(callees))
	for _, c := range callees {
		edge := c.(map[string]any)
		proximityByName[edge["name"].(string)] = edge["proximity"].(string)
	}
	if proximityByName["B"] != string(store.ProximityDirect) {
		t.Fatalf("B proximity = %q, want %q", proximityByName["B"], store.ProximityDirect)
	}
	if proximityByName["C"] != string(store.ProximityNear) {
		t.Fatalf("C proximity = %q, want %q", proximityByName["C"], store.ProximityNear)
	}

	summary, ok := result["callee_summary"].(map[string]any)
	if !ok {
		t.Fatalf("callee_summary missing: %v", result)
	}
	if int(summary["direct"].(float64)) != 1 || int(summary["near"].(float64)) != 1 {
		t.Fatalf("callee_summary = %v, want 1 direct + 1 near", summary)
	}
}
