package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/store"
	"github.com/cruxe/cruxe/internal/textindex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// newTestServer builds a Server over a freshly auto-registered workspace
// with one symbol indexed on ref "live": a Go function Helper at
// helper.go:3-5, mirroring the fixture shape spec.md S2/S6 describe.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	home := t.TempDir()
	workspace := t.TempDir()

	reg, err := NewRegistry(RegistryConfig{Home: home, AutoWorkspace: true, AllowedRoots: []string{workspace}})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	proj, err := reg.Resolve(workspace)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := proj.store.UpsertProject(&store.Project{
		ProjectID: proj.id, RepoRoot: workspace, SchemaVersion: 1, ParserVersion: "1",
	}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	if err := proj.store.UpsertSymbol(proj.id, "live", &store.Symbol{
		Path: "helper.go", Language: "go", SymbolID: "sym1", SymbolStableID: "sym1@live",
		Name: "Helper", QualifiedName: "demo.Helper", Kind: "function",
		Signature: "func Helper()", LineStart: 3, LineEnd: 5, Content: "func Helper() { return }",
	}); err != nil {
		t.Fatalf("UpsertSymbol: %v", err)
	}
	if err := proj.store.UpsertBranchState(proj.id, &store.BranchState{
		Ref: "live", Status: "ready", LastAccessedAt: store.Now(), IsDefaultBranch: true,
	}); err != nil {
		t.Fatalf("UpsertBranchState: %v", err)
	}

	overlayDir := ids.OverlayDirForRef(proj.dataDir, "live")
	set, err := textindex.OpenAt(overlayDir)
	if err != nil {
		t.Fatalf("OpenAt overlay: %v", err)
	}
	set.Symbols.Add(textindex.NewSymbolDocument(
		"sym:helper", "live", "helper.go", "go", "sym1", "sym1@live", "Helper", "demo.Helper", "function", "func Helper()", "public", 3, 5))
	set.Snippets.Add(textindex.NewSnippetDocument(
		"snip:helper", "live", "helper.go", "go", "function", "func Helper() { return }", 3, 5))
	if err := set.Commit(); err != nil {
		t.Fatalf("commit overlay: %v", err)
	}

	srv, err := NewServer(reg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv, workspace
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) (map[string]any, bool) {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	res, err := srv.CallTool(context.Background(), name, raw)
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): content is not *mcp.TextContent", name)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(tc.Text), &out); err != nil {
		t.Fatalf("CallTool(%s): unmarshal result: %v\nraw: %s", name, err, tc.Text)
	}
	return out, res.IsError
}

func TestSearchCodeFindsIndexedSymbol(t *testing.T) {
	srv, workspace := newTestServer(t)
	out, isErr := callTool(t, srv, "search_code", map[string]any{"workspace": workspace, "query": "Helper"})
	if isErr {
		t.Fatalf("search_code returned error: %+v", out)
	}
	result, ok := out["result"].(map[string]any)
	if !ok {
		t.Fatalf("result missing or wrong shape: %+v", out)
	}
	items, ok := result["results"].([]any)
	if !ok || len(items) == 0 {
		t.Fatalf("expected at least one search result, got: %+v", result)
	}
}

func TestLocateSymbolFindsByName(t *testing.T) {
	srv, workspace := newTestServer(t)
	out, isErr := callTool(t, srv, "locate_symbol", map[string]any{"workspace": workspace, "name": "Helper"})
	if isErr {
		t.Fatalf("locate_symbol returned error: %+v", out)
	}
	if _, ok := out["metadata"]; !ok {
		t.Fatalf("expected metadata envelope, got: %+v", out)
	}
}

func TestListRefsReportsLiveRef(t *testing.T) {
	srv, workspace := newTestServer(t)
	out, isErr := callTool(t, srv, "list_refs", map[string]any{"workspace": workspace})
	if isErr {
		t.Fatalf("list_refs returned error: %+v", out)
	}
	result, ok := out["result"].(map[string]any)
	if !ok {
		t.Fatalf("result missing: %+v", out)
	}
	refs, ok := result["refs"].([]any)
	if !ok || len(refs) != 1 {
		t.Fatalf("expected exactly one tracked ref, got: %+v", result)
	}
}

func TestSwitchRefRejectsUnknownRef(t *testing.T) {
	srv, workspace := newTestServer(t)
	out, isErr := callTool(t, srv, "switch_ref", map[string]any{"workspace": workspace, "ref": "nope"})
	if !isErr {
		t.Fatalf("expected switch_ref to a never-indexed ref to fail, got: %+v", out)
	}
	errPayload, ok := out["error"].(map[string]any)
	if !ok || errPayload["code"] != "ref_not_indexed" {
		t.Fatalf("expected ref_not_indexed error, got: %+v", out)
	}
}

func TestSwitchRefAcceptsKnownRef(t *testing.T) {
	srv, workspace := newTestServer(t)
	out, isErr := callTool(t, srv, "switch_ref", map[string]any{"workspace": workspace, "ref": "live"})
	if isErr {
		t.Fatalf("switch_ref returned error: %+v", out)
	}
}

func TestHealthCheckReportsSQLOK(t *testing.T) {
	srv, workspace := newTestServer(t)
	out, isErr := callTool(t, srv, "health_check", map[string]any{"workspace": workspace})
	if isErr {
		t.Fatalf("health_check returned error: %+v", out)
	}
	result, ok := out["result"].(map[string]any)
	if !ok || result["sql_ok"] != true {
		t.Fatalf("expected sql_ok=true, got: %+v", out)
	}
}

func TestIndexStatusWithNoActiveJob(t *testing.T) {
	srv, workspace := newTestServer(t)
	out, isErr := callTool(t, srv, "index_status", map[string]any{"workspace": workspace})
	if isErr {
		t.Fatalf("index_status returned error: %+v", out)
	}
	result, ok := out["result"].(map[string]any)
	if !ok {
		t.Fatalf("result missing: %+v", out)
	}
	if _, present := result["active_job"]; present {
		t.Fatalf("expected no active_job field when nothing is running, got: %+v", result)
	}
}

func TestToolNamesListsAllSixteenTools(t *testing.T) {
	srv, _ := newTestServer(t)
	names := srv.ToolNames()
	want := []string{
		"compare_symbol_between_commits", "explain_ranking", "find_related_symbols",
		"get_call_graph", "get_code_context", "get_file_outline", "get_symbol_hierarchy",
		"health_check", "index_repo", "index_status", "list_refs", "locate_symbol",
		"search_code", "suggest_followup_queries", "switch_ref", "sync_repo",
	}
	if len(names) != len(want) {
		t.Fatalf("got %d tools, want %d: %v", len(names), len(want), names)
	}
	for _, w := range want {
		found := false
		for _, n := range names {
			if n == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing tool %q", w)
		}
	}
}
