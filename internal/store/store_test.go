package store

import "testing"

func TestOpenMemory(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()
}

func TestProjectCRUD(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	p := &Project{
		ProjectID:     "abc123",
		RepoRoot:      "/tmp/repo",
		DefaultRef:    "live",
		VCSMode:       "none",
		SchemaVersion: SchemaVersion,
		ParserVersion: "v1",
	}
	if err := s.UpsertProject(p); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	got, err := s.GetProject("abc123")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.RepoRoot != "/tmp/repo" {
		t.Fatalf("unexpected repo root: %s", got.RepoRoot)
	}

	list, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 project, got %d", len(list))
	}
}

func TestSymbolCRUD(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject(&Project{ProjectID: "p1", RepoRoot: "/r", DefaultRef: "live", SchemaVersion: SchemaVersion, ParserVersion: "v1"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	sym := &Symbol{
		Path: "src/auth.rs", Language: "rust", SymbolID: "sym-1", SymbolStableID: "stable-1",
		Name: "validate_token", QualifiedName: "auth::validate_token", Kind: "function",
		Signature: "pub fn validate_token(token: &str) -> bool", LineStart: 3, LineEnd: 8,
	}
	if err := s.UpsertSymbol("p1", "live", sym); err != nil {
		t.Fatalf("UpsertSymbol: %v", err)
	}

	found, err := s.FindSymbolsByName("p1", "live", "validate_token", "")
	if err != nil {
		t.Fatalf("FindSymbolsByName: %v", err)
	}
	if len(found) != 1 || found[0].Path != "src/auth.rs" {
		t.Fatalf("unexpected find result: %+v", found)
	}

	byPath, err := s.FindSymbolsByPath("p1", "live", "src/auth.rs")
	if err != nil {
		t.Fatalf("FindSymbolsByPath: %v", err)
	}
	if len(byPath) != 1 {
		t.Fatalf("expected 1 symbol by path, got %d", len(byPath))
	}

	if err := s.DeleteSymbolsByPath("p1", "live", "src/auth.rs"); err != nil {
		t.Fatalf("DeleteSymbolsByPath: %v", err)
	}
	count, err := s.CountSymbols("p1", "live")
	if err != nil {
		t.Fatalf("CountSymbols: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 symbols after delete, got %d", count)
	}
}

func TestEdgeCRUDAndBFS(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.UpsertProject(&Project{ProjectID: "p1", RepoRoot: "/r", DefaultRef: "live", SchemaVersion: SchemaVersion, ParserVersion: "v1"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	edges := []*Edge{
		{FromSymbolID: "a", ToSymbolID: "b", EdgeType: "calls", EdgeProvider: "call_resolver", ResolutionOutcome: "resolved_internal", ConfidenceBucket: "high", ConfidenceWeight: 1.0, SourceFile: "a.go", SourceLine: 10},
		{FromSymbolID: "b", ToSymbolID: "c", EdgeType: "calls", EdgeProvider: "call_resolver", ResolutionOutcome: "resolved_internal", ConfidenceBucket: "high", ConfidenceWeight: 1.0, SourceFile: "b.go", SourceLine: 5},
	}
	if err := s.InsertEdgeBatch("p1", "live", edges); err != nil {
		t.Fatalf("InsertEdgeBatch: %v", err)
	}

	result, err := s.BFS("p1", "live", "a", "callees", []string{"calls"}, 5, 100)
	if err != nil {
		t.Fatalf("BFS: %v", err)
	}
	if len(result.Visited) != 2 {
		t.Fatalf("expected 2 visited symbols, got %d: %+v", len(result.Visited), result.Visited)
	}
}

func TestTombstoneFiltering(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if err := s.InsertTombstone("p1", "main", "deleted.go", "file_deleted"); err != nil {
		t.Fatalf("InsertTombstone: %v", err)
	}

	paths, err := s.TombstonedPaths("p1", "main")
	if err != nil {
		t.Fatalf("TombstonedPaths: %v", err)
	}
	if !paths["deleted.go"] {
		t.Fatalf("expected deleted.go to be tombstoned")
	}

	otherRefPaths, err := s.TombstonedPaths("p1", "other")
	if err != nil {
		t.Fatalf("TombstonedPaths(other): %v", err)
	}
	if len(otherRefPaths) != 0 {
		t.Fatalf("expected no tombstones on other ref, got %v", otherRefPaths)
	}
}

func TestSchemaVersionMismatch(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer s.Close()

	if _, err := s.db.Exec(`UPDATE schema_meta SET value='999' WHERE key='schema_version'`); err != nil {
		t.Fatalf("force version bump: %v", err)
	}

	if err := s.ensureSchemaVersion(); err == nil {
		t.Fatalf("expected schema version mismatch error")
	}
}
