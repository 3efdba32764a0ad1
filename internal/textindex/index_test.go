package textindex

import (
	"path/filepath"
	"testing"
)

func TestIndexAddCommitSearchRoundTrip(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, "symbols"), KindSymbols)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	idx.Add(NewSymbolDocument("a.go:validateToken", "live", "a.go", "go", "sym-1", "stable-1",
		"validateToken", "auth.validateToken", "function", "func validateToken(t string) bool", "exported", 3, 8))
	idx.Add(NewSymbolDocument("b.go:otherFunc", "live", "b.go", "go", "sym-2", "stable-2",
		"otherFunc", "auth.otherFunc", "function", "func otherFunc()", "exported", 1, 2))

	if err := idx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if idx.DocCount() != 2 {
		t.Fatalf("expected 2 docs, got %d", idx.DocCount())
	}

	results := idx.Search("validate token", 10)
	if len(results) == 0 || results[0].Doc.ID != "a.go:validateToken" {
		t.Fatalf("expected validateToken to rank first, got %+v", results)
	}

	// Reopen from disk and confirm the postings survive the round trip.
	reopened, err := OpenExisting(filepath.Join(dir, "symbols"), KindSymbols)
	if err != nil {
		t.Fatalf("OpenExisting: %v", err)
	}
	if reopened.DocCount() != 2 {
		t.Fatalf("expected 2 docs after reopen, got %d", reopened.DocCount())
	}
	reResults := reopened.Search("validate token", 10)
	if len(reResults) == 0 || reResults[0].Doc.ID != "a.go:validateToken" {
		t.Fatalf("expected validateToken to rank first after reopen, got %+v", reResults)
	}
}

func TestIndexRemoveTombstonesDocument(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, "symbols"), KindSymbols)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	idx.Add(NewSymbolDocument("a.go:validateToken", "live", "a.go", "go", "sym-1", "stable-1",
		"validateToken", "auth.validateToken", "function", "func validateToken()", "exported", 3, 8))
	if err := idx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	idx.Remove("a.go:validateToken")
	if err := idx.Commit(); err != nil {
		t.Fatalf("Commit(remove): %v", err)
	}
	if idx.DocCount() != 0 {
		t.Fatalf("expected 0 docs after remove, got %d", idx.DocCount())
	}
	if results := idx.Search("validate token", 10); len(results) != 0 {
		t.Fatalf("expected no results after remove, got %+v", results)
	}
}

func TestIndexSetOpenExistingFailsWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	if _, err := OpenExistingAt(dir); err == nil {
		t.Fatalf("expected error opening a set with no manifests")
	}
}

func TestIndexSetHealthCheck(t *testing.T) {
	dir := t.TempDir()
	set, err := OpenAt(dir)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	set.Symbols.Add(NewSymbolDocument("a.go:f", "live", "a.go", "go", "sym-1", "stable-1",
		"f", "pkg.f", "function", "func f()", "exported", 1, 2))
	if err := set.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	results := HealthCheck(set)
	if len(results) != 3 {
		t.Fatalf("expected 3 health results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Healthy {
			t.Fatalf("expected %s healthy, got %s", r.Kind, r.Message)
		}
	}
}

func TestSchemaMigrationRequiredOnVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(filepath.Join(dir, "symbols"), KindSymbols)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := idx.writeManifest(manifest{SchemaVersion: 999}); err != nil {
		t.Fatalf("writeManifest: %v", err)
	}
	if _, err := OpenExisting(filepath.Join(dir, "symbols"), KindSymbols); err == nil {
		t.Fatalf("expected schema migration error")
	}
}
