package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cruxe/cruxe/internal/store"
)

func TestImportRemapsProjectIDAndMarksBranchesStale(t *testing.T) {
	tmp := t.TempDir()
	sourceDataDir := filepath.Join(tmp, "source-data")
	if err := os.MkdirAll(sourceDataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	st, err := store.OpenInDataDir(sourceDataDir, store.Config{})
	if err != nil {
		t.Fatalf("OpenInDataDir: %v", err)
	}
	if err := st.UpsertProject(&store.Project{ProjectID: "old-proj", RepoRoot: "/old/repo", SchemaVersion: 1, ParserVersion: "1"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	if err := st.UpsertBranchState("old-proj", &store.BranchState{Ref: "live", Status: "ready", LastAccessedAt: store.Now()}); err != nil {
		t.Fatalf("UpsertBranchState: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close source store: %v", err)
	}

	bundlePath := filepath.Join(tmp, "bundle.tar.zst")
	if err := Export(sourceDataDir, bundlePath, "old-proj", "/old/repo"); err != nil {
		t.Fatalf("Export: %v", err)
	}

	targetDataDir := filepath.Join(tmp, "target-data")
	result, err := Import(bundlePath, targetDataDir, "new-proj")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !result.Remapped {
		t.Fatal("expected Remapped=true when project ids differ")
	}

	targetStore, err := store.OpenInDataDir(targetDataDir, store.Config{})
	if err != nil {
		t.Fatalf("open target store: %v", err)
	}
	defer targetStore.Close()

	proj, err := targetStore.GetProject("new-proj")
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if proj == nil {
		t.Fatal("expected project row remapped to new-proj")
	}

	states, err := targetStore.ListBranchStates("new-proj")
	if err != nil {
		t.Fatalf("ListBranchStates: %v", err)
	}
	if len(states) != 1 || states[0].Status != "stale" {
		t.Fatalf("expected exactly one stale branch state, got: %+v", states)
	}
}
