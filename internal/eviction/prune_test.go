package eviction

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/store"
)

func newTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	dataDir := t.TempDir()
	st, err := store.OpenInDataDir(dataDir, store.Config{})
	if err != nil {
		t.Fatalf("OpenInDataDir: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.UpsertProject(&store.Project{ProjectID: "proj", RepoRoot: dataDir, SchemaVersion: 1, ParserVersion: "1"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	return st, dataDir
}

func makeOverlay(t *testing.T, dataDir, ref string) string {
	t.Helper()
	dir := ids.OverlayDirForRef(dataDir, ref)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir overlay: %v", err)
	}
	return dir
}

func TestPruneRemovesStaleNonDefaultOverlay(t *testing.T) {
	st, dataDir := newTestStore(t)
	overlayDir := makeOverlay(t, dataDir, "feature-x")

	old := time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)
	if err := st.UpsertBranchState("proj", &store.BranchState{Ref: "feature-x", Status: "ready", LastAccessedAt: old}); err != nil {
		t.Fatalf("UpsertBranchState: %v", err)
	}

	report, err := Prune(st, dataDir, "proj", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(report.Removed) != 1 || report.Removed[0] != "feature-x" {
		t.Fatalf("expected feature-x removed, got: %+v", report)
	}
	if _, err := os.Stat(overlayDir); !os.IsNotExist(err) {
		t.Fatalf("expected overlay dir removed, stat err: %v", err)
	}

	state, err := st.GetBranchState("proj", "feature-x")
	if err != nil {
		t.Fatalf("GetBranchState: %v", err)
	}
	if state.Status != "evicted" {
		t.Fatalf("status = %q, want evicted", state.Status)
	}
}

func TestPruneSkipsDefaultBranch(t *testing.T) {
	st, dataDir := newTestStore(t)
	makeOverlay(t, dataDir, "live")
	old := time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)
	if err := st.UpsertBranchState("proj", &store.BranchState{Ref: "live", Status: "ready", LastAccessedAt: old, IsDefaultBranch: true}); err != nil {
		t.Fatalf("UpsertBranchState: %v", err)
	}

	report, err := Prune(st, dataDir, "proj", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(report.Removed) != 0 {
		t.Fatalf("expected default branch never pruned, got: %+v", report)
	}
}

func TestPruneSkipsRecentlyAccessedRef(t *testing.T) {
	st, dataDir := newTestStore(t)
	makeOverlay(t, dataDir, "feature-recent")
	recent := time.Now().UTC().Format(time.RFC3339)
	if err := st.UpsertBranchState("proj", &store.BranchState{Ref: "feature-recent", Status: "ready", LastAccessedAt: recent}); err != nil {
		t.Fatalf("UpsertBranchState: %v", err)
	}

	report, err := Prune(st, dataDir, "proj", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if report.KeptRecent != 1 || len(report.Removed) != 0 {
		t.Fatalf("expected recent ref kept, got: %+v", report)
	}
}

func TestPruneSkipsActiveWorktreeLease(t *testing.T) {
	st, dataDir := newTestStore(t)
	makeOverlay(t, dataDir, "feature-leased")
	old := time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)
	if err := st.UpsertBranchState("proj", &store.BranchState{Ref: "feature-leased", Status: "ready", LastAccessedAt: old}); err != nil {
		t.Fatalf("UpsertBranchState: %v", err)
	}
	if err := st.AcquireWorktreeLease("proj", "feature-leased"); err != nil {
		t.Fatalf("AcquireWorktreeLease: %v", err)
	}

	report, err := Prune(st, dataDir, "proj", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if report.KeptActiveLease != 1 || len(report.Removed) != 0 {
		t.Fatalf("expected leased ref kept, got: %+v", report)
	}
}

func TestPruneRefusesPathOutsideAllowedOverlayRoots(t *testing.T) {
	st, dataDir := newTestStore(t)
	outside := filepath.Join(filepath.Dir(dataDir), "not-an-overlay")
	if err := os.MkdirAll(outside, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	old := time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)
	if err := st.UpsertBranchState("proj", &store.BranchState{
		Ref: "feature-escape", Status: "ready", LastAccessedAt: old, OverlayDir: outside,
	}); err != nil {
		t.Fatalf("UpsertBranchState: %v", err)
	}

	report, err := Prune(st, dataDir, "proj", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if report.KeptUnsafePath != 1 || len(report.Removed) != 0 {
		t.Fatalf("expected escape path kept unsafe, got: %+v", report)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Fatalf("expected outside dir to survive prune: %v", err)
	}
}
