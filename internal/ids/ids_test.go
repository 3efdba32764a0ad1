package ids

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProjectIDStable(t *testing.T) {
	dir := t.TempDir()
	id1, err := ProjectID(dir)
	if err != nil {
		t.Fatalf("ProjectID: %v", err)
	}
	id2, err := ProjectID(dir)
	if err != nil {
		t.Fatalf("ProjectID: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("project id not stable: %s != %s", id1, id2)
	}
	if len(id1) != ProjectIDLength {
		t.Fatalf("expected id of length %d, got %d (%s)", ProjectIDLength, len(id1), id1)
	}
}

func TestProjectIDDistinctForDistinctRoots(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	idA, err := ProjectID(a)
	if err != nil {
		t.Fatalf("ProjectID(a): %v", err)
	}
	idB, err := ProjectID(b)
	if err != nil {
		t.Fatalf("ProjectID(b): %v", err)
	}
	if idA == idB {
		t.Fatalf("expected distinct ids for distinct roots, got %s for both", idA)
	}
}

func TestProjectIDStableAcrossNotYetExisting(t *testing.T) {
	parent := t.TempDir()
	notYetCreated := filepath.Join(parent, "repo", "nested")

	before, err := ProjectID(notYetCreated)
	if err != nil {
		t.Fatalf("ProjectID before create: %v", err)
	}

	if err := os.MkdirAll(notYetCreated, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	after, err := ProjectID(notYetCreated)
	if err != nil {
		t.Fatalf("ProjectID after create: %v", err)
	}

	if before != after {
		t.Fatalf("project id changed once path came into existence: %s != %s", before, after)
	}
}

func TestCanonicalPathReattachesMissingSuffix(t *testing.T) {
	parent := t.TempDir()
	missing := filepath.Join(parent, "a", "b", "c")

	got, err := CanonicalPath(missing)
	if err != nil {
		t.Fatalf("CanonicalPath: %v", err)
	}
	want := filepath.Join(parent, "a", "b", "c")
	if got != want {
		t.Fatalf("CanonicalPath(%q) = %q, want %q", missing, got, want)
	}
}

func TestNormalizeRef(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "default"},
		{"main", "main"},
		{"feature/foo", "feature-foo"},
		{"release/1.2.3", "release-1.2.3"},
		{"weird ref", "weird%20ref"},
	}
	for _, c := range cases {
		got := NormalizeRef(c.in)
		if got != c.want {
			t.Errorf("NormalizeRef(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeRefInjective(t *testing.T) {
	refs := []string{"main", "feature/foo", "feature-foo", "weird ref", "weird%20ref"}
	seen := map[string]string{}
	for _, r := range refs {
		n := NormalizeRef(r)
		if prior, ok := seen[n]; ok && prior != r {
			t.Errorf("collision: %q and %q both normalize to %q", prior, r, n)
		}
		seen[n] = r
	}
}

func TestDataDirLayout(t *testing.T) {
	home := "/home/user"
	dataDir := DataDir(home, "abc123")
	if dataDir != filepath.Join(home, ".cruxe", "data", "abc123") {
		t.Fatalf("unexpected data dir: %s", dataDir)
	}
	overlay := OverlayDirForRef(dataDir, "main")
	if overlay != filepath.Join(dataDir, "overlay", "main") {
		t.Fatalf("unexpected overlay dir: %s", overlay)
	}
}

func TestIsOverlayDirAllowed(t *testing.T) {
	dataDir := t.TempDir()
	overlayRoot := filepath.Join(dataDir, "overlay")
	if err := os.MkdirAll(filepath.Join(overlayRoot, "main"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "other"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	canonicalData, err := CanonicalPath(dataDir)
	if err != nil {
		t.Fatalf("CanonicalPath(dataDir): %v", err)
	}
	canonicalOverlay, err := CanonicalPath(filepath.Join(overlayRoot, "main"))
	if err != nil {
		t.Fatalf("CanonicalPath(overlay): %v", err)
	}
	canonicalOther, err := CanonicalPath(filepath.Join(dataDir, "other"))
	if err != nil {
		t.Fatalf("CanonicalPath(other): %v", err)
	}

	if !IsOverlayDirAllowed(canonicalData, canonicalOverlay) {
		t.Errorf("expected overlay dir to be allowed")
	}
	if IsOverlayDirAllowed(canonicalData, canonicalOther) {
		t.Errorf("expected sibling dir outside overlay roots to be rejected")
	}
}
