package mcpserver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/textindex"
)

func TestSchemaStatusForNotIndexed(t *testing.T) {
	dataDir := t.TempDir()
	if status := schemaStatusFor(dataDir, "live"); status != SchemaNotIndexed {
		t.Fatalf("status = %q, want not_indexed", status)
	}
}

func TestSchemaStatusForCompatible(t *testing.T) {
	dataDir := t.TempDir()
	overlayDir := ids.OverlayDirForRef(dataDir, "live")
	set, err := textindex.OpenAt(overlayDir)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	if err := set.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if status := schemaStatusFor(dataDir, "live"); status != SchemaCompatible {
		t.Fatalf("status = %q, want compatible", status)
	}
}

func TestSchemaStatusForCorruptManifest(t *testing.T) {
	dataDir := t.TempDir()
	overlayDir := ids.OverlayDirForRef(dataDir, "live")
	set, err := textindex.OpenAt(overlayDir)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	if err := set.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	manifestPath := filepath.Join(overlayDir, "symbols", "manifest.json")
	if err := os.WriteFile(manifestPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt manifest: %v", err)
	}

	if status := schemaStatusFor(dataDir, "live"); status != SchemaCorruptManifest {
		t.Fatalf("status = %q, want corrupt_manifest", status)
	}
}

func TestGetArgHelpers(t *testing.T) {
	args := map[string]any{
		"name":  "foo",
		"limit": float64(5),
		"force": true,
	}
	if got := getStringArg(args, "name"); got != "foo" {
		t.Fatalf("getStringArg = %q", got)
	}
	if got := getIntArg(args, "limit", 0); got != 5 {
		t.Fatalf("getIntArg = %d", got)
	}
	if got := getIntArg(args, "missing", 42); got != 42 {
		t.Fatalf("getIntArg default = %d", got)
	}
	if got := getBoolArg(args, "force"); !got {
		t.Fatal("getBoolArg = false, want true")
	}
}
