package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cruxe/cruxe/internal/ids"
)

func TestRootCmdRegistersEveryDocumentedSubcommand(t *testing.T) {
	root := RootCmd()
	want := []string{"init", "doctor", "index", "sync", "watch", "search", "serve-mcp", "state", "prune-overlays"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %q to be registered, find error: %v", name, err)
		}
	}
}

func TestStateCmdRegistersExportAndImport(t *testing.T) {
	root := RootCmd()
	for _, name := range []string{"export", "import"} {
		if _, _, err := root.Find([]string{"state", name}); err != nil {
			t.Fatalf("expected state subcommand %q, got error: %v", name, err)
		}
	}
}

// TestRunInitMaterializesBaseIndex exercises S1's init half: init on an
// empty workspace creates the project's data dir and an empty
// symbols/snippets/files index set at the default ref's overlay.
func TestRunInitMaterializesBaseIndex(t *testing.T) {
	home := t.TempDir()
	workspace := t.TempDir()

	origHome, origConfig := flagHome, flagConfigPath
	flagHome = home
	flagConfigPath = filepath.Join(home, "absent-cruxe.yaml")
	defer func() { flagHome, flagConfigPath = origHome, origConfig }()

	if err := runInit(workspace); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	projectID, err := ids.ProjectID(workspace)
	if err != nil {
		t.Fatalf("ids.ProjectID: %v", err)
	}
	dataDir := ids.DataDir(home, projectID)
	if _, err := os.Stat(filepath.Join(dataDir, "state.db")); err != nil {
		t.Fatalf("expected state.db under %s: %v", dataDir, err)
	}

	overlayDir := ids.OverlayDirForRef(dataDir, ids.DefaultRef)
	for _, kind := range []string{"symbols", "snippets", "files"} {
		if _, err := os.Stat(filepath.Join(overlayDir, kind, "manifest.json")); err != nil {
			t.Fatalf("expected %s manifest under %s: %v", kind, overlayDir, err)
		}
	}
}
