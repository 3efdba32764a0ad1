package cli

import (
	"fmt"
	"os"

	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/textindex"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Register a workspace and materialize its empty base index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(workspaceArg(args))
		},
	}
}

// runInit registers the workspace with the registry and materializes an
// empty text-index set at the default ref's overlay directory, so S1's
// `init` + `doctor` roundtrip finds state.db and overlay/live/{symbols,
// snippets,files} before any index job has run. No separate base/
// directory is created.
func runInit(path string) error {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve cwd: %w", err)
		}
	}

	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	proj, err := reg.Resolve(path)
	if err != nil {
		return err
	}

	overlayDir := ids.OverlayDirForRef(proj.DataDir(), ids.DefaultRef)
	set, err := textindex.OpenAt(overlayDir)
	if err != nil {
		return fmt.Errorf("materialize base index: %w", err)
	}
	if err := set.Commit(); err != nil {
		return fmt.Errorf("commit base index: %w", err)
	}

	fmt.Printf("initialized project %s at %s\n", proj.ID(), proj.DataDir())
	return nil
}
