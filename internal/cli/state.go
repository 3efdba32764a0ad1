package cli

import (
	"fmt"
	"os"

	"github.com/cruxe/cruxe/internal/state"
	"github.com/spf13/cobra"
)

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Export or import a project's portable state bundle",
	}
	cmd.AddCommand(stateExportCmd())
	cmd.AddCommand(stateImportCmd())
	return cmd
}

func stateExportCmd() *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "export <bundle-path>",
		Short: "Export the project's data directory to a portable tar bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := workspace
			if ws == "" {
				var err error
				ws, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve cwd: %w", err)
				}
			}
			reg, err := openRegistry()
			if err != nil {
				return err
			}
			defer reg.Close()

			proj, err := reg.Resolve(ws)
			if err != nil {
				return err
			}
			if err := state.Export(proj.DataDir(), args[0], proj.ID(), ws); err != nil {
				return err
			}
			fmt.Printf("exported project %s to %s\n", proj.ID(), args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&workspace, "path", "", "Workspace path (default: current directory)")
	return cmd
}

func stateImportCmd() *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "import <bundle-path>",
		Short: "Import a portable tar bundle into the workspace's data directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := workspace
			if ws == "" {
				var err error
				ws, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve cwd: %w", err)
				}
			}
			reg, err := openRegistry()
			if err != nil {
				return err
			}
			defer reg.Close()

			proj, err := reg.Resolve(ws)
			if err != nil {
				return err
			}
			result, err := state.Import(args[0], proj.DataDir(), proj.ID())
			if err != nil {
				return err
			}
			fmt.Printf("imported bundle into project %s (remapped=%v, reindex_recommended=%v)\n",
				proj.ID(), result.Remapped, result.ReindexRecommended)
			return nil
		},
	}
	cmd.Flags().StringVar(&workspace, "path", "", "Workspace path (default: current directory)")
	return cmd
}
