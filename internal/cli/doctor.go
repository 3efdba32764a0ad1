package cli

import "github.com/spf13/cobra"

func doctorCmd() *cobra.Command {
	var workspace string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report SQL and text-index health, plus interrupted-job recovery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool("health_check", map[string]any{"workspace": workspace})
		},
	}
	cmd.Flags().StringVar(&workspace, "path", "", "Workspace path (default: current directory)")
	return cmd
}
