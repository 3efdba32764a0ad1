package cli

import "github.com/spf13/cobra"

func indexCmd() *cobra.Command {
	return lifecycleJobCmd("index", "index_repo", "Run a full index of the workspace")
}

func syncCmd() *cobra.Command {
	return lifecycleJobCmd("sync", "sync_repo", "Run an incremental sync of the workspace")
}

func lifecycleJobCmd(use, toolName, short string) *cobra.Command {
	var workspace, ref string
	var force bool
	cmd := &cobra.Command{
		Use:   use + " [path]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := workspace
			if ws == "" {
				ws = workspaceArg(args)
			}
			return runTool(toolName, map[string]any{
				"workspace": ws,
				"force":     force,
				"ref":       ref,
			})
		},
	}
	cmd.Flags().StringVar(&workspace, "path", "", "Workspace path (default: current directory or positional arg)")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the tool's running-job pre-check (the job manager still refuses to start while a job is active)")
	cmd.Flags().StringVar(&ref, "ref", "", "VCS ref to scope the job to (default: the repo's current ref)")
	return cmd
}
