package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cruxe/cruxe/internal/watch"
	"github.com/spf13/cobra"
)

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func watchCmd() *cobra.Command {
	var workspace, ref string
	var debounceMillis int
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch the workspace for file changes and sync incrementally on each batch",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := workspace
			if ws == "" {
				ws = workspaceArg(args)
			}
			if ws == "" {
				var err error
				ws, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve cwd: %w", err)
				}
			}
			return runWatch(ws, ref, debounceMillis)
		},
	}
	cmd.Flags().StringVar(&workspace, "path", "", "Workspace path (default: current directory or positional arg)")
	cmd.Flags().StringVar(&ref, "ref", "", "VCS ref to scope syncs to (default: the repo's current ref)")
	cmd.Flags().IntVar(&debounceMillis, "debounce-ms", 500, "Milliseconds of quiet time before a batch of changes triggers a sync")
	return cmd
}

// runWatch keeps one Server open for the process lifetime and dispatches a
// sync_repo call through it on every debounced batch, so a long-running
// `cruxe watch` observes the same envelopes and error codes as a one-shot
// `cruxe sync`.
func runWatch(workspace, ref string, debounceMillis int) error {
	srv, reg, err := openServer()
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	w, err := watch.New(workspace, func(ctx context.Context) error {
		argsJSON, err := json.Marshal(map[string]any{"workspace": workspace, "ref": ref})
		if err != nil {
			return err
		}
		res, err := srv.CallTool(ctx, "sync_repo", argsJSON)
		if err != nil {
			return err
		}
		text := resultText(res)
		fmt.Println(text)
		return nil
	}, msToDuration(debounceMillis))
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	fmt.Printf("cruxe: watching %s for changes (debounce=%dms)\n", workspace, debounceMillis)
	return w.Run(ctx)
}
