package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/cruxe/cruxe/internal/eviction"
	"github.com/spf13/cobra"
)

func pruneOverlaysCmd() *cobra.Command {
	var workspace string
	var retentionDays int
	cmd := &cobra.Command{
		Use:   "prune-overlays",
		Short: "Evict the on-disk overlay for refs not queried within the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := workspace
			if ws == "" {
				var err error
				ws, err = os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve cwd: %w", err)
				}
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			days := retentionDays
			if days <= 0 {
				days = cfg.RetentionDays
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

			cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
			report, err := eviction.Prune(proj.Store(), proj.DataDir(), proj.ID(), cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("removed %d overlay(s); kept active_lease=%d recent=%d unsafe_path=%d remove_error=%d\n",
				len(report.Removed), report.KeptActiveLease, report.KeptRecent, report.KeptUnsafePath, report.KeptRemoveError)
			for _, ref := range report.Removed {
				fmt.Printf("  removed %s\n", ref)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&workspace, "path", "", "Workspace path (default: current directory)")
	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Days since last access before an overlay is eligible for eviction (0: use cruxe.yaml's default)")
	return cmd
}
