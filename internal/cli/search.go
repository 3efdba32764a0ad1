package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var workspace, ref, language, detailLevel string
	var limit int
	var confidenceThreshold float64
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search across symbols, snippets, and files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "" {
				return fmt.Errorf("query must not be empty")
			}
			return runTool("search_code", map[string]any{
				"workspace":            workspace,
				"query":                args[0],
				"ref":                  ref,
				"language":             language,
				"limit":                limit,
				"detail_level":         detailLevel,
				"confidence_threshold": confidenceThreshold,
			})
		},
	}
	cmd.Flags().StringVar(&workspace, "path", "", "Workspace path (default: current directory)")
	cmd.Flags().StringVar(&ref, "ref", "", "VCS ref to search")
	cmd.Flags().StringVar(&language, "language", "", "Filter by language")
	cmd.Flags().StringVar(&detailLevel, "detail-level", "signature", "location, signature, or context")
	cmd.Flags().IntVar(&limit, "limit", 10, "Max results")
	cmd.Flags().Float64Var(&confidenceThreshold, "confidence-threshold", 0.5, "Minimum confidence before low_confidence is reported")
	return cmd
}
