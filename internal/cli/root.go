// Package cli implements cruxe's command-line surface: the Cobra tree
// behind the `cruxe` binary (init, doctor, index, sync, search, serve-mcp,
// state export/import, prune-overlays). Every subcommand that mirrors an
// MCP tool dispatches through the same mcpserver.Server.CallTool path the
// MCP transport itself uses, so CLI and MCP callers observe identical
// envelopes and error codes.
package cli

import (
	"fmt"
	"os"

	"github.com/cruxe/cruxe/internal/config"
	"github.com/cruxe/cruxe/internal/mcpserver"
	"github.com/cruxe/cruxe/internal/semantic"
	"github.com/spf13/cobra"
)

var (
	flagHome       string
	flagConfigPath string
	flagJSONOutput bool
)

const semanticEmbeddingDim = 256

// RootCmd returns the root command for the cruxe binary.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cruxe",
		Short:         "Per-project code-search and navigation indexer",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	home, _ := os.UserHomeDir()
	root.PersistentFlags().StringVar(&flagHome, "home", home, "Home directory cruxe's data lives under (<home>/.cruxe/data)")
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "cruxe.yaml", "Path to an optional cruxe.yaml config file")
	root.PersistentFlags().BoolVar(&flagJSONOutput, "raw", false, "Print the raw JSON envelope instead of a human summary")

	root.AddCommand(initCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(indexCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(serveMCPCmd())
	root.AddCommand(stateCmd())
	root.AddCommand(pruneOverlaysCmd())

	return root
}

// loadConfig reads --config, tolerating a missing file per config.Load's
// own contract.
func loadConfig() (*config.Config, error) {
	path := flagConfigPath
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	return config.Load(path)
}

// openRegistry builds the Registry every tool-backed subcommand resolves
// its workspace through, wiring the optional semantic provider from
// cruxe.yaml when one is configured.
func openRegistry() (*mcpserver.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var provider semantic.Provider
	if cfg.Semantic.Host != "" {
		provider, err = semantic.NewQdrantProvider(semantic.Config{
			Host:   cfg.Semantic.Host,
			Port:   cfg.Semantic.Port,
			APIKey: cfg.Semantic.APIKey,
			Dim:    semanticEmbeddingDim,
		}, semantic.NewHashEmbedder(semanticEmbeddingDim))
		if err != nil {
			return nil, fmt.Errorf("connect semantic provider: %w", err)
		}
	}

	return mcpserver.NewRegistry(mcpserver.RegistryConfig{
		Home:              flagHome,
		AutoWorkspace:     true,
		AllowedRoots:      cfg.AllowedAutoWorkspaceRoots,
		MaxAutoWorkspaces: cfg.MaxAutoWorkspaces,
		Semantic:          provider,
	})
}

// openServer builds a Registry and the Server wrapping it, for
// subcommands that dispatch through CallTool.
func openServer() (*mcpserver.Server, *mcpserver.Registry, error) {
	reg, err := openRegistry()
	if err != nil {
		return nil, nil, err
	}
	srv, err := mcpserver.NewServer(reg)
	if err != nil {
		reg.Close()
		return nil, nil, err
	}
	return srv, reg, nil
}

func workspaceArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
