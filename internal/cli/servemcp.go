package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cruxe/cruxe/internal/mcpserver"
	"github.com/cruxe/cruxe/internal/semantic"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func serveMCPCmd() *cobra.Command {
	var transport, bind string
	var port, maxAutoWorkspaces int
	var autoWorkspace bool
	var allowedRoots []string

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the MCP tool surface over stdio or HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeMCP(transport, bind, port, autoWorkspace, maxAutoWorkspaces, allowedRoots)
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "stdio or http")
	cmd.Flags().IntVar(&port, "port", 8723, "Port to listen on (http transport only)")
	cmd.Flags().StringVar(&bind, "bind", "127.0.0.1", "Address to bind (http transport only)")
	cmd.Flags().BoolVar(&autoWorkspace, "auto-workspace", true, "Auto-register an unknown workspace on its first tool call")
	cmd.Flags().StringArrayVar(&allowedRoots, "allowed-root", nil, "Restrict auto-registration to workspaces under this root (repeatable)")
	cmd.Flags().IntVar(&maxAutoWorkspaces, "max-auto-workspaces", 0, "Cap on auto-registered workspaces (0: use the cruxe.yaml value)")
	return cmd
}

func runServeMCP(transport, bind string, port int, autoWorkspace bool, maxAutoWorkspaces int, allowedRoots []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxAutoWorkspaces <= 0 {
		maxAutoWorkspaces = cfg.MaxAutoWorkspaces
	}
	if len(allowedRoots) == 0 {
		allowedRoots = cfg.AllowedAutoWorkspaceRoots
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
			return fmt.Errorf("connect semantic provider: %w", err)
		}
	}

	reg, err := mcpserver.NewRegistry(mcpserver.RegistryConfig{
		Home:              flagHome,
		AutoWorkspace:     autoWorkspace,
		AllowedRoots:      allowedRoots,
		MaxAutoWorkspaces: maxAutoWorkspaces,
		Semantic:          provider,
	})
	if err != nil {
		return err
	}
	defer reg.Close()

	srv, err := mcpserver.NewServer(reg)
	if err != nil {
		return err
	}

	switch transport {
	case "stdio", "":
		return srv.MCPServer().Run(context.Background(), &mcp.StdioTransport{})
	case "http":
		handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return srv.MCPServer()
		}, &mcp.StreamableHTTPOptions{JSONResponse: true})
		addr := fmt.Sprintf("%s:%d", bind, port)
		fmt.Printf("cruxe: serving MCP over http on %s\n", addr)
		return http.ListenAndServe(addr, handler)
	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", transport)
	}
}
