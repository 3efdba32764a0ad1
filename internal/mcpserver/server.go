package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cruxe/cruxe/internal/jobmgr"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the release version stamped in the MCP handshake.
const Version = "0.1.0"

// Server wraps the MCP transport with cruxe's tool handlers, bridging
// every call through the registry to the target project's store.
type Server struct {
	mcp              *mcp.Server
	registry         *Registry
	handlers         map[string]mcp.ToolHandler
	startupRecovery  *jobmgr.InterruptedRecoveryReport
}

// NewServer builds a Server with every tool registered, and runs
// interrupted-job recovery for every already-known project.
func NewServer(registry *Registry) (*Server, error) {
	s := &Server{registry: registry, handlers: make(map[string]mcp.ToolHandler)}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: "cruxe", Version: Version}, &mcp.ServerOptions{})
	s.registerTools()

	report, err := s.recoverAll()
	if err != nil {
		return nil, fmt.Errorf("startup interrupted-job recovery: %w", err)
	}
	s.startupRecovery = report
	return s, nil
}

// MCPServer returns the underlying transport-level server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) addTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.mcp.AddTool(tool, handler)
	s.handlers[tool.Name] = handler
}

// CallTool invokes a registered tool handler directly, bypassing the MCP
// transport; used by the CLI surface and by tests.
func (s *Server) CallTool(ctx context.Context, name string, argsJSON json.RawMessage) (*mcp.CallToolResult, error) {
	handler, ok := s.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	if len(argsJSON) == 0 {
		argsJSON = json.RawMessage(`{}`)
	}
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Name: name, Arguments: argsJSON}}
	return handler(ctx, req)
}

// ToolNames returns every registered tool name, sorted.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) registerTools() {
	s.registerSearchTools()
	s.registerSymbolTools()
	s.registerGraphTools()
	s.registerLifecycleTools()
}

// recoverAll runs jobmgr.RecoverInterruptedJobs for every workspace the
// registry already knows about, per spec.md §4.8's interrupted-recovery
// rule, and returns the combined report surfaced by health_check. This
// opens (and leaves cached in the registry) every known project's store,
// since recovery must inspect a project even if no tool call has touched
// it yet this process lifetime.
func (s *Server) recoverAll() (*jobmgr.InterruptedRecoveryReport, error) {
	known, err := s.registry.KnownWorkspaces()
	if err != nil {
		return nil, fmt.Errorf("list known workspaces: %w", err)
	}

	combined := &jobmgr.InterruptedRecoveryReport{}
	for _, w := range known {
		p, err := s.registry.Resolve(w.RepoRoot)
		if err != nil {
			continue
		}
		report, err := jobmgr.RecoverInterruptedJobs(p.store)
		if err != nil {
			return nil, fmt.Errorf("recover interrupted jobs for project %s: %w", p.id, err)
		}
		combined.RecoveredJobIDs = append(combined.RecoveredJobIDs, report.RecoveredJobIDs...)
	}
	return combined, nil
}
