package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

func (s *Server) registerGraphTools() {
	s.addTool(&mcp.Tool{
		Name:        "get_call_graph",
		Description: "Return callers/callees for a symbol with bounded graph traversal.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"symbol_name": {"type": "string"},
				"path": {"type": "string"},
				"ref": {"type": "string"},
				"direction": {"type": "string", "enum": ["callers", "callees", "both"], "default": "both"},
				"depth": {"type": "integer", "description": "1-5, clamped"},
				"limit": {"type": "integer", "description": "Max edges per direction (default 20)"}
			},
			"required": ["symbol_name"]
		}`),
	}, s.handleGetCallGraph)

	s.addTool(&mcp.Tool{
		Name:        "get_symbol_hierarchy",
		Description: "Walk the parent/child symbol chain (ancestors or descendants) of a symbol.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"symbol_name": {"type": "string"},
				"path": {"type": "string"},
				"ref": {"type": "string"},
				"direction": {"type": "string", "enum": ["ancestors", "descendants"], "default": "descendants"}
			},
			"required": ["symbol_name"]
		}`),
	}, s.handleGetSymbolHierarchy)

	s.addTool(&mcp.Tool{
		Name:        "find_related_symbols",
		Description: "Find symbols related to a given symbol by file, module (directory), or package scope.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"symbol_name": {"type": "string"},
				"path": {"type": "string"},
				"ref": {"type": "string"},
				"scope": {"type": "string", "enum": ["file", "module", "package"], "default": "file"},
				"limit": {"type": "integer"}
			},
			"required": ["symbol_name"]
		}`),
	}, s.handleFindRelatedSymbols)

	s.addTool(&mcp.Tool{
		Name:        "compare_symbol_between_commits",
		Description: "Diff one symbol's body between two refs.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"symbol_name": {"type": "string"},
				"path": {"type": "string"},
				"base_ref": {"type": "string"},
				"head_ref": {"type": "string"}
			},
			"required": ["symbol_name", "base_ref", "head_ref"]
		}`),
	}, s.handleCompareSymbolBetweenCommits)
}

// resolveOneSymbol finds the single symbol matching name (and, if given,
// path) at (project, ref), erroring on zero or multiple matches.
func resolveOneSymbol(st *store.Store, projectID, ref, name, filePath string) (*store.Symbol, error) {
	candidates, err := st.FindSymbolsByName(projectID, ref, name, "")
	if err != nil {
		return nil, err
	}
	if filePath != "" {
		filtered := candidates[:0]
		for _, c := range candidates {
			if c.Path == filePath {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}
	if len(candidates) == 0 {
		return nil, cxerr.New(cxerr.CodeSymbolNotFound, "no symbol named "+name)
	}
	if len(candidates) > 1 {
		return nil, cxerr.New(cxerr.CodeAmbiguousSymbol, fmt.Sprintf("%d symbols named %q; disambiguate with path", len(candidates), name))
	}
	return candidates[0], nil
}

type edgeView struct {
	SymbolID      string  `json:"symbol_id,omitempty"`
	Name          string  `json:"name,omitempty"`
	Path          string  `json:"path,omitempty"`
	EdgeType      string  `json:"edge_type"`
	Confidence    string  `json:"confidence_bucket"`
	ConfidenceVal float64 `json:"confidence_weight"`
	Proximity     string  `json:"proximity"`
}

func (s *Server) handleGetCallGraph(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	name := getStringArg(args, "symbol_name")
	if name == "" {
		return errorResult(cxerr.New(cxerr.CodeInvalidInput, "symbol_name is required"), qc.meta), nil
	}
	sym, err := resolveOneSymbol(qc.proj.store, qc.proj.id, qc.ref, name, getStringArg(args, "path"))
	if err != nil {
		return errorResult(err, qc.meta), nil
	}

	direction := getStringArg(args, "direction")
	if direction == "" {
		direction = "both"
	}
	depth := getIntArg(args, "depth", 1)
	if depth < 1 {
		depth = 1
	}
	if depth > 5 {
		depth = 5
	}
	limit := getIntArg(args, "limit", 20)

	var callees, callers []edgeView
	var calleeSummary, callerSummary store.TraversalSummary
	if direction == "callees" || direction == "both" {
		callees, calleeSummary = s.walkEdges(qc, sym.SymbolID, depth, limit, true)
	}
	if direction == "callers" || direction == "both" {
		callers, callerSummary = s.walkEdges(qc, sym.SymbolID, depth, limit, false)
	}
	if len(callees) == 0 && len(callers) == 0 {
		return errorResult(cxerr.New(cxerr.CodeNoEdgesAvailable, "no edges for symbol "+name), qc.meta), nil
	}

	return okResult(struct {
		SymbolName    string                  `json:"symbol_name"`
		Callees       []edgeView              `json:"callees,omitempty"`
		Callers       []edgeView              `json:"callers,omitempty"`
		CalleeSummary *store.TraversalSummary `json:"callee_summary,omitempty"`
		CallerSummary *store.TraversalSummary `json:"caller_summary,omitempty"`
	}{
		SymbolName:    name,
		Callees:       callees,
		Callers:       callers,
		CalleeSummary: summaryOrNil(callees, calleeSummary),
		CallerSummary: summaryOrNil(callers, callerSummary),
	}, qc.meta), nil
}

func summaryOrNil(edges []edgeView, summary store.TraversalSummary) *store.TraversalSummary {
	if len(edges) == 0 {
		return nil
	}
	return &summary
}

// walkEdges runs a bounded BFS from symbolID via Store.BFS, outbound when
// forward is true (callees) or inbound when false (callers), and tags
// each neighbor with its proximity bucket derived from the BFS hop depth
// (spec.md §9's arena+index graph model: flat edge table, explicit BFS,
// visited set keyed by stable id).
func (s *Server) walkEdges(qc *toolContext, symbolID string, depth, limit int, forward bool) ([]edgeView, store.TraversalSummary) {
	direction := "callers"
	if forward {
		direction = "callees"
	}

	result, err := qc.proj.store.BFS(qc.proj.id, qc.ref, symbolID, direction, nil, depth, limit)
	if err != nil {
		return nil, store.TraversalSummary{}
	}

	deduped := store.DeduplicateHops(result.Visited)
	hopBySymbol := make(map[string]int, len(deduped))
	for _, hop := range deduped {
		hopBySymbol[hop.SymbolStableID] = hop.Hop
	}

	seen := make(map[string]bool, len(result.Edges))
	var out []edgeView
	for _, e := range result.Edges {
		neighborID := e.ToSymbolID
		if !forward {
			neighborID = e.FromSymbolID
		}
		if neighborID == "" || neighborID == symbolID || seen[neighborID] {
			continue
		}
		seen[neighborID] = true
		if len(out) >= limit {
			break
		}

		view := edgeView{
			SymbolID:      neighborID,
			Name:          e.ToName,
			EdgeType:      e.EdgeType,
			Confidence:    e.ConfidenceBucket,
			ConfidenceVal: e.ConfidenceWeight,
			Proximity:     string(store.HopToProximity(hopBySymbol[neighborID])),
		}
		if sym, _ := symbolByID(qc, neighborID); sym != nil {
			view.Name = sym.Name
			view.Path = sym.Path
		}
		out = append(out, view)
	}
	return out, store.BuildTraversalSummary(deduped)
}

func (s *Server) handleGetSymbolHierarchy(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	name := getStringArg(args, "symbol_name")
	if name == "" {
		return errorResult(cxerr.New(cxerr.CodeInvalidInput, "symbol_name is required"), qc.meta), nil
	}
	sym, err := resolveOneSymbol(qc.proj.store, qc.proj.id, qc.ref, name, getStringArg(args, "path"))
	if err != nil {
		return errorResult(err, qc.meta), nil
	}

	direction := getStringArg(args, "direction")
	if direction == "" {
		direction = "descendants"
	}

	all, err := qc.proj.store.AllSymbols(qc.proj.id, qc.ref)
	if err != nil {
		return errorResult(err, qc.meta), nil
	}
	byID := make(map[string]*store.Symbol, len(all))
	for _, s := range all {
		byID[s.SymbolID] = s
	}

	var chain []searchResultView
	if direction == "ancestors" {
		cur := sym
		for cur.ParentSymbolID != "" {
			parent, ok := byID[cur.ParentSymbolID]
			if !ok {
				break
			}
			chain = append(chain, symbolView(parent, "signature"))
			cur = parent
		}
	} else {
		childrenOf := map[string][]*store.Symbol{}
		for _, candidate := range all {
			if candidate.ParentSymbolID != "" {
				childrenOf[candidate.ParentSymbolID] = append(childrenOf[candidate.ParentSymbolID], candidate)
			}
		}
		var walk func(id string)
		walk = func(id string) {
			for _, child := range childrenOf[id] {
				chain = append(chain, symbolView(child, "signature"))
				walk(child.SymbolID)
			}
		}
		walk(sym.SymbolID)
	}

	return okResult(struct {
		SymbolName string              `json:"symbol_name"`
		Direction  string              `json:"direction"`
		Chain      []searchResultView `json:"chain"`
	}{SymbolName: name, Direction: direction, Chain: chain}, qc.meta), nil
}

func (s *Server) handleFindRelatedSymbols(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	name := getStringArg(args, "symbol_name")
	if name == "" {
		return errorResult(cxerr.New(cxerr.CodeInvalidInput, "symbol_name is required"), qc.meta), nil
	}
	sym, err := resolveOneSymbol(qc.proj.store, qc.proj.id, qc.ref, name, getStringArg(args, "path"))
	if err != nil {
		return errorResult(err, qc.meta), nil
	}

	scope := getStringArg(args, "scope")
	if scope == "" {
		scope = "file"
	}
	limit := getIntArg(args, "limit", 20)

	all, err := qc.proj.store.AllSymbols(qc.proj.id, qc.ref)
	if err != nil {
		return errorResult(err, qc.meta), nil
	}

	var related []searchResultView
	for _, candidate := range all {
		if candidate.SymbolID == sym.SymbolID {
			continue
		}
		if !inScope(sym.Path, candidate.Path, scope) {
			continue
		}
		related = append(related, symbolView(candidate, "signature"))
		if len(related) >= limit {
			break
		}
	}

	return okResult(struct {
		SymbolName string              `json:"symbol_name"`
		Scope      string              `json:"scope"`
		Related    []searchResultView `json:"related"`
	}{SymbolName: name, Scope: scope, Related: related}, qc.meta), nil
}

// inScope decides whether candidatePath is related to anchorPath under
// scope: file requires identical paths, module requires the same immediate
// parent directory, package requires the same top-level path segment (the
// closest Go-native reading of the original's file-based FQN scheme, which
// has no separate module concept).
func inScope(anchorPath, candidatePath, scope string) bool {
	switch scope {
	case "file":
		return candidatePath == anchorPath
	case "module":
		return path.Dir(candidatePath) == path.Dir(anchorPath)
	case "package":
		return topSegment(candidatePath) == topSegment(anchorPath)
	default:
		return false
	}
}

func topSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if idx := strings.Index(p, "/"); idx >= 0 {
		return p[:idx]
	}
	return p
}

func (s *Server) handleCompareSymbolBetweenCommits(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	name := getStringArg(args, "symbol_name")
	baseRef := getStringArg(args, "base_ref")
	headRef := getStringArg(args, "head_ref")
	if name == "" || baseRef == "" || headRef == "" {
		return errorResult(cxerr.New(cxerr.CodeInvalidInput, "symbol_name, base_ref, and head_ref are required"), qc.meta), nil
	}
	filePath := getStringArg(args, "path")

	baseSym, errBase := resolveOneSymbol(qc.proj.store, qc.proj.id, baseRef, name, filePath)
	headSym, errHead := resolveOneSymbol(qc.proj.store, qc.proj.id, headRef, name, filePath)
	if errBase != nil && errHead != nil {
		return errorResult(cxerr.New(cxerr.CodeSymbolNotFound, "symbol not found in either ref"), qc.meta), nil
	}

	var baseContent, headContent string
	status := "unchanged"
	if baseSym != nil {
		baseContent = baseSym.Content
	}
	if headSym != nil {
		headContent = headSym.Content
	}
	switch {
	case errBase != nil:
		status = "added"
	case errHead != nil:
		status = "removed"
	case baseContent != headContent:
		status = "changed"
	}

	differ := dmp.New()
	diffs := differ.DiffMain(baseContent, headContent, false)
	patch := differ.DiffPrettyText(diffs)

	return okResult(struct {
		SymbolName string `json:"symbol_name"`
		Status     string `json:"status"`
		BaseRef    string `json:"base_ref"`
		HeadRef    string `json:"head_ref"`
		BaseContent string `json:"base_content,omitempty"`
		HeadContent string `json:"head_content,omitempty"`
		Diff        string `json:"diff"`
	}{
		SymbolName:  name,
		Status:      status,
		BaseRef:     baseRef,
		HeadRef:     headRef,
		BaseContent: baseContent,
		HeadContent: headContent,
		Diff:        patch,
	}, qc.meta), nil
}
