package mcpserver

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/query"
	"github.com/cruxe/cruxe/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerSymbolTools() {
	s.addTool(&mcp.Tool{
		Name:        "locate_symbol",
		Description: "Find symbols by exact or partial name, optionally filtered by kind/language.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"name": {"type": "string"},
				"kind": {"type": "string"},
				"language": {"type": "string"},
				"ref": {"type": "string"},
				"limit": {"type": "integer"},
				"detail_level": {"type": "string", "enum": ["location", "signature", "context"]}
			},
			"required": ["name"]
		}`),
	}, s.handleLocateSymbol)

	s.addTool(&mcp.Tool{
		Name:        "get_file_outline",
		Description: "Return the top-level (or full) symbol outline of one file.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"path": {"type": "string"},
				"ref": {"type": "string"},
				"depth": {"type": "string", "enum": ["top", "all"]}
			},
			"required": ["path"]
		}`),
	}, s.handleGetFileOutline)

	s.addTool(&mcp.Tool{
		Name:        "get_code_context",
		Description: "Retrieve code context fitted to a token budget using breadth/depth strategies.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"query": {"type": "string"},
				"max_tokens": {"type": "integer", "default": 4000},
				"strategy": {"type": "string", "enum": ["breadth", "depth"], "default": "breadth"},
				"ref": {"type": "string"},
				"language": {"type": "string"}
			},
			"required": ["query"]
		}`),
	}, s.handleGetCodeContext)
}

func (s *Server) handleLocateSymbol(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	name := getStringArg(args, "name")
	if name == "" {
		return errorResult(cxerr.New(cxerr.CodeInvalidInput, "name is required"), qc.meta), nil
	}
	kind := getStringArg(args, "kind")
	language := getStringArg(args, "language")
	limit := getIntArg(args, "limit", 10)
	detailLevel := getStringArg(args, "detail_level")
	if detailLevel == "" {
		detailLevel = "signature"
	}

	symbols, err := qc.proj.store.FindSymbolsByName(qc.proj.id, qc.ref, name, kind)
	if err != nil {
		return errorResult(err, qc.meta), nil
	}
	if language != "" {
		filtered := symbols[:0]
		for _, sym := range symbols {
			if strings.EqualFold(sym.Language, language) {
				filtered = append(filtered, sym)
			}
		}
		symbols = filtered
	}
	if len(symbols) == 0 {
		return errorResult(cxerr.New(cxerr.CodeSymbolNotFound, "no symbol named "+name), qc.meta), nil
	}
	if limit > 0 && len(symbols) > limit {
		symbols = symbols[:limit]
	}

	views := make([]searchResultView, len(symbols))
	for i, sym := range symbols {
		views[i] = symbolView(sym, detailLevel)
	}
	qc.meta.safetyLimit = limit > 0 && len(views) >= limit
	return okResult(struct {
		Results []searchResultView `json:"results"`
	}{Results: views}, qc.meta), nil
}

func symbolView(sym *store.Symbol, detailLevel string) searchResultView {
	v := searchResultView{
		ResultID:   sym.SymbolID,
		ResultType: "symbol",
		Path:       sym.Path,
		LineStart:  sym.LineStart,
		LineEnd:    sym.LineEnd,
		Kind:       sym.Kind,
		Name:       sym.Name,
	}
	if detailLevel == "location" {
		return v
	}
	v.QualifiedName = sym.QualifiedName
	v.Language = sym.Language
	v.Signature = sym.Signature
	if detailLevel == "context" {
		v.Snippet = sym.Content
	}
	return v
}

func (s *Server) handleGetFileOutline(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	path := getStringArg(args, "path")
	if path == "" {
		return errorResult(cxerr.New(cxerr.CodeInvalidInput, "path is required"), qc.meta), nil
	}
	depth := getStringArg(args, "depth")
	if depth == "" {
		depth = "top"
	}

	symbols, err := qc.proj.store.FindSymbolsByPath(qc.proj.id, qc.ref, path)
	if err != nil {
		return errorResult(err, qc.meta), nil
	}
	if len(symbols) == 0 {
		return errorResult(cxerr.New(cxerr.CodeFileNotFound, "no symbols indexed for "+path), qc.meta), nil
	}
	if depth == "top" {
		filtered := symbols[:0]
		for _, sym := range symbols {
			if sym.ParentSymbolID == "" {
				filtered = append(filtered, sym)
			}
		}
		symbols = filtered
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].LineStart < symbols[j].LineStart })

	views := make([]searchResultView, len(symbols))
	for i, sym := range symbols {
		views[i] = symbolView(sym, "signature")
	}
	return okResult(struct {
		Path    string              `json:"path"`
		Outline []searchResultView `json:"outline"`
	}{Path: path, Outline: views}, qc.meta), nil
}

// estimateTokens approximates token count as ceil(word_count * 1.3), the
// same whitespace-split heuristic codecompass-core's estimate_tokens uses
// for get_code_context's token-budget packing.
func estimateTokens(s string) int {
	wordCount := len(strings.Fields(s))
	if wordCount == 0 {
		return 0
	}
	return int(math.Ceil(float64(wordCount) * 1.3))
}

func (s *Server) handleGetCodeContext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	queryStr := getStringArg(args, "query")
	if queryStr == "" {
		return errorResult(cxerr.New(cxerr.CodeInvalidInput, "query is required"), qc.meta), nil
	}
	maxTokens := getIntArg(args, "max_tokens", 4000)
	strategy := getStringArg(args, "strategy")
	if strategy == "" {
		strategy = "breadth"
	}

	resp, err := query.Search(ctx, qc.proj.store, qc.proj.dataDir, qc.proj.id, query.Request{
		Query:        queryStr,
		ExplicitRef:  getStringArg(args, "ref"),
		RepoRoot:     getStringArg(args, "workspace"),
		LiveSentinel: "live",
		MaxResults:   40,
		Semantic:     qc.proj.semantic,
	})
	if err != nil {
		return errorResult(err, qc.meta), nil
	}

	var packed []searchResultView
	var budget int
	switch strategy {
	case "depth":
		packed, budget = packDepth(qc, resp.Results, maxTokens)
	default:
		packed, budget = packBreadth(resp.Results, maxTokens)
	}

	qc.meta.completeness = CompletenessComplete
	if budget >= maxTokens && len(packed) < len(resp.Results) {
		qc.meta.completeness = CompletenessTruncated
	}
	return okResult(struct {
		Strategy    string              `json:"strategy"`
		TokenBudget int                 `json:"max_tokens"`
		TokensUsed  int                 `json:"tokens_used"`
		Context     []searchResultView `json:"context"`
	}{Strategy: strategy, TokenBudget: maxTokens, TokensUsed: budget, Context: packed}, qc.meta), nil
}

// packBreadth takes one result per distinct file, in rank order, until the
// token budget is exhausted: many shallow symbols across files.
func packBreadth(results []query.Result, maxTokens int) ([]searchResultView, int) {
	seenPaths := map[string]bool{}
	var packed []searchResultView
	budget := 0
	for _, r := range results {
		if seenPaths[r.Path] {
			continue
		}
		v := viewResult(r, "context")
		cost := estimateTokens(v.Snippet) + estimateTokens(v.Signature)
		if budget+cost > maxTokens && len(packed) > 0 {
			break
		}
		seenPaths[r.Path] = true
		packed = append(packed, v)
		budget += cost
	}
	return packed, budget
}

// packDepth takes the single top result plus its direct call-graph
// neighbors (callers and callees), packing until the budget is exhausted:
// one symbol and its immediate neighborhood.
func packDepth(qc *toolContext, results []query.Result, maxTokens int) ([]searchResultView, int) {
	if len(results) == 0 {
		return nil, 0
	}
	top := results[0]
	v := viewResult(top, "context")
	budget := estimateTokens(v.Snippet) + estimateTokens(v.Signature)
	packed := []searchResultView{v}

	if top.SymbolID == "" {
		return packed, budget
	}

	from, _ := qc.proj.store.FindEdgesFrom(qc.proj.id, qc.ref, top.SymbolID, nil)
	to, _ := qc.proj.store.FindEdgesTo(qc.proj.id, qc.ref, top.SymbolID, nil)

	neighborIDs := map[string]bool{}
	for _, e := range from {
		if e.ToSymbolID != "" {
			neighborIDs[e.ToSymbolID] = true
		}
	}
	for _, e := range to {
		neighborIDs[e.FromSymbolID] = true
	}

	for id := range neighborIDs {
		sym, err := symbolByID(qc, id)
		if err != nil || sym == nil {
			continue
		}
		nv := symbolView(sym, "context")
		cost := estimateTokens(nv.Snippet) + estimateTokens(nv.Signature)
		if budget+cost > maxTokens {
			break
		}
		packed = append(packed, nv)
		budget += cost
	}
	return packed, budget
}

func symbolByID(qc *toolContext, symbolID string) (*store.Symbol, error) {
	all, err := qc.proj.store.AllSymbols(qc.proj.id, qc.ref)
	if err != nil {
		return nil, err
	}
	for _, sym := range all {
		if sym.SymbolID == symbolID {
			return sym, nil
		}
	}
	return nil, nil
}
