package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerSearchTools() {
	s.addTool(&mcp.Tool{
		Name:        "search_code",
		Description: "Search across symbols, snippets, and files with query intent classification.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string", "description": "Absolute path to target workspace. Default: current directory."},
				"query": {"type": "string", "description": "Search query (symbol name, path, error string, or natural language)"},
				"ref": {"type": "string", "description": "Branch/ref scope"},
				"language": {"type": "string", "description": "Filter by language"},
				"limit": {"type": "integer", "description": "Max results (default: 10)"},
				"detail_level": {"type": "string", "enum": ["location", "signature", "context"], "description": "Response verbosity (default: signature)"},
				"compact": {"type": "boolean", "description": "Keep identity/location/score fields, omit large context blocks"},
				"freshness_policy": {"type": "string", "enum": ["strict", "balanced", "best_effort"]},
				"ranking_explain_level": {"type": "string", "enum": ["off", "basic", "full"], "description": "Ranking explainability payload level (default: off)"},
				"confidence_threshold": {"type": "number", "minimum": 0.0, "maximum": 1.0}
			},
			"required": ["query"]
		}`),
	}, s.handleSearchCode)

	s.addTool(&mcp.Tool{
		Name:        "explain_ranking",
		Description: "Explain the per-component ranking score for one specific search result.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"query": {"type": "string"},
				"result_path": {"type": "string"},
				"result_line_start": {"type": "integer"},
				"ref": {"type": "string"},
				"language": {"type": "string"},
				"limit": {"type": "integer"}
			},
			"required": ["query", "result_path", "result_line_start"]
		}`),
	}, s.handleExplainRanking)

	s.addTool(&mcp.Tool{
		Name:        "suggest_followup_queries",
		Description: "Suggest next tool calls when prior results are low-confidence or empty.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"workspace": {"type": "string"},
				"previous_query": {"type": "string", "description": "The raw query string the caller previously ran"},
				"previous_results": {
					"type": "object",
					"description": "Result summary from the previous query (top_score, total_candidates, query_intent)"
				},
				"ref": {"type": "string"},
				"confidence_threshold": {"type": "number"}
			},
			"required": ["previous_query", "previous_results"]
		}`),
	}, s.handleSuggestFollowupQueries)
}

// searchResultView is the JSON-facing shape of one search_code hit, trimmed
// per detail_level/compact.
type searchResultView struct {
	ResultID      string  `json:"result_id"`
	ResultType    string  `json:"result_type"`
	Path          string  `json:"path"`
	LineStart     int     `json:"line_start"`
	LineEnd       int     `json:"line_end"`
	Kind          string  `json:"kind,omitempty"`
	Name          string  `json:"name,omitempty"`
	QualifiedName string  `json:"qualified_name,omitempty"`
	Language      string  `json:"language,omitempty"`
	Signature     string  `json:"signature,omitempty"`
	Snippet       string  `json:"snippet,omitempty"`
	Score         float64 `json:"score"`
}

func viewResult(r query.Result, detailLevel string) searchResultView {
	v := searchResultView{
		ResultID:   r.ResultID,
		ResultType: r.ResultType,
		Path:       r.Path,
		LineStart:  r.LineStart,
		LineEnd:    r.LineEnd,
		Kind:       r.Kind,
		Name:       r.Name,
		Score:      r.Score,
	}
	if detailLevel == "location" {
		return v
	}
	v.QualifiedName = r.QualifiedName
	v.Language = r.Language
	v.Signature = r.Signature
	if detailLevel == "context" {
		v.Snippet = r.Snippet
	}
	return v
}

func (s *Server) handleSearchCode(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	limit := getIntArg(args, "limit", 10)
	detailLevel := getStringArg(args, "detail_level")
	if detailLevel == "" {
		detailLevel = "signature"
	}
	explainLevel := getStringArg(args, "ranking_explain_level")
	confidenceThreshold := getFloatArg(args, "confidence_threshold", 0.5)

	resp, err := query.Search(ctx, qc.proj.store, qc.proj.dataDir, qc.proj.id, query.Request{
		Query:               queryStr,
		ExplicitRef:         getStringArg(args, "ref"),
		RepoRoot:            getStringArg(args, "workspace"),
		LiveSentinel:        "live",
		MaxResults:          limit,
		ConfidenceThreshold: confidenceThreshold,
		Semantic:            qc.proj.semantic,
	})
	if err != nil {
		return errorResult(err, qc.meta), nil
	}

	views := make([]searchResultView, len(resp.Results))
	for i, r := range resp.Results {
		views[i] = viewResult(r, detailLevel)
	}

	out := struct {
		Results    []searchResultView `json:"results"`
		Intent     string              `json:"query_intent"`
		Confidence any                 `json:"confidence"`
	}{Results: views, Intent: string(resp.Plan.Intent), Confidence: resp.Confidence}

	qc.meta.suppressed = resp.SuppressedTombstoned
	switch explainLevel {
	case "full":
		qc.meta.rankingReasons = resp.RankingReasons
	case "basic":
		qc.meta.rankingReasons = resp.BasicReasons
	}
	qc.meta.safetyLimit = len(resp.Results) >= limit
	return okResult(out, qc.meta), nil
}

func (s *Server) handleExplainRanking(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	queryStr := getStringArg(args, "query")
	resultPath := getStringArg(args, "result_path")
	resultLine := getIntArg(args, "result_line_start", -1)
	if queryStr == "" || resultPath == "" || resultLine < 0 {
		return errorResult(cxerr.New(cxerr.CodeInvalidInput, "query, result_path, and result_line_start are required"), qc.meta), nil
	}
	limit := getIntArg(args, "limit", 20)
	if limit < 20 {
		limit = 20
	}

	resp, err := query.Search(ctx, qc.proj.store, qc.proj.dataDir, qc.proj.id, query.Request{
		Query:        queryStr,
		ExplicitRef:  getStringArg(args, "ref"),
		RepoRoot:     getStringArg(args, "workspace"),
		LiveSentinel: "live",
		MaxResults:   limit,
		Semantic:     qc.proj.semantic,
	})
	if err != nil {
		return errorResult(err, qc.meta), nil
	}
	reasons := query.Rerank(resp.Results, queryStr)

	idx := -1
	for i, r := range resp.Results {
		if r.Path == resultPath && r.LineStart == resultLine {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errorResult(cxerr.New(cxerr.CodeResultNotFound, fmt.Sprintf("no result at %s:%d for query %q", resultPath, resultLine, queryStr)), qc.meta), nil
	}

	reason := reasons[idx]
	result := resp.Results[idx]
	out := struct {
		Query   string `json:"query"`
		Result  searchResultView `json:"result"`
		Scoring struct {
			BM25            float64 `json:"bm25"`
			ExactMatch      float64 `json:"exact_match"`
			QualifiedName   float64 `json:"qualified_name"`
			PathAffinity    float64 `json:"path_affinity"`
			DefinitionBoost float64 `json:"definition_boost"`
			KindMatch       float64 `json:"kind_match"`
			Total           float64 `json:"total"`
		} `json:"scoring"`
		ScoringDetails struct {
			BM25Source            string `json:"bm25_source"`
			ExactMatchReason      string `json:"exact_match_reason"`
			QualifiedNameReason   string `json:"qualified_name_reason"`
			PathAffinityReason    string `json:"path_affinity_reason"`
			DefinitionBoostReason string `json:"definition_boost_reason"`
			KindMatchReason       string `json:"kind_match_reason"`
		} `json:"scoring_details"`
	}{Query: queryStr, Result: viewResult(result, "context")}

	out.Scoring.BM25 = reason.BM25Score
	out.Scoring.ExactMatch = reason.ExactMatchBoost
	out.Scoring.QualifiedName = reason.QualifiedNameBoost
	out.Scoring.PathAffinity = reason.PathAffinity
	out.Scoring.DefinitionBoost = reason.DefinitionBoost
	out.Scoring.KindMatch = reason.KindMatch
	out.Scoring.Total = reason.FinalScore

	out.ScoringDetails.BM25Source = fmt.Sprintf("bm25 index score=%.3f", reason.BM25Score)
	out.ScoringDetails.ExactMatchReason = componentReason(reason.ExactMatchBoost, "exact symbol match boost applied", "no exact symbol match boost")
	out.ScoringDetails.QualifiedNameReason = componentReason(reason.QualifiedNameBoost, "qualified name match boost applied", "no qualified name match boost")
	out.ScoringDetails.PathAffinityReason = componentReason(reason.PathAffinity, "path affinity boost applied", "no path affinity boost")
	out.ScoringDetails.DefinitionBoostReason = componentReason(reason.DefinitionBoost, "definition preference boost applied", "no definition preference boost")
	out.ScoringDetails.KindMatchReason = componentReason(reason.KindMatch, "kind-specific boost applied", "no kind-specific boost")

	return okResult(out, qc.meta), nil
}

func componentReason(value float64, positive, none string) string {
	if value > 0 {
		return fmt.Sprintf("%s (contribution=%.3f)", positive, value)
	}
	return none
}

func (s *Server) handleSuggestFollowupQueries(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errorResult(err, envelopeInputs{}), nil
	}
	qc, errRes := resolveContext(s.registry, args)
	if errRes != nil {
		return errRes, nil
	}

	previousQuery := getStringArg(args, "previous_query")
	prevResults, _ := args["previous_results"].(map[string]any)
	threshold := getFloatArg(args, "confidence_threshold", 0.5)

	topScore, _ := prevResults["top_score"].(float64)
	totalCandidates, _ := prevResults["total_candidates"].(float64)

	suggestions := []string{}
	if totalCandidates == 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("Try locate_symbol with a shorter fragment of %q", previousQuery),
			"Try search_code with a broader natural-language phrasing",
		)
	} else if topScore < threshold {
		suggestions = append(suggestions,
			fmt.Sprintf("Try locate_symbol with %q", query.Classify(previousQuery)),
			"Try get_code_context with strategy=breadth for wider coverage",
			"Try narrowing with a language or path filter",
		)
	} else {
		suggestions = append(suggestions, "Try get_call_graph or get_symbol_hierarchy to explore from the top result")
	}

	out := struct {
		Suggestions []string `json:"suggestions"`
		LowConfidence bool   `json:"low_confidence"`
	}{Suggestions: suggestions, LowConfidence: topScore < threshold}

	return okResult(out, qc.meta), nil
}
