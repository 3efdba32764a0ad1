package query

import (
	"context"
	"fmt"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/semantic"
	"github.com/cruxe/cruxe/internal/textindex"
)

// SemanticSearcher is the narrow slice of internal/semantic.Provider the
// query engine needs: a vector-store nearest-neighbor lookup scoped to
// one project's ref. Optional; a nil Request.Semantic skips the
// semantic channel entirely and every result stays lexical.
type SemanticSearcher interface {
	Search(ctx context.Context, projectID, ref, queryText string, limit int) ([]semantic.Hit, error)
}

// semanticWeight scales cosine similarity hits onto the same rough
// magnitude as a weighted BM25 snippet hit before reranking boosts are
// added, so neither channel dominates purely from differing scales.
const semanticWeight = 2.0

// Request is one search_code-style query against a project's published
// overlay for a ref.
type Request struct {
	Query           string
	ExplicitRef     string
	RepoRoot        string
	LiveSentinel    string
	MaxResults      int
	ConfidenceThreshold float64
	Semantic        SemanticSearcher
}

// Response bundles the reranked, tombstone-filtered results with the
// plan that produced them and the confidence verdict over the top hit.
type Response struct {
	Plan             *Plan
	Results          []Result
	RankingReasons   []RankingReasons
	BasicReasons     []BasicRankingReasons
	Confidence       ConfidenceGuidance
	SuppressedTombstoned int
}

// defaultPerIndexLimit bounds how many raw BM25 candidates are pulled from
// each per-kind index before weighting and reranking; large enough that
// weighting and the subsequent top-N truncation, not this limit, decides
// what callers see.
const defaultPerIndexLimit = 50

// Search runs the full query pipeline against one project/ref's published
// overlay: classify intent, resolve ref and index weights, search the
// enabled per-kind indices, filter tombstoned paths, rerank, and score
// confidence.
func Search(ctx context.Context, store tombstoneLookup, dataDir, projectID string, req Request) (*Response, error) {
	plan, err := BuildPlan(req.Query, req.ExplicitRef, req.RepoRoot, req.LiveSentinel)
	if err != nil {
		return nil, fmt.Errorf("build query plan: %w", err)
	}

	overlayDir := ids.OverlayDirForRef(dataDir, plan.Ref)
	set, err := textindex.OpenExistingAt(overlayDir)
	if err != nil {
		return nil, cxerr.New(cxerr.CodeRefNotIndexed, fmt.Sprintf("no published overlay for project %s ref %s", projectID, plan.Ref))
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	var results []Result
	w := plan.Weights
	if w.SearchSymbols {
		results = append(results, projectTextResults(set.Symbols.Search(req.Query, defaultPerIndexLimit), "symbol", w.SymbolWeight)...)
	}
	if w.SearchSnippets {
		results = append(results, projectTextResults(set.Snippets.Search(req.Query, defaultPerIndexLimit), "snippet", w.SnippetWeight)...)
	}
	if w.SearchFiles {
		results = append(results, projectTextResults(set.Files.Search(req.Query, defaultPerIndexLimit), "file", w.FileWeight)...)
	}

	if req.Semantic != nil && (w.SearchSymbols || w.SearchSnippets) {
		// Best-effort: a struggling or unconfigured vector store must never
		// fail a search that the lexical channel can still answer.
		if hits, semErr := req.Semantic.Search(ctx, projectID, plan.Ref, req.Query, defaultPerIndexLimit); semErr == nil {
			results = mergeSemanticHits(results, hits)
		}
	}

	filter := NewTombstoneFilter(store)
	filtered, err := filter.Filter(results, projectID, plan.Ref)
	if err != nil {
		return nil, fmt.Errorf("filter tombstones: %w", err)
	}
	suppressed := len(results) - len(filtered)

	reasons := Rerank(filtered, req.Query)
	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
		reasons = reasons[:maxResults]
	}

	confidence := EvaluateConfidence(filtered, req.Query, plan.Intent, req.ConfidenceThreshold)

	return &Response{
		Plan:                 plan,
		Results:               filtered,
		RankingReasons:        reasons,
		BasicReasons:          ToBasicRankingReasons(reasons),
		Confidence:            confidence,
		SuppressedTombstoned:  suppressed,
	}, nil
}

// projectTextResults converts raw BM25 hits from one kind-specific index
// into common Result values, applying that index's weight to the score
// before any reranking boosts are added.
func projectTextResults(hits []textindex.Result, resultType string, weight float64) []Result {
	out := make([]Result, 0, len(hits))
	for _, hit := range hits {
		f := hit.Doc.Fields
		out = append(out, Result{
			ResultID:       hit.Doc.ID,
			ResultType:     resultType,
			SymbolID:       f[textindex.FieldSymbolID],
			SymbolStableID: f[textindex.FieldSymbolStableID],
			Path:           f[textindex.FieldPath],
			LineStart:      hit.Doc.IntFields[textindex.IntFieldLineStart],
			LineEnd:        hit.Doc.IntFields[textindex.IntFieldLineEnd],
			Kind:           f[textindex.FieldKind],
			Name:           f[textindex.FieldName],
			QualifiedName:  f[textindex.FieldQualifiedName],
			Language:       f[textindex.FieldLanguage],
			Signature:      f[textindex.FieldSignature],
			Visibility:     f[textindex.FieldVisibility],
			Snippet:        f[textindex.FieldContent],
			Score:          hit.Score * weight,
			Provenance:     ProvenanceLexical,
		})
	}
	return out
}

// mergeSemanticHits folds vector-search hits into the lexical result set:
// a hit whose ResultID already appears from a lexical channel upgrades
// that result to Hybrid provenance and adds a weighted semantic score on
// top of its lexical one; a hit with no lexical counterpart is appended
// as a Semantic-only result.
func mergeSemanticHits(lexical []Result, hits []semantic.Hit) []Result {
	byID := make(map[string]int, len(lexical))
	for i, r := range lexical {
		byID[r.ResultID] = i
	}

	for _, hit := range hits {
		if idx, ok := byID[hit.ResultID]; ok {
			r := &lexical[idx]
			r.Provenance = ProvenanceHybrid
			r.SemanticScore = hit.Score
			r.Score += hit.Score * semanticWeight
			continue
		}
		lexical = append(lexical, Result{
			ResultID:      hit.ResultID,
			ResultType:    "symbol",
			SymbolID:      hit.SymbolID,
			Path:          hit.Path,
			LineStart:     hit.LineStart,
			LineEnd:       hit.LineEnd,
			Score:         hit.Score * semanticWeight,
			Provenance:    ProvenanceSemantic,
			SemanticScore: hit.Score,
		})
	}
	return lexical
}
