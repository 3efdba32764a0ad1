package query

import (
	"sort"
	"strings"
	"unicode"
)

// kindWeights is the fixed per-symbol-kind base weight used in reranking.
var kindWeights = map[string]float64{
	"class": 2.0, "interface": 2.0, "trait": 2.0,
	"struct": 1.8, "enum": 1.8,
	"type_alias": 1.5, "function": 1.5, "method": 1.5,
	"constant": 1.0,
	"module":   0.8,
	"variable": 0.5,
}

func kindWeight(kind string) float64 {
	return kindWeights[strings.ToLower(strings.TrimSpace(kind))]
}

var typeKinds = map[string]bool{
	"class": true, "struct": true, "enum": true, "trait": true, "interface": true, "type_alias": true,
}
var callableKinds = map[string]bool{"function": true, "method": true}

// queryIntentBoost rewards a query whose casing hints at what it's looking
// for: CapitalCase queries against type-like kinds, snake_case/lowercase
// queries against callable kinds.
func queryIntentBoost(query, kind string) float64 {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0
	}
	first := rune(query[0])
	startsUpper := unicode.IsUpper(first)
	startsLower := unicode.IsLower(first)
	hasUnderscore := strings.Contains(query, "_")
	kindLower := strings.ToLower(strings.TrimSpace(kind))

	if startsUpper && !hasUnderscore && typeKinds[kindLower] {
		return 1.0
	}
	if (startsLower || hasUnderscore) && callableKinds[kindLower] {
		return 0.5
	}
	return 0
}

var testFilePatterns = []string{"_test.", ".test.", ".spec.", "/test/", "/tests/", "test_"}

// testFilePenalty docks results living in files that look like tests,
// since a caller searching for production logic rarely wants its tests.
func testFilePenalty(path string) float64 {
	lower := strings.ToLower(path)
	for _, pat := range testFilePatterns {
		if strings.Contains(lower, pat) {
			return -0.5
		}
	}
	return 0
}

// RankingReasons captures every boost component contributing to one
// result's final score, for the "full" ranking_explain_level payload.
type RankingReasons struct {
	ResultIndex       int
	ExactMatchBoost   float64
	QualifiedNameBoost float64
	DefinitionBoost   float64
	PathAffinity      float64
	KindMatch         float64
	TestFilePenalty   float64
	BM25Score         float64
	SemanticSimilarity float64
	FinalScore        float64
}

// BasicRankingReasons is the compact explain payload returned when
// ranking_explain_level is "basic":
// semantic_similarity is the semantic provider's cosine score when the
// result carried one (Hybrid or Semantic provenance), falling back to
// the qualified-name lexical boost for a purely lexical result.
type BasicRankingReasons struct {
	ResultIndex         int
	ExactMatch          float64
	PathBoost           float64
	DefinitionBoost     float64
	SemanticSimilarity  float64
	FinalScore          float64
}

// Rerank applies the deterministic boost formula to every result in
// place, then sorts descending by final score with ascending result id as
// the tiebreaker, and returns the per-result ranking reasons in the final
// sorted order.
func Rerank(results []Result, query string) []RankingReasons {
	queryLower := strings.ToLower(query)
	reasons := make([]RankingReasons, len(results))

	for i := range results {
		r := &results[i]
		bm25 := r.Score

		var exactMatch float64
		if r.Name != "" && strings.ToLower(r.Name) == queryLower {
			exactMatch = 5.0
		}

		var qualifiedNameBoost float64
		if r.QualifiedName != "" && strings.Contains(strings.ToLower(r.QualifiedName), queryLower) {
			qualifiedNameBoost = 2.0
		}

		var definitionBoost float64
		if r.ResultType == "symbol" {
			definitionBoost = 1.0
		}

		var pathAffinity float64
		if strings.Contains(strings.ToLower(r.Path), queryLower) {
			pathAffinity = 1.0
		}

		kindMatch := kindWeight(r.Kind) + queryIntentBoost(query, r.Kind)
		penalty := testFilePenalty(r.Path)

		final := bm25 + exactMatch + qualifiedNameBoost + definitionBoost + pathAffinity + kindMatch + penalty
		r.Score = final

		semanticSimilarity := qualifiedNameBoost
		if r.Provenance == ProvenanceHybrid || r.Provenance == ProvenanceSemantic {
			semanticSimilarity = r.SemanticScore
		}

		reasons[i] = RankingReasons{
			ExactMatchBoost:    exactMatch,
			QualifiedNameBoost: qualifiedNameBoost,
			DefinitionBoost:    definitionBoost,
			PathAffinity:       pathAffinity,
			KindMatch:          kindMatch,
			TestFilePenalty:    penalty,
			BM25Score:          bm25,
			SemanticSimilarity: semanticSimilarity,
			FinalScore:         final,
		}
	}

	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := results[order[i]], results[order[j]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ResultID < b.ResultID
	})

	sortedResults := make([]Result, len(results))
	sortedReasons := make([]RankingReasons, len(results))
	for newIdx, origIdx := range order {
		sortedResults[newIdx] = results[origIdx]
		r := reasons[origIdx]
		r.ResultIndex = newIdx
		sortedReasons[newIdx] = r
	}
	copy(results, sortedResults)

	return sortedReasons
}

// ToBasicRankingReasons compacts full ranking reasons into the "basic"
// explain payload.
func ToBasicRankingReasons(reasons []RankingReasons) []BasicRankingReasons {
	basic := make([]BasicRankingReasons, len(reasons))
	for i, r := range reasons {
		basic[i] = BasicRankingReasons{
			ResultIndex:        r.ResultIndex,
			ExactMatch:         r.ExactMatchBoost,
			PathBoost:          r.PathAffinity,
			DefinitionBoost:    r.DefinitionBoost,
			SemanticSimilarity: r.SemanticSimilarity,
			FinalScore:         r.FinalScore,
		}
	}
	return basic
}
