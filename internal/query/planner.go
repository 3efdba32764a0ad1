package query

import "github.com/cruxe/cruxe/internal/vcs"

// Weights controls how much each per-kind index contributes to a
// blended search, and whether it is queried at all.
type Weights struct {
	SearchSymbols  bool
	SearchSnippets bool
	SearchFiles    bool
	SymbolWeight   float64
	SnippetWeight  float64
	FileWeight     float64
}

// weightTable is the fixed intent -> index-weight mapping from the query
// planner's specification table.
var weightTable = map[Intent]Weights{
	IntentSymbol: {
		SearchSymbols: true, SearchSnippets: true, SearchFiles: false,
		SymbolWeight: 3, SnippetWeight: 1, FileWeight: 0,
	},
	IntentPath: {
		SearchSymbols: false, SearchSnippets: false, SearchFiles: true,
		SymbolWeight: 0, SnippetWeight: 0, FileWeight: 3,
	},
	IntentError: {
		SearchSymbols: false, SearchSnippets: true, SearchFiles: true,
		SymbolWeight: 0, SnippetWeight: 3, FileWeight: 1,
	},
	IntentNaturalLanguage: {
		SearchSymbols: true, SearchSnippets: true, SearchFiles: true,
		SymbolWeight: 2, SnippetWeight: 2, FileWeight: 1,
	},
}

// WeightsFor returns the fixed per-intent index weights.
func WeightsFor(intent Intent) Weights {
	return weightTable[intent]
}

// Plan is the resolved query plan: which ref to search, and which
// indices to query with what weight.
type Plan struct {
	Intent  Intent
	Ref     string
	Weights Weights
}

// BuildPlan classifies query, resolves the effective ref (explicit param
// over VCS HEAD detection over the "live" sentinel), and selects weights.
// repoRoot and liveSentinel are passed through to vcs.ResolveRef;
// repoRoot may be empty for a non-VCS project, in which case ResolveRef
// falls straight through to liveSentinel.
func BuildPlan(query, explicitRef, repoRoot, liveSentinel string) (*Plan, error) {
	intent := Classify(query)
	ref, err := vcs.ResolveRef(repoRoot, explicitRef, liveSentinel)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Intent:  intent,
		Ref:     ref,
		Weights: WeightsFor(intent),
	}, nil
}
