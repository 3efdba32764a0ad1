package query

import "testing"

func TestBuildPlanSymbolIntentWeights(t *testing.T) {
	plan, err := BuildPlan("IndexerPipeline", "", "", "live")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.Intent != IntentSymbol {
		t.Fatalf("intent = %q, want symbol", plan.Intent)
	}
	if !plan.Weights.SearchSymbols || !plan.Weights.SearchSnippets || plan.Weights.SearchFiles {
		t.Fatalf("unexpected weights for symbol intent: %+v", plan.Weights)
	}
	if plan.Weights.SymbolWeight != 3 || plan.Weights.SnippetWeight != 1 || plan.Weights.FileWeight != 0 {
		t.Fatalf("unexpected weight values: %+v", plan.Weights)
	}
	if plan.Ref != "live" {
		t.Fatalf("ref = %q, want live (no git repo, no explicit ref)", plan.Ref)
	}
}

func TestBuildPlanExplicitRefOverridesVCSDetection(t *testing.T) {
	plan, err := BuildPlan("foo/bar.go", "feat/x", "", "live")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.Ref != "feat/x" {
		t.Fatalf("ref = %q, want feat/x", plan.Ref)
	}
	if plan.Intent != IntentPath {
		t.Fatalf("intent = %q, want path", plan.Intent)
	}
	if !plan.Weights.SearchFiles || plan.Weights.SearchSymbols {
		t.Fatalf("unexpected weights for path intent: %+v", plan.Weights)
	}
}

func TestBuildPlanErrorIntentWeights(t *testing.T) {
	plan, err := BuildPlan("panic: connection refused", "", "", "live")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.Intent != IntentError {
		t.Fatalf("intent = %q, want error", plan.Intent)
	}
	if plan.Weights.SymbolWeight != 0 || plan.Weights.SnippetWeight != 3 || plan.Weights.FileWeight != 1 {
		t.Fatalf("unexpected weight values: %+v", plan.Weights)
	}
}

func TestBuildPlanNaturalLanguageWeights(t *testing.T) {
	plan, err := BuildPlan("where is the retry logic defined", "", "", "live")
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.Intent != IntentNaturalLanguage {
		t.Fatalf("intent = %q, want natural_language", plan.Intent)
	}
	if plan.Weights.SymbolWeight != 2 || plan.Weights.SnippetWeight != 2 || plan.Weights.FileWeight != 1 {
		t.Fatalf("unexpected weight values: %+v", plan.Weights)
	}
}
