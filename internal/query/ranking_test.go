package query

import "testing"

func TestKindWeightPrefersTypeSymbolsOverValues(t *testing.T) {
	if !(kindWeight("class") > kindWeight("function")) {
		t.Fatalf("class weight %v should exceed function weight %v", kindWeight("class"), kindWeight("function"))
	}
	if !(kindWeight("function") > kindWeight("variable")) {
		t.Fatalf("function weight %v should exceed variable weight %v", kindWeight("function"), kindWeight("variable"))
	}
}

func TestQueryIntentBoostDetectsTypeAndCallableHints(t *testing.T) {
	if got := queryIntentBoost("AuthService", "class"); got != 1.0 {
		t.Errorf("AuthService/class = %v, want 1.0", got)
	}
	if got := queryIntentBoost("validate_token", "function"); got != 0.5 {
		t.Errorf("validate_token/function = %v, want 0.5", got)
	}
	if got := queryIntentBoost("auth", "class"); got != 0.0 {
		t.Errorf("auth/class = %v, want 0.0", got)
	}
}

func TestTestFilePenaltyTriggersOncePerPath(t *testing.T) {
	if got := testFilePenalty("src/auth/user_test.go"); got != -0.5 {
		t.Errorf("user_test.go = %v, want -0.5", got)
	}
	if got := testFilePenalty("src/auth/user.spec.ts"); got != -0.5 {
		t.Errorf("user.spec.ts = %v, want -0.5", got)
	}
	if got := testFilePenalty("src/auth/user.go"); got != 0.0 {
		t.Errorf("user.go = %v, want 0.0", got)
	}
}

func TestRerankExactMatchWinsAndSortsByResultID(t *testing.T) {
	results := []Result{
		{ResultID: "b", ResultType: "symbol", Name: "Helper", Score: 1.0},
		{ResultID: "a", ResultType: "symbol", Name: "helper", Score: 1.0},
	}
	reasons := Rerank(results, "helper")
	if results[0].ResultID != "a" {
		t.Fatalf("expected exact-case-insensitive match 'a' to rank first, got %q", results[0].ResultID)
	}
	if reasons[0].ExactMatchBoost != 5.0 {
		t.Fatalf("exact match boost = %v, want 5.0", reasons[0].ExactMatchBoost)
	}
}

func TestRerankAppliesKindAndTestPenalty(t *testing.T) {
	results := []Result{
		{ResultID: "x", ResultType: "symbol", Kind: "class", Name: "AuthService", Path: "src/auth.go"},
		{ResultID: "y", ResultType: "symbol", Kind: "function", Name: "validate", Path: "src/auth_test.go"},
	}
	Rerank(results, "Auth")
	if results[0].ResultID != "x" {
		t.Fatalf("expected class result to outrank test-file function result, got order %v", results)
	}
}
