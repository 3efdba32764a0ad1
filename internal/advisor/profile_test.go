package advisor

import "testing"

func TestRecommendProfilePrefersFastLocalForLargeRepoOrTightBudget(t *testing.T) {
	in := Input{
		FileCount:       75_000,
		LanguageCounts:  map[string]int{"rust": 10_000, "typescript": 8_000},
		TargetLatencyMS: 250,
	}
	rec := RecommendProfile(in)
	if rec.Profile != "fast_local" {
		t.Fatalf("profile = %q, want fast_local", rec.Profile)
	}
	if rec.RepoSizeBucket != ">50k" {
		t.Fatalf("repo size bucket = %q, want >50k", rec.RepoSizeBucket)
	}
}

func TestRecommendProfilePrefersCodeQualityForBalancedWorkload(t *testing.T) {
	in := Input{
		FileCount: 22_000,
		LanguageCounts: map[string]int{
			"rust": 4_000, "typescript": 3_000, "markdown": 1_000,
		},
		TargetLatencyMS: 400,
	}
	rec := RecommendProfile(in)
	if rec.Profile != "code_quality" {
		t.Fatalf("profile = %q, want code_quality", rec.Profile)
	}
	if rec.RepoSizeBucket != "10k-50k" {
		t.Fatalf("repo size bucket = %q, want 10k-50k", rec.RepoSizeBucket)
	}
}

func TestRecommendProfileIsDeterministicForSameSnapshot(t *testing.T) {
	in := Input{
		FileCount:       5_000,
		LanguageCounts:  map[string]int{"go": 3_000, "python": 1_000},
		TargetLatencyMS: 700,
	}
	first := RecommendProfile(in)
	for i := 0; i < 2; i++ {
		again := RecommendProfile(in)
		if again.Profile != first.Profile || again.RepoSizeBucket != first.RepoSizeBucket {
			t.Fatalf("recommendation changed across calls: %+v vs %+v", first, again)
		}
		if len(again.ReasonCodes) != len(first.ReasonCodes) {
			t.Fatalf("reason codes changed length: %+v vs %+v", first.ReasonCodes, again.ReasonCodes)
		}
		for j, code := range first.ReasonCodes {
			if again.ReasonCodes[j] != code {
				t.Fatalf("reason code %d changed: %q vs %q", j, code, again.ReasonCodes[j])
			}
		}
	}
}

func TestRecommendProfileHighQualityForSmallRepoHighBudget(t *testing.T) {
	in := Input{
		FileCount:       2_000,
		LanguageCounts:  map[string]int{"go": 1_500, "markdown": 500},
		TargetLatencyMS: 700,
	}
	rec := RecommendProfile(in)
	if rec.Profile != "high_quality" {
		t.Fatalf("profile = %q, want high_quality", rec.Profile)
	}
	if rec.RepoSizeBucket != "<10k" {
		t.Fatalf("repo size bucket = %q, want <10k", rec.RepoSizeBucket)
	}
}
