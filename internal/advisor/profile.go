// Package advisor recommends a semantic embedding profile for a project
// from deterministic thresholds over repo size, per-language file
// counts, and the caller's target query latency.
package advisor

import (
	"fmt"

	"github.com/cruxe/cruxe/internal/lang"
)

// Input is the repo snapshot a recommendation is computed from.
type Input struct {
	FileCount       int
	LanguageCounts  map[string]int
	TargetLatencyMS int
}

// Recommendation is the advisor's output: a profile name, a repo-size
// bucket label, and the ordered reason codes that justified it.
type Recommendation struct {
	Profile         string
	RepoSizeBucket  string
	ReasonCodes     []string
}

// RecommendProfile chooses among {fast_local, code_quality, high_quality}
// per spec.md §4.16's deterministic thresholds: large repos or a tight
// latency budget always prefer fast_local; small repos with a generous
// budget and a high code-language ratio prefer high_quality; everything
// else falls to code_quality or the fast_local fallback.
func RecommendProfile(in Input) Recommendation {
	repoSizeBucket := repoSizeBucketFor(in.FileCount)

	totalLanguageFiles := 0
	codeLanguageFiles := 0
	for language, count := range in.LanguageCounts {
		totalLanguageFiles += count
		if lang.IsSemanticCodeLanguage(language) {
			codeLanguageFiles += count
		}
	}
	codeMixRatio := 0.0
	if totalLanguageFiles > 0 {
		codeMixRatio = float64(codeLanguageFiles) / float64(totalLanguageFiles)
	}

	reasonCodes := []string{
		fmt.Sprintf("repo_bucket:%s", repoSizeBucket),
		fmt.Sprintf("latency_budget:%dms", in.TargetLatencyMS),
		fmt.Sprintf("code_mix:%.2f", codeMixRatio),
	}

	var profile string
	switch {
	case in.TargetLatencyMS <= 180 || in.FileCount > 50_000:
		reasonCodes = append(reasonCodes, "prefer_low_latency")
		profile = "fast_local"
	case in.FileCount < 10_000 && in.TargetLatencyMS >= 650 && codeMixRatio >= 0.6:
		reasonCodes = append(reasonCodes, "small_repo_high_budget")
		profile = "high_quality"
	case codeMixRatio >= 0.45 && in.TargetLatencyMS >= 260:
		reasonCodes = append(reasonCodes, "balanced_quality_latency")
		profile = "code_quality"
	case codeMixRatio >= 0.3:
		reasonCodes = append(reasonCodes, "moderate_latency_code_mix")
		profile = "fast_local"
	default:
		reasonCodes = append(reasonCodes, "fallback_fast_local")
		profile = "fast_local"
	}

	return Recommendation{Profile: profile, RepoSizeBucket: repoSizeBucket, ReasonCodes: reasonCodes}
}

func repoSizeBucketFor(fileCount int) string {
	switch {
	case fileCount < 10_000:
		return "<10k"
	case fileCount <= 50_000:
		return "10k-50k"
	default:
		return ">50k"
	}
}
