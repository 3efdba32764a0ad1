package query

import (
	"fmt"
	"math"
	"strings"
)

// normalizeRelevanceScore maps a raw score onto [0,1] via x/(x+1): it
// approaches 1 for large scores without a hard ceiling, and collapses
// non-finite or non-positive input to 0.
func normalizeRelevanceScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score <= 0 {
		return 0
	}
	return clamp01(score / (score + 1))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// ConfidenceGuidance is the confidence verdict attached to a search
// response: how sure the top result is the right one, and, when not sure,
// a suggested follow-up tool call tailored to the query's intent.
type ConfidenceGuidance struct {
	LowConfidence    bool
	SuggestedAction  string
	Threshold        float64
	TopScore         float64
	ScoreMargin      float64
	ChannelAgreement float64
	Composite        float64
}

// EvaluateConfidence scores how trustworthy the top of a reranked result
// list is. threshold is clamped to [0,1] (callers pass 0.5 when the tool
// argument was omitted).
func EvaluateConfidence(results []Result, query string, intent Intent, threshold float64) ConfidenceGuidance {
	threshold = clamp01(threshold)

	var topScore, scoreMargin float64
	if len(results) > 0 {
		topScore = normalizeRelevanceScore(results[0].Score)
		if len(results) > 1 {
			diff := results[0].Score - results[1].Score
			if diff < 0 {
				diff = 0
			}
			scoreMargin = normalizeRelevanceScore(diff)
		} else {
			scoreMargin = topScore
		}
	}

	channelAgreement := channelAgreement(results)
	composite := clamp01(topScore*0.55 + scoreMargin*0.30 + channelAgreement*0.15)
	lowConfidence := composite < threshold

	var action string
	if lowConfidence {
		action = suggestedAction(query, intent, results)
	}

	return ConfidenceGuidance{
		LowConfidence:    lowConfidence,
		SuggestedAction:  action,
		Threshold:        threshold,
		TopScore:         topScore,
		ScoreMargin:      scoreMargin,
		ChannelAgreement: channelAgreement,
		Composite:        composite,
	}
}

// channelAgreement scores how much the top five results are corroborated
// across retrieval channels: a climbing bonus for hybrid results (one in
// five -> 0.5, all five -> 1.0), a flat 0.4 when lexical and semantic
// both appear without any hybrid overlap, else 0.
func channelAgreement(results []Result) float64 {
	top := results
	if len(top) > 5 {
		top = top[:5]
	}
	if len(top) == 0 {
		return 0
	}

	var hybridCount int
	var sawLexical, sawSemantic bool
	for _, r := range top {
		switch r.Provenance {
		case ProvenanceHybrid:
			hybridCount++
		case ProvenanceSemantic:
			sawSemantic = true
		default:
			sawLexical = true
		}
	}

	hybridRatio := float64(hybridCount) / float64(len(top))
	if hybridRatio > 0 {
		return math.Min(0.375+hybridRatio*0.625, 1.0)
	}
	if sawLexical && sawSemantic {
		return 0.4
	}
	return 0
}

var suggestionStopWords = map[string]bool{
	"where": true, "what": true, "when": true, "how": true, "is": true,
	"the": true, "in": true, "to": true, "for": true, "and": true,
	"of": true, "a": true, "an": true,
}

func suggestedAction(query string, intent Intent, results []Result) string {
	if len(results) == 0 {
		return "No results found. Try broader search terms or check index status."
	}

	switch intent {
	case IntentNaturalLanguage:
		identifier := extractIdentifier(query)
		if identifier == "" {
			identifier = "target_symbol"
		}
		return fmt.Sprintf("Try locate_symbol with '%s'", identifier)
	case IntentSymbol:
		return fmt.Sprintf("Try search_code with natural language: 'where is %s defined'", query)
	case IntentPath:
		return "Check file path spelling or try search_code with filename"
	case IntentError:
		return "Try search_code with exact error substring or stack-frame snippet"
	default:
		return "Try rephrasing the query or check index status"
	}
}

// extractIdentifier pulls the first non-stop-word alphanumeric token out
// of a natural-language query, as a best guess at the symbol the caller
// actually cares about.
func extractIdentifier(query string) string {
	tokens := strings.FieldsFunc(query, func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		first := rune(tok[0])
		if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') || first == '_') {
			continue
		}
		if suggestionStopWords[strings.ToLower(tok)] {
			continue
		}
		return tok
	}
	return ""
}
