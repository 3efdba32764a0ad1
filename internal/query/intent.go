// Package query implements the query-side pipeline: intent
// classification, ref/weight planning, search-result reranking,
// confidence scoring, and tombstone filtering.
package query

import (
	"regexp"
	"strings"

	"github.com/cruxe/cruxe/internal/lang"
)

// Intent is the classified shape of a raw query string.
type Intent string

const (
	IntentSymbol         Intent = "symbol"
	IntentPath           Intent = "path"
	IntentError          Intent = "error"
	IntentNaturalLanguage Intent = "natural_language"
)

// errorPrefixes are substrings that strongly suggest the query is a pasted
// error message or stack frame rather than an identifier or path.
var errorPrefixes = []string{
	"error:",
	"exception:",
	"traceback (most recent call last)",
	"panic:",
	"at ",
	"file \"",
	"  at ",
	"goroutine ",
}

var errorSubstrings = []string{
	"connection refused",
	"null pointer",
	"segmentation fault",
	"index out of range",
	"undefined is not",
	"cannot read property",
	"stack trace",
}

// identifierRe matches a bare or qualified identifier: letters, digits,
// underscores, optionally joined by "::" or "." qualifiers, with no
// whitespace anywhere in the query.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*((::|\.)[A-Za-z_][A-Za-z0-9_]*)*$`)

// Classify assigns one of {Symbol, Path, Error, NaturalLanguage} to a raw
// query string, per the fixed classification order: path segment and
// source-extension hints first, then error-message shape, then bare
// identifiers, falling back to natural language.
func Classify(query string) Intent {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)

	if looksLikePath(trimmed, lower) {
		return IntentPath
	}
	if looksLikeError(lower) {
		return IntentError
	}
	if !strings.ContainsAny(trimmed, " \t\n") && identifierRe.MatchString(trimmed) {
		return IntentSymbol
	}
	return IntentNaturalLanguage
}

func looksLikePath(trimmed, lower string) bool {
	if strings.Contains(trimmed, "/") {
		return true
	}
	for _, l := range lang.AllLanguages() {
		spec := lang.ForLanguage(l)
		if spec == nil {
			continue
		}
		for _, ext := range spec.FileExtensions {
			if strings.Contains(lower, ext) {
				return true
			}
		}
	}
	return false
}

func looksLikeError(lower string) bool {
	for _, prefix := range errorPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, sub := range errorSubstrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
