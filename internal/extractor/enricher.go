package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
)

// LanguageEnricher supplies the per-language judgment calls the generic
// walker cannot make on its own: qualified-name separator, definition-kind
// disambiguation, visibility convention, and parent-scope resolution.
type LanguageEnricher interface {
	// Language is the enricher's language identifier.
	Language() lang.Language

	// Separator joins parent scope and symbol name into a qualified name
	// ("::" for Rust and C++, "." for everything else in this registry).
	Separator() string

	// MapKind maps a coarse definition bucket ("function", "class", "module")
	// to a concrete SymbolKind, using the definition node itself to
	// disambiguate struct vs interface vs enum vs type alias where the
	// bucket alone is ambiguous.
	MapKind(bucket string, hasParent bool, node *tree_sitter.Node, source []byte) SymbolKind

	// ExtractVisibility reads the node's visibility/export convention.
	// Returns "" if the language has no applicable convention.
	ExtractVisibility(node *tree_sitter.Node, source []byte) string

	// FindParentScope walks node's ancestors to find the enclosing type or
	// namespace name. Returns "" for top-level symbols.
	FindParentScope(node *tree_sitter.Node, source []byte) string
}

var registry = map[lang.Language]LanguageEnricher{}

// Register adds an enricher to the global registry, keyed by language.
func Register(e LanguageEnricher) {
	registry[e.Language()] = e
}

// ForLanguage returns the registered enricher for l, or nil if none.
func ForLanguage(l lang.Language) LanguageEnricher {
	return registry[l]
}

// NodeText returns the source bytes spanned by node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// StripGenericArgs removes the content between open/close delimiter runs
// (bracket depth tracked, so nested generics collapse in one pass), used to
// normalize method-receiver and impl-block type names:
//
//	Foo[T]      -> Foo
//	pkg.Foo[T]  -> pkg.Foo
//	Result<Vec<T>, E> -> Result
func StripGenericArgs(input string, open, close rune) string {
	out := make([]rune, 0, len(input))
	depth := 0
	for _, ch := range input {
		switch ch {
		case open:
			depth++
		case close:
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out = append(out, ch)
			}
		}
	}
	return strings.TrimSpace(string(out))
}
