package extractor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
)

// cEnricher is deliberately thin: C has no visibility keywords and no
// nested type scoping, so ExtractVisibility and FindParentScope are no-ops.
type cEnricher struct{}

func init() {
	Register(cEnricher{})
}

func (cEnricher) Language() lang.Language { return lang.C }

func (cEnricher) Separator() string { return "." }

func (cEnricher) MapKind(bucket string, hasParent bool, node *tree_sitter.Node, source []byte) SymbolKind {
	switch bucket {
	case "function":
		return KindFunction
	case "class":
		switch node.Kind() {
		case "enum_specifier":
			return KindEnum
		default:
			// struct_specifier, union_specifier
			return KindStruct
		}
	default:
		return ""
	}
}

func (cEnricher) ExtractVisibility(node *tree_sitter.Node, source []byte) string {
	return ""
}

func (cEnricher) FindParentScope(node *tree_sitter.Node, source []byte) string {
	return ""
}
