package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
)

type rustEnricher struct{}

func init() {
	Register(rustEnricher{})
}

func (rustEnricher) Language() lang.Language { return lang.Rust }

func (rustEnricher) Separator() string { return "::" }

func (rustEnricher) MapKind(bucket string, hasParent bool, node *tree_sitter.Node, source []byte) SymbolKind {
	switch bucket {
	case "function":
		if hasParent {
			return KindMethod
		}
		return KindFunction
	case "class":
		switch node.Kind() {
		case "enum_item":
			return KindEnum
		case "type_item":
			return KindTypeAlias
		case "trait_item":
			return KindTrait
		case "mod_item":
			return KindModule
		default:
			// struct_item, union_item
			return KindStruct
		}
	default:
		return ""
	}
}

func (rustEnricher) ExtractVisibility(node *tree_sitter.Node, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "visibility_modifier" {
			return NodeText(child, source)
		}
	}
	return "private"
}

func (rustEnricher) FindParentScope(node *tree_sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Kind() {
		case "impl_item":
			if typeNode := current.ChildByFieldName("type"); typeNode != nil {
				return normalizeRustParent(NodeText(typeNode, source))
			}
			return ""
		case "trait_item", "struct_item", "enum_item", "mod_item":
			if nameNode := current.ChildByFieldName("name"); nameNode != nil {
				return NodeText(nameNode, source)
			}
			return ""
		case "declaration_list":
			current = current.Parent()
		default:
			return ""
		}
	}
	return ""
}

func normalizeRustParent(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "&")
	trimmed = strings.TrimPrefix(strings.TrimSpace(trimmed), "mut ")
	return StripGenericArgs(strings.TrimSpace(trimmed), '<', '>')
}
