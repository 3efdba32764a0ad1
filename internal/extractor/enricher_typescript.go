package extractor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
)

type typescriptEnricher struct{}

func init() {
	Register(typescriptEnricher{})
}

func (typescriptEnricher) Language() lang.Language { return lang.TypeScript }

func (typescriptEnricher) Separator() string { return "." }

func (typescriptEnricher) MapKind(bucket string, hasParent bool, node *tree_sitter.Node, source []byte) SymbolKind {
	switch bucket {
	case "function":
		if hasParent {
			return KindMethod
		}
		return KindFunction
	case "class":
		switch node.Kind() {
		case "enum_declaration":
			return KindEnum
		case "type_alias_declaration":
			return KindTypeAlias
		case "interface_declaration":
			return KindInterface
		case "internal_module":
			return KindModule
		default:
			// class_declaration, abstract_class_declaration
			return KindClass
		}
	default:
		return ""
	}
}

func (typescriptEnricher) ExtractVisibility(node *tree_sitter.Node, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "accessibility_modifier" {
			return NodeText(child, source)
		}
	}
	if parent := node.Parent(); parent != nil && parent.Kind() == "export_statement" {
		return "export"
	}
	return "private"
}

func (typescriptEnricher) FindParentScope(node *tree_sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Kind() {
		case "class_declaration", "abstract_class_declaration", "interface_declaration", "internal_module":
			if nameNode := current.ChildByFieldName("name"); nameNode != nil {
				return NodeText(nameNode, source)
			}
			return ""
		case "class_body", "object_type", "statement_block":
			current = current.Parent()
		default:
			return ""
		}
	}
	return ""
}
