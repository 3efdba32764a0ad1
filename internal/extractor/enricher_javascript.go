package extractor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
)

// javascriptEnricher mirrors typescriptEnricher minus the type-only node
// kinds (interfaces, type aliases, namespaces) the JS grammar doesn't have.
type javascriptEnricher struct{}

func init() {
	Register(javascriptEnricher{})
}

func (javascriptEnricher) Language() lang.Language { return lang.JavaScript }

func (javascriptEnricher) Separator() string { return "." }

func (javascriptEnricher) MapKind(bucket string, hasParent bool, node *tree_sitter.Node, source []byte) SymbolKind {
	switch bucket {
	case "function":
		if hasParent {
			return KindMethod
		}
		return KindFunction
	case "class":
		return KindClass
	default:
		return ""
	}
}

func (javascriptEnricher) ExtractVisibility(node *tree_sitter.Node, source []byte) string {
	if parent := node.Parent(); parent != nil && parent.Kind() == "export_statement" {
		return "export"
	}
	return "private"
}

func (javascriptEnricher) FindParentScope(node *tree_sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Kind() {
		case "class_declaration":
			if nameNode := current.ChildByFieldName("name"); nameNode != nil {
				return NodeText(nameNode, source)
			}
			return ""
		case "class_body", "statement_block":
			current = current.Parent()
		default:
			return ""
		}
	}
	return ""
}
