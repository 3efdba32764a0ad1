package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
)

type pythonEnricher struct{}

func init() {
	Register(pythonEnricher{})
}

func (pythonEnricher) Language() lang.Language { return lang.Python }

func (pythonEnricher) Separator() string { return "." }

func (pythonEnricher) MapKind(bucket string, hasParent bool, node *tree_sitter.Node, source []byte) SymbolKind {
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

func (pythonEnricher) ExtractVisibility(node *tree_sitter.Node, source []byte) string {
	name := pythonNameText(node, source)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") && len(name) > 4 {
		return "public"
	}
	if strings.HasPrefix(name, "_") {
		return "private"
	}
	return "public"
}

func pythonNameText(node *tree_sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return NodeText(nameNode, source)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "assignment" {
			continue
		}
		left := child.ChildByFieldName("left")
		if left != nil && left.Kind() == "identifier" {
			return NodeText(left, source)
		}
	}
	return ""
}

func (pythonEnricher) FindParentScope(node *tree_sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Kind() {
		case "class_definition":
			if nameNode := current.ChildByFieldName("name"); nameNode != nil {
				return NodeText(nameNode, source)
			}
			return ""
		case "block", "decorated_definition":
			current = current.Parent()
		default:
			return ""
		}
	}
	return ""
}
