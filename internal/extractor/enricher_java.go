package extractor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
)

type javaEnricher struct{}

func init() {
	Register(javaEnricher{})
}

func (javaEnricher) Language() lang.Language { return lang.Java }

func (javaEnricher) Separator() string { return "." }

func (javaEnricher) MapKind(bucket string, hasParent bool, node *tree_sitter.Node, source []byte) SymbolKind {
	switch bucket {
	case "function":
		return KindMethod
	case "class":
		switch node.Kind() {
		case "interface_declaration":
			return KindInterface
		case "enum_declaration":
			return KindEnum
		default:
			// class_declaration, annotation_type_declaration, record_declaration
			return KindClass
		}
	default:
		return ""
	}
}

func (javaEnricher) ExtractVisibility(node *tree_sitter.Node, source []byte) string {
	modifiers := findChildByKind(node, "modifiers")
	if modifiers == nil {
		return "package-private"
	}
	text := NodeText(modifiers, source)
	switch {
	case containsWord(text, "public"):
		return "public"
	case containsWord(text, "protected"):
		return "protected"
	case containsWord(text, "private"):
		return "private"
	default:
		return "package-private"
	}
}

func containsWord(haystack, word string) bool {
	for i := 0; i+len(word) <= len(haystack); i++ {
		if haystack[i:i+len(word)] == word {
			before := i == 0 || haystack[i-1] == ' ' || haystack[i-1] == '\n' || haystack[i-1] == '\t'
			after := i+len(word) == len(haystack) || haystack[i+len(word)] == ' ' || haystack[i+len(word)] == '\n'
			if before && after {
				return true
			}
		}
	}
	return false
}

func (javaEnricher) FindParentScope(node *tree_sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Kind() {
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			if nameNode := current.ChildByFieldName("name"); nameNode != nil {
				return NodeText(nameNode, source)
			}
			return ""
		case "class_body", "interface_body", "enum_body", "enum_body_declarations":
			current = current.Parent()
		default:
			return ""
		}
	}
	return ""
}
