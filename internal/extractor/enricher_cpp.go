package extractor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
)

type cppEnricher struct{}

func init() {
	Register(cppEnricher{})
}

func (cppEnricher) Language() lang.Language { return lang.CPP }

// "::" matches actual C++ qualified-name convention, unlike the "." default
// used for the other bracket languages here.
func (cppEnricher) Separator() string { return "::" }

func (cppEnricher) MapKind(bucket string, hasParent bool, node *tree_sitter.Node, source []byte) SymbolKind {
	switch bucket {
	case "function":
		if hasParent {
			return KindMethod
		}
		return KindFunction
	case "class":
		switch node.Kind() {
		case "enum_specifier":
			return KindEnum
		case "class_specifier":
			return KindClass
		default:
			// struct_specifier, union_specifier
			return KindStruct
		}
	default:
		return ""
	}
}

// ExtractVisibility finds the nearest preceding access_specifier label inside
// the enclosing class/struct body, falling back to the language default:
// public for struct, private for class.
func (cppEnricher) ExtractVisibility(node *tree_sitter.Node, source []byte) string {
	body := node.Parent()
	if body == nil || body.Kind() != "field_declaration_list" {
		return ""
	}
	container := body.Parent()
	if container == nil {
		return ""
	}

	visibility := ""
	if container.Kind() == "struct_specifier" {
		visibility = "public"
	} else if container.Kind() == "class_specifier" {
		visibility = "private"
	} else {
		return ""
	}

	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		if child == nil {
			break
		}
		if child.StartByte() >= node.StartByte() {
			break
		}
		if child.Kind() == "access_specifier" {
			visibility = NodeText(child, source)
		}
	}
	return visibility
}

func (cppEnricher) FindParentScope(node *tree_sitter.Node, source []byte) string {
	current := node.Parent()
	for current != nil {
		switch current.Kind() {
		case "class_specifier", "struct_specifier", "namespace_definition":
			if nameNode := current.ChildByFieldName("name"); nameNode != nil {
				return NodeText(nameNode, source)
			}
			return ""
		case "field_declaration_list", "declaration_list":
			current = current.Parent()
		default:
			return ""
		}
	}
	return ""
}
