package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
)

type goEnricher struct{}

func init() {
	Register(goEnricher{})
}

func (goEnricher) Language() lang.Language { return lang.Go }

func (goEnricher) Separator() string { return "." }

func (goEnricher) MapKind(bucket string, hasParent bool, node *tree_sitter.Node, source []byte) SymbolKind {
	switch bucket {
	case "function":
		if hasParent {
			return KindMethod
		}
		return KindFunction
	case "class":
		// type_spec carries the actual struct_type/interface_type/alias; a bare
		// type_declaration only wraps one.
		typeSpec := node
		if node.Kind() != "type_spec" {
			typeSpec = findChildByKind(node, "type_spec")
		}
		if typeSpec != nil {
			if typeNode := typeSpec.ChildByFieldName("type"); typeNode != nil {
				switch typeNode.Kind() {
				case "struct_type":
					return KindStruct
				case "interface_type":
					return KindInterface
				}
			}
			return KindTypeAlias
		}
		return KindTypeAlias
	default:
		return ""
	}
}

func (goEnricher) ExtractVisibility(node *tree_sitter.Node, source []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	name := NodeText(nameNode, source)
	if name == "" {
		return ""
	}
	if r := []rune(name)[0]; r >= 'A' && r <= 'Z' {
		return "public"
	}
	return "private"
}

func (goEnricher) FindParentScope(node *tree_sitter.Node, source []byte) string {
	if node.Kind() != "method_declaration" {
		return ""
	}
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}
	for i := uint(0); i < receiver.ChildCount(); i++ {
		child := receiver.Child(i)
		if child == nil || child.Kind() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		return normalizeGoReceiver(NodeText(typeNode, source))
	}
	return ""
}

func normalizeGoReceiver(raw string) string {
	noPtr := strings.TrimPrefix(strings.TrimSpace(raw), "*")
	return StripGenericArgs(strings.TrimSpace(noPtr), '[', ']')
}
