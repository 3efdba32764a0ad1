package extractor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cruxe/cruxe/internal/lang"
	"github.com/cruxe/cruxe/internal/parser"
)

// genericExtractor walks the tree-sitter AST using a language's registered
// node-type lists (internal/lang) and delegates per-language judgment calls
// to the registered LanguageEnricher. One instance serves every language;
// the language-specific behavior lives entirely in the lang.Spec node-type
// tables and the LanguageEnricher implementations.
type genericExtractor struct{}

// New returns the shared Extractor. All eight registered languages go
// through the same walking engine; only their lang.Spec and LanguageEnricher
// differ.
func New() Extractor {
	return genericExtractor{}
}

func (genericExtractor) Extract(source []byte, language lang.Language, sourcePath string) (Result, error) {
	spec := lang.ForLanguage(language)
	if spec == nil {
		return Result{}, unsupportedLanguageError(language)
	}
	enricher := ForLanguage(language)
	if enricher == nil {
		return Result{}, unsupportedLanguageError(language)
	}

	tree, err := parser.Parse(language, source)
	if err != nil {
		return Result{}, err
	}
	defer tree.Close()

	root := tree.RootNode()
	result := Result{
		Diagnostics: Diagnostics{HadParseError: root.HasError()},
	}

	parser.Walk(root, func(node *tree_sitter.Node) bool {
		kind := node.Kind()
		switch {
		case spec.IsFunctionNode(kind):
			if sym, ok := buildSymbol(node, source, "function", language, enricher); ok {
				result.Symbols = append(result.Symbols, sym)
			}
		case spec.IsClassNode(kind):
			if sym, ok := buildSymbol(node, source, "class", language, enricher); ok {
				result.Symbols = append(result.Symbols, sym)
			}
		case spec.IsCallNode(kind):
			if cs, ok := buildCallSite(node, source); ok {
				result.CallSites = append(result.CallSites, cs)
			}
		case spec.IsImportNode(kind):
			if imp, ok := buildImport(node, source, sourcePath); ok {
				result.RawImports = append(result.RawImports, imp)
			}
		}
		return true
	})

	return result, nil
}

func buildSymbol(node *tree_sitter.Node, source []byte, bucket string, language lang.Language, enricher LanguageEnricher) (ExtractedSymbol, bool) {
	nameNode := findNameNode(node)
	if nameNode == nil {
		return ExtractedSymbol{}, false
	}
	name := parser.NodeText(nameNode, source)
	if name == "" {
		return ExtractedSymbol{}, false
	}

	parentName := enricher.FindParentScope(node, source)
	hasParent := parentName != ""

	kind := enricher.MapKind(bucket, hasParent, node, source)
	if kind == "" {
		return ExtractedSymbol{}, false
	}

	qualifiedName := name
	if hasParent {
		qualifiedName = parentName + enricher.Separator() + name
	}

	var signature string
	if kind == KindFunction || kind == KindMethod {
		signature = firstLine(parser.NodeText(node, source))
	}

	return ExtractedSymbol{
		Name:          name,
		QualifiedName: qualifiedName,
		Kind:          kind,
		Language:      language,
		Signature:     signature,
		LineStart:     int(node.StartPosition().Row) + 1,
		LineEnd:       int(node.EndPosition().Row) + 1,
		Visibility:    enricher.ExtractVisibility(node, source),
		ParentName:    parentName,
		Body:          parser.NodeText(node, source),
	}, true
}

// findNameNode locates the identifier a definition node is named after. Most
// grammars expose it as a "name" field; a few need language-specific
// unwrapping handled here rather than in every enricher, since it is purely
// structural (no per-language judgment call involved).
func findNameNode(node *tree_sitter.Node) *tree_sitter.Node {
	if n := node.ChildByFieldName("name"); n != nil {
		return n
	}

	// C/C++: function_definition wraps the identifier in a function_declarator.
	if declarator := node.ChildByFieldName("declarator"); declarator != nil {
		if n := declarator.ChildByFieldName("declarator"); n != nil {
			return n
		}
		if n := findChildByKind(declarator, "identifier"); n != nil {
			return n
		}
	}

	// JS/TS: const x = () => {} names the enclosing variable_declarator, not
	// the arrow_function itself.
	if node.Kind() == "arrow_function" {
		if p := node.Parent(); p != nil && p.Kind() == "variable_declarator" {
			return p.ChildByFieldName("name")
		}
	}

	return nil
}

func findChildByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func buildCallSite(node *tree_sitter.Node, source []byte) (ExtractedCallSite, bool) {
	text := parser.NodeText(node, source)
	prefix := strings.TrimSpace(strings.SplitN(text, "(", 2)[0])
	if prefix == "" {
		return ExtractedCallSite{}, false
	}
	confidence := ConfidenceStatic
	if strings.ContainsAny(prefix, ".") {
		confidence = ConfidenceHeuristic
	}
	return ExtractedCallSite{
		CalleeName: prefix,
		Line:       int(node.StartPosition().Row) + 1,
		Confidence: confidence,
	}, true
}

func buildImport(node *tree_sitter.Node, source []byte, sourcePath string) (RawImport, bool) {
	target := findImportTarget(node, source)
	if target == "" {
		return RawImport{}, false
	}
	name := target
	if idx := strings.LastIndexAny(target, "/."); idx >= 0 {
		name = target[idx+1:]
	}
	return RawImport{
		SourceQualifiedName: "file::" + sourcePath,
		TargetQualifiedName: target,
		TargetName:          name,
		ImportLine:          int(node.StartPosition().Row) + 1,
	}, true
}

// findImportTarget locates the quoted path or dotted module name inside an
// import declaration, generically across grammars: a string literal
// descendant (Go, C/C++ #include, JS/TS) or a dotted/scoped path within two
// levels of the declaration (Python, Java, Rust), whichever the walk
// reaches first.
func findImportTarget(node *tree_sitter.Node, source []byte) string {
	var found string
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		if found != "" {
			return false
		}
		switch n.Kind() {
		case "interpreted_string_literal", "string_literal", "raw_string_literal",
			"string_fragment", "system_lib_string":
			text := parser.NodeText(n, source)
			found = strings.Trim(text, "\"'<>")
			return false
		case "dotted_name", "scoped_identifier":
			if n.Parent() == node || n.Parent().Parent() == node {
				found = parser.NodeText(n, source)
				return false
			}
		}
		return true
	})
	return found
}

type unsupportedLanguageError lang.Language

func (e unsupportedLanguageError) Error() string {
	return "extractor: unsupported language " + string(e)
}
