// Package lang registers the tree-sitter node-type vocabulary the
// extractor walks for each supported language.
package lang

// Language identifies a supported programming language.
type Language string

const (
	Go         Language = "go"
	Python     Language = "python"
	Rust       Language = "rust"
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Java       Language = "java"
	C          Language = "c"
	CPP        Language = "cpp"
)

// AllLanguages returns every registered language.
func AllLanguages() []Language {
	return []Language{Go, Python, Rust, TypeScript, JavaScript, Java, C, CPP}
}

// semanticCodeLanguages counts toward the code-mix ratio the semantic
// profile advisor uses. It is a subset of the registered languages:
// java, c and cpp have full parser/extractor support but are not
// counted here.
var semanticCodeLanguages = map[string]bool{
	"rust": true, "typescript": true, "python": true, "go": true, "javascript": true,
}

// IsSemanticCodeLanguage reports whether language should count as a code
// language for internal/advisor's repo-size/code-mix heuristics.
func IsSemanticCodeLanguage(language string) bool {
	return semanticCodeLanguages[language]
}

// Spec defines the tree-sitter node kinds the extractor walks for one
// language: which nodes are function-like, class-like, module-root, call
// expressions, and import declarations.
type Spec struct {
	Language          Language
	FileExtensions    []string
	FunctionNodeTypes []string
	ClassNodeTypes    []string
	ModuleNodeTypes   []string
	CallNodeTypes     []string
	ImportNodeTypes   []string
}

var registry = map[string]*Spec{}

// Register adds a Spec to the global registry, keyed by file extension.
func Register(spec *Spec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the Spec registered for a file extension (e.g. ".go").
func ForExtension(ext string) *Spec {
	return registry[ext]
}

// ForLanguage returns the Spec for a Language, or nil if unregistered.
func ForLanguage(l Language) *Spec {
	for _, spec := range registry {
		if spec.Language == l {
			return spec
		}
	}
	return nil
}

// ForExtensionLanguage returns the Language registered for a file extension.
func ForExtensionLanguage(ext string) (Language, bool) {
	spec := registry[ext]
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}

// IsFunctionNode reports whether kind is one of spec's function node types.
func (s *Spec) IsFunctionNode(kind string) bool { return contains(s.FunctionNodeTypes, kind) }

// IsClassNode reports whether kind is one of spec's class-like node types.
func (s *Spec) IsClassNode(kind string) bool { return contains(s.ClassNodeTypes, kind) }

// IsCallNode reports whether kind is one of spec's call expression node types.
func (s *Spec) IsCallNode(kind string) bool { return contains(s.CallNodeTypes, kind) }

// IsImportNode reports whether kind is one of spec's import node types.
func (s *Spec) IsImportNode(kind string) bool { return contains(s.ImportNodeTypes, kind) }

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
