// Package extractor turns parsed source into the symbols, call sites, and
// imports the indexer pipeline writes to the store and text index.
package extractor

import "github.com/cruxe/cruxe/internal/lang"

// SymbolKind classifies an extracted symbol. Kept as a plain string (not a
// closed Go enum) because it flows straight into the text index's untokenized
// "kind" field and the query engine's kind-weight table, both of which treat
// it as data, not a type switch.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindClass     SymbolKind = "class"
	KindStruct    SymbolKind = "struct"
	KindEnum      SymbolKind = "enum"
	KindTrait     SymbolKind = "trait"
	KindInterface SymbolKind = "interface"
	KindModule    SymbolKind = "module"
	KindConstant  SymbolKind = "constant"
	KindVariable  SymbolKind = "variable"
	KindTypeAlias SymbolKind = "type_alias"
)

// CallConfidence reports how sure a call site's resolution heuristic is.
type CallConfidence string

const (
	ConfidenceStatic    CallConfidence = "static"
	ConfidenceHeuristic CallConfidence = "heuristic"
)

// ExtractedSymbol is one definition found in a source file.
type ExtractedSymbol struct {
	Name          string
	QualifiedName string
	Kind          SymbolKind
	Language      lang.Language
	Signature     string // empty unless Kind is Function or Method
	LineStart     int    // 1-indexed, inclusive
	LineEnd       int    // 1-indexed, inclusive
	Visibility    string // empty if the language has no visibility convention
	ParentName    string // empty for top-level symbols
	Body          string
}

// ExtractedCallSite is one call expression found in a source file.
type ExtractedCallSite struct {
	CalleeName string
	Line       int // 1-indexed
	Confidence CallConfidence
}

// RawImport is one import/use declaration found in a source file, not yet
// resolved against the project's symbol table.
type RawImport struct {
	SourceQualifiedName string
	TargetQualifiedName string
	TargetName          string
	ImportLine          int
}

// Diagnostics reports extraction-quality signals for a single file.
type Diagnostics struct {
	HadParseError bool
}

// Result is everything Extract produces for one source file.
type Result struct {
	Symbols     []ExtractedSymbol
	CallSites   []ExtractedCallSite
	RawImports  []RawImport
	Diagnostics Diagnostics
}

// Extractor turns source bytes into symbols, call sites, and imports.
type Extractor interface {
	Extract(source []byte, language lang.Language, sourcePath string) (Result, error)
}
