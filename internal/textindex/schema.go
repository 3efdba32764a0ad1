package textindex

// Tokenizer converts a raw field value into search terms.
type Tokenizer func(string) []string

// FieldSpec names one field of an index's documents and the tokenizer
// used to derive its search terms.
type FieldSpec struct {
	Name      string
	Tokenize  Tokenizer
	BM25Boost float64 // per-field weight applied to a field's BM25 contribution
}

// Kind names one of the three per-project text indices.
type Kind string

const (
	KindSymbols  Kind = "symbols"
	KindSnippets Kind = "snippets"
	KindFiles    Kind = "files"
)

// schemaFor returns the tokenized-field list for a given index kind.
// Fields not listed here are stored-only and never produce postings.
func schemaFor(kind Kind) []FieldSpec {
	switch kind {
	case KindSymbols:
		return []FieldSpec{
			{Name: FieldSymbolExact, Tokenize: TokenizeExact, BM25Boost: 3.0},
			{Name: FieldNameCamel, Tokenize: TokenizeCamel, BM25Boost: 2.0},
			{Name: FieldNameSnake, Tokenize: TokenizeSnake, BM25Boost: 2.0},
			{Name: FieldQualifiedName, Tokenize: TokenizeDotted, BM25Boost: 1.5},
			{Name: FieldSignature, Tokenize: TokenizeSignature, BM25Boost: 1.0},
			{Name: FieldKind, Tokenize: TokenizeExact, BM25Boost: 0.5},
			{Name: FieldLanguage, Tokenize: TokenizeExact, BM25Boost: 0.1},
			{Name: FieldRef, Tokenize: TokenizeExact, BM25Boost: 0.0},
		}
	case KindSnippets:
		return []FieldSpec{
			{Name: FieldContent, Tokenize: TokenizeStandard, BM25Boost: 1.0},
			{Name: FieldRef, Tokenize: TokenizeExact, BM25Boost: 0.0},
		}
	case KindFiles:
		return []FieldSpec{
			{Name: FieldFilename, Tokenize: TokenizePath, BM25Boost: 2.0},
			{Name: FieldContentHead, Tokenize: TokenizeStandard, BM25Boost: 1.0},
			{Name: FieldPath, Tokenize: TokenizePath, BM25Boost: 1.5},
			{Name: FieldRef, Tokenize: TokenizeExact, BM25Boost: 0.0},
		}
	default:
		return nil
	}
}
