package textindex

// Document is one record in an index: an external id unique within the
// index, a bag of string fields (tokenized per the owning index's
// schema) and a bag of integer fields stored but never tokenized.
type Document struct {
	ID        string            `json:"id"`
	Fields    map[string]string `json:"fields"`
	IntFields map[string]int    `json:"int_fields,omitempty"`
}

// Field name constants, shared between schema definitions and callers
// building documents so field names can't drift out of sync.
const (
	FieldSymbolExact    = "symbol_exact"
	FieldNameCamel      = "name_camel"
	FieldNameSnake      = "name_snake"
	FieldQualifiedName  = "qualified_name"
	FieldSignature      = "signature"
	FieldKind           = "kind"
	FieldLanguage       = "language"
	FieldRef            = "ref"
	FieldSymbolID       = "symbol_id"
	FieldSymbolStableID = "symbol_stable_id"
	FieldPath           = "path"
	FieldVisibility     = "visibility"
	FieldName           = "name"

	FieldContent   = "content"
	FieldChunkType = "chunk_type"

	FieldFilename    = "filename"
	FieldContentHead = "content_head"

	IntFieldLineStart = "line_start"
	IntFieldLineEnd   = "line_end"
)

// NewSymbolDocument builds the document for one symbol record, per
// spec's symbols-index field list: symbol_exact (untokenized),
// name_camel, name_snake, qualified_name (dotted), signature, kind,
// language, ref as indexed terms; symbol_id, symbol_stable_id, path,
// line_start, line_end, visibility, name as stored fields.
func NewSymbolDocument(docID, ref, path, language, symbolID, symbolStableID, name, qualifiedName, kind, signature, visibility string, lineStart, lineEnd int) Document {
	return Document{
		ID: docID,
		Fields: map[string]string{
			FieldSymbolExact:    name,
			FieldNameCamel:      name,
			FieldNameSnake:      name,
			FieldQualifiedName:  qualifiedName,
			FieldSignature:      signature,
			FieldKind:           kind,
			FieldLanguage:       language,
			FieldRef:            ref,
			FieldSymbolID:       symbolID,
			FieldSymbolStableID: symbolStableID,
			FieldPath:           path,
			FieldVisibility:     visibility,
			FieldName:           name,
		},
		IntFields: map[string]int{
			IntFieldLineStart: lineStart,
			IntFieldLineEnd:   lineEnd,
		},
	}
}

// NewSnippetDocument builds the document for one snippet record: content
// is the only tokenized field (standard tokenizer), the rest are stored
// metadata.
func NewSnippetDocument(docID, ref, path, language, chunkType, content string, lineStart, lineEnd int) Document {
	return Document{
		ID: docID,
		Fields: map[string]string{
			FieldContent:   content,
			FieldRef:       ref,
			FieldPath:      path,
			FieldLanguage:  language,
			FieldChunkType: chunkType,
		},
		IntFields: map[string]int{
			IntFieldLineStart: lineStart,
			IntFieldLineEnd:   lineEnd,
		},
	}
}

// NewFileDocument builds the document for one file manifest record:
// filename and path (path tokenizer) and content_head (stemmed) are
// tokenized, ref is an exact term.
func NewFileDocument(docID, ref, path, filename, contentHead string) Document {
	return Document{
		ID: docID,
		Fields: map[string]string{
			FieldFilename:    filename,
			FieldContentHead: contentHead,
			FieldPath:        path,
			FieldRef:         ref,
		},
	}
}
