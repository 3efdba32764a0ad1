// Package semantic provides the vector-search side of a hybrid query: a
// Provider indexes per-symbol documents into a vector store and answers
// nearest-neighbor search, so the query engine can tag a result "hybrid"
// when it agrees with the lexical channel.
package semantic

import "context"

// Document is one unit of semantic-indexable content: a symbol or
// snippet, keyed the same way its textindex counterpart is keyed so a
// hit can be joined back against the lexical result with the same
// ResultID.
type Document struct {
	ResultID  string
	SymbolID  string
	Path      string
	Language  string
	Content   string
	LineStart int
	LineEnd   int
}

// Hit is one nearest-neighbor match, scored by cosine similarity in
// [0,1] (Qdrant's own Distance_Cosine convention, not renormalized).
type Hit struct {
	ResultID  string
	SymbolID  string
	Path      string
	LineStart int
	LineEnd   int
	Score     float64
}

// Embedder turns text into a fixed-dimension vector. The production
// wiring points this at whatever embedding model a deployment has
// configured; nothing in this repo calls an external embedding API, so
// the default Embedder (HashEmbedder) is a deterministic local
// stand-in good enough to exercise the hybrid retrieval path end to
// end without a network dependency.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// Provider indexes and searches one project's symbol/snippet corpus in
// a vector store, scoped per (project, ref) the same way internal/overlay
// scopes the lexical text index per ref.
type Provider interface {
	Index(ctx context.Context, projectID, ref string, docs []Document) error
	Search(ctx context.Context, projectID, ref, queryText string, limit int) ([]Hit, error)
	DeleteRef(ctx context.Context, projectID, ref string) error
	Close() error
}
