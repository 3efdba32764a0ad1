package textindex

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cruxe/cruxe/internal/cxerr"
)

// SchemaVersion is stamped into every index's manifest.json and checked
// on open.
const SchemaVersion = 1

type manifest struct {
	SchemaVersion int      `json:"schema_version"`
	Segments      []string `json:"segments"`
}

// Index is one inverted text index (one of symbols/snippets/files) over
// a directory of immutable JSON-lines segment files, plus the in-memory
// postings rebuilt from those segments on open.
type Index struct {
	mu       sync.RWMutex
	dir      string
	kind     Kind
	schema   []FieldSpec
	docs     []Document
	byID     map[string]int // external id -> index into docs, tombstoned entries removed from this map only
	tombs    map[int]bool   // docIdx -> removed
	fields   map[string]*fieldPostings
	pending  []Document // documents added since the last Commit
	segCount int
}

// Open creates the index directory and an empty manifest if absent, or
// loads and replays every segment file already present.
func Open(dir string, kind Kind) (*Index, error) {
	return open(dir, kind, false)
}

// OpenExisting loads an index that must already exist; a missing or
// incompatible manifest is reported rather than silently created.
func OpenExisting(dir string, kind Kind) (*Index, error) {
	return open(dir, kind, true)
}

func open(dir string, kind Kind, mustExist bool) (*Index, error) {
	idx := &Index{
		dir:    dir,
		kind:   kind,
		schema: schemaFor(kind),
		byID:   map[string]int{},
		tombs:  map[int]bool{},
		fields: map[string]*fieldPostings{},
	}
	for _, f := range idx.schema {
		idx.fields[f.Name] = newFieldPostings()
	}

	manifestPath := filepath.Join(dir, "manifest.json")
	if _, err := os.Stat(manifestPath); err != nil {
		if mustExist {
			return nil, cxerr.New(cxerr.CodeIndexIncompatible, fmt.Sprintf("text index %q has no manifest", kind))
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		if err := idx.writeManifest(manifest{SchemaVersion: SchemaVersion}); err != nil {
			return nil, err
		}
		return idx, nil
	}

	m, err := readManifest(manifestPath)
	if err != nil {
		return nil, cxerr.Wrap(cxerr.CodeCorruptManifest, fmt.Sprintf("text index %q manifest unreadable", kind), err)
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, &cxerr.SchemaMigrationRequired{Current: m.SchemaVersion, Required: SchemaVersion}
	}
	idx.segCount = len(m.Segments)

	for _, seg := range m.Segments {
		if err := idx.replaySegment(filepath.Join(dir, seg)); err != nil {
			return nil, cxerr.Wrap(cxerr.CodeCorruptManifest, fmt.Sprintf("text index %q segment %q corrupt", kind, seg), err)
		}
	}
	return idx, nil
}

func (idx *Index) replaySegment(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var env segmentEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			return err
		}
		if env.Tombstone != "" {
			idx.applyTombstone(env.Tombstone)
			continue
		}
		idx.index(env.Doc)
	}
	return scanner.Err()
}

type segmentEnvelope struct {
	Doc       Document `json:"doc,omitempty"`
	Tombstone string   `json:"tombstone,omitempty"` // external id removed
}

func readManifest(path string) (manifest, error) {
	var m manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, err
	}
	return m, nil
}

func (idx *Index) writeManifest(m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(idx.dir, "manifest.json"), data, 0o644)
}

// index assigns doc a docIdx and populates field postings. Commit calls it
// with idx.mu held; segment replay in open calls it before the index is
// returned to any caller.
func (idx *Index) index(doc Document) {
	docIdx := len(idx.docs)
	idx.docs = append(idx.docs, doc)
	idx.byID[doc.ID] = docIdx
	for _, spec := range idx.schema {
		val, ok := doc.Fields[spec.Name]
		if !ok || val == "" {
			continue
		}
		terms := spec.Tokenize(val)
		idx.fields[spec.Name].add(docIdx, terms)
	}
}

func (idx *Index) applyTombstone(id string) {
	if docIdx, ok := idx.byID[id]; ok {
		idx.tombs[docIdx] = true
		delete(idx.byID, id)
	}
}

// Add stages a document for the next Commit. If a document with the same
// ID is already staged or indexed, the prior one is tombstoned first so
// Commit's replay sees only the latest version.
func (idx *Index) Add(doc Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, exists := idx.byID[doc.ID]
	for _, p := range idx.pending {
		if p.ID == doc.ID {
			exists = true
		}
	}
	if exists {
		idx.pending = append(idx.pending, Document{ID: doc.ID}) // tombstone marker resolved in Commit
	}
	idx.pending = append(idx.pending, doc)
}

// AllDocuments returns every live (non-tombstoned, committed) document in
// the index, used when carrying a ref's unchanged documents forward into
// a fresh staging index set during incremental indexing.
func (idx *Index) AllDocuments() []Document {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	result := make([]Document, 0, len(idx.byID))
	for _, docIdx := range idx.byID {
		if idx.tombs[docIdx] {
			continue
		}
		result = append(result, idx.docs[docIdx])
	}
	return result
}

// Remove tombstones id at once, so it drops out of searches immediately,
// and stages the tombstone so the next Commit persists it.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.applyTombstone(id)
	idx.pending = append(idx.pending, Document{ID: id})
}

// Commit writes every staged Add/Remove since the last Commit as one new
// immutable segment file and updates the manifest.
func (idx *Index) Commit() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.pending) == 0 {
		return nil
	}

	segName := fmt.Sprintf("segment-%05d.jsonl", idx.segCount)
	segPath := filepath.Join(idx.dir, segName)
	f, err := os.Create(segPath)
	if err != nil {
		return fmt.Errorf("create segment: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, doc := range idx.pending {
		isRemoval := doc.Fields == nil && doc.IntFields == nil
		var env segmentEnvelope
		if isRemoval {
			env = segmentEnvelope{Tombstone: doc.ID}
			idx.applyTombstone(doc.ID)
		} else {
			env = segmentEnvelope{Doc: doc}
			idx.index(doc)
		}
		line, err := json.Marshal(env)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	idx.segCount++
	idx.pending = nil

	m, err := idx.currentManifest(segName)
	if err != nil {
		return err
	}
	return idx.writeManifest(m)
}

func (idx *Index) currentManifest(newSegment string) (manifest, error) {
	path := filepath.Join(idx.dir, "manifest.json")
	m, err := readManifest(path)
	if err != nil {
		if os.IsNotExist(err) {
			m = manifest{SchemaVersion: SchemaVersion}
		} else {
			return manifest{}, err
		}
	}
	m.Segments = append(m.Segments, newSegment)
	return m, nil
}

// Result is one scored hit from Search.
type Result struct {
	Doc   Document
	Score float64
}

// Search runs BM25 over the query's terms against every tokenized field
// in the schema weighted by each field's BM25Boost, skipping tombstoned
// documents, and returns the top `limit` results sorted by descending
// score then ascending document id for determinism.
func (idx *Index) Search(query string, limit int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	queryTerms := TokenizeStandard(query)
	if len(queryTerms) == 0 {
		return nil
	}
	docCount := len(idx.docs)
	combined := map[int]float64{}
	for _, spec := range idx.schema {
		if spec.BM25Boost <= 0 {
			continue
		}
		terms := spec.Tokenize(query)
		scores := idx.fields[spec.Name].score(terms, docCount)
		for docIdx, s := range scores {
			combined[docIdx] += s * spec.BM25Boost
		}
	}

	results := make([]Result, 0, len(combined))
	for docIdx, score := range combined {
		if idx.tombs[docIdx] {
			continue
		}
		results = append(results, Result{Doc: idx.docs[docIdx], Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Doc.ID < results[j].Doc.ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// DocCount returns the number of live (non-tombstoned) documents.
func (idx *Index) DocCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byID)
}

// Kind returns the index's kind.
func (idx *Index) Kind() Kind { return idx.kind }
