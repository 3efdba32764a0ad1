package textindex

import "path/filepath"

// subdirs are the three conventional index directory names inside a
// project/ref's overlay or staging directory.
var subdirs = map[Kind]string{
	KindSymbols:  "symbols",
	KindSnippets: "snippets",
	KindFiles:    "files",
}

// IndexSet bundles the three per-ref text indices that live side by side
// under one overlay (or staging) directory.
type IndexSet struct {
	Symbols  *Index
	Snippets *Index
	Files    *Index
	dir      string
}

// OpenAt creates (if absent) or loads the three indices rooted at dir,
// one subdirectory per kind.
func OpenAt(dir string) (*IndexSet, error) {
	return openSet(dir, Open)
}

// OpenExistingAt loads the three indices rooted at dir, failing if any
// is missing or incompatible rather than creating it.
func OpenExistingAt(dir string) (*IndexSet, error) {
	return openSet(dir, OpenExisting)
}

func openSet(dir string, opener func(string, Kind) (*Index, error)) (*IndexSet, error) {
	symbols, err := opener(filepath.Join(dir, subdirs[KindSymbols]), KindSymbols)
	if err != nil {
		return nil, err
	}
	snippets, err := opener(filepath.Join(dir, subdirs[KindSnippets]), KindSnippets)
	if err != nil {
		return nil, err
	}
	files, err := opener(filepath.Join(dir, subdirs[KindFiles]), KindFiles)
	if err != nil {
		return nil, err
	}
	return &IndexSet{Symbols: symbols, Snippets: snippets, Files: files, dir: dir}, nil
}

// Commit flushes every index's staged documents to new segments.
func (s *IndexSet) Commit() error {
	if err := s.Symbols.Commit(); err != nil {
		return err
	}
	if err := s.Snippets.Commit(); err != nil {
		return err
	}
	return s.Files.Commit()
}

// Dir returns the directory the set was opened at.
func (s *IndexSet) Dir() string { return s.dir }
