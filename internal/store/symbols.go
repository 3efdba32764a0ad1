package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Symbol is one extracted symbol record, scoped to (project_id, ref, path).
type Symbol struct {
	Path           string
	Language       string
	SymbolID       string
	SymbolStableID string
	Name           string
	QualifiedName  string
	Kind           string
	Signature      string
	LineStart      int
	LineEnd        int
	ParentSymbolID string
	Visibility     string
	Content        string
}

// scanner abstracts *sql.Row / *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

const symbolCols = `path, language, symbol_id, symbol_stable_id, name, qualified_name, kind, signature, line_start, line_end, parent_symbol_id, visibility, content`

func scanSymbol(row scanner) (*Symbol, error) {
	var sym Symbol
	var signature, parent, visibility, content sql.NullString
	err := row.Scan(&sym.Path, &sym.Language, &sym.SymbolID, &sym.SymbolStableID, &sym.Name, &sym.QualifiedName,
		&sym.Kind, &signature, &sym.LineStart, &sym.LineEnd, &parent, &visibility, &content)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	sym.Signature = signature.String
	sym.ParentSymbolID = parent.String
	sym.Visibility = visibility.String
	sym.Content = content.String
	return &sym, nil
}

func scanSymbols(rows *sql.Rows) ([]*Symbol, error) {
	var result []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sym)
	}
	return result, rows.Err()
}

// UpsertSymbol inserts or replaces one symbol row for (project, ref, path, symbol_id).
func (s *Store) UpsertSymbol(projectID, ref string, sym *Symbol) error {
	_, err := s.q.Exec(`
		INSERT INTO symbol_relations (project_id, ref, `+symbolCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, ref, path, symbol_id) DO UPDATE SET
			language=excluded.language, symbol_stable_id=excluded.symbol_stable_id,
			name=excluded.name, qualified_name=excluded.qualified_name, kind=excluded.kind,
			signature=excluded.signature, line_start=excluded.line_start, line_end=excluded.line_end,
			parent_symbol_id=excluded.parent_symbol_id, visibility=excluded.visibility, content=excluded.content`,
		projectID, ref, sym.Path, sym.Language, sym.SymbolID, sym.SymbolStableID, sym.Name, sym.QualifiedName,
		sym.Kind, nullableString(sym.Signature), sym.LineStart, sym.LineEnd, nullableString(sym.ParentSymbolID),
		nullableString(sym.Visibility), nullableString(sym.Content))
	if err != nil {
		return fmt.Errorf("upsert symbol: %w", err)
	}
	return nil
}

// symbolBatchCols is the number of bind params per row in the batch
// insert below; SQLite caps bound variables per statement at 999.
const symbolBatchCols = 15
const symbolBatchSize = 999 / symbolBatchCols

// UpsertSymbolBatch writes many symbols for (project, ref) in batched
// multi-row INSERTs, the pattern the pipeline uses per changed file.
func (s *Store) UpsertSymbolBatch(projectID, ref string, symbols []*Symbol) error {
	for i := 0; i < len(symbols); i += symbolBatchSize {
		end := i + symbolBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}
		if err := s.upsertSymbolChunk(projectID, ref, symbols[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertSymbolChunk(projectID, ref string, batch []*Symbol) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO symbol_relations (project_id, ref, ` + symbolCols + `) VALUES `)
	args := make([]any, 0, len(batch)*symbolBatchCols)
	for i, sym := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args, projectID, ref, sym.Path, sym.Language, sym.SymbolID, sym.SymbolStableID,
			sym.Name, sym.QualifiedName, sym.Kind, nullableString(sym.Signature), sym.LineStart, sym.LineEnd,
			nullableString(sym.ParentSymbolID), nullableString(sym.Visibility), nullableString(sym.Content))
	}
	sb.WriteString(` ON CONFLICT(project_id, ref, path, symbol_id) DO UPDATE SET
		language=excluded.language, symbol_stable_id=excluded.symbol_stable_id,
		name=excluded.name, qualified_name=excluded.qualified_name, kind=excluded.kind,
		signature=excluded.signature, line_start=excluded.line_start, line_end=excluded.line_end,
		parent_symbol_id=excluded.parent_symbol_id, visibility=excluded.visibility, content=excluded.content`)

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("upsert symbol batch: %w", err)
	}
	return nil
}

// FindSymbolsByName returns every symbol named `name` for (project, ref),
// optionally narrowed by kind.
func (s *Store) FindSymbolsByName(projectID, ref, name, kind string) ([]*Symbol, error) {
	query := `SELECT ` + symbolCols + ` FROM symbol_relations WHERE project_id=? AND ref=? AND name=?`
	args := []any{projectID, ref, name}
	if kind != "" {
		query += ` AND kind=?`
		args = append(args, kind)
	}
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("find symbols by name: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// FindSymbolsByPath returns every symbol defined in path for (project, ref),
// ordered by line_start (the order get_file_outline needs).
func (s *Store) FindSymbolsByPath(projectID, ref, path string) ([]*Symbol, error) {
	rows, err := s.q.Query(`SELECT `+symbolCols+` FROM symbol_relations WHERE project_id=? AND ref=? AND path=? ORDER BY line_start`, projectID, ref, path)
	if err != nil {
		return nil, fmt.Errorf("find symbols by path: %w", err)
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// FindSymbolByStableID looks up a symbol by its deterministic stable id.
func (s *Store) FindSymbolByStableID(projectID, ref, stableID string) (*Symbol, error) {
	row := s.q.QueryRow(`SELECT `+symbolCols+` FROM symbol_relations WHERE project_id=? AND ref=? AND symbol_stable_id=?`, projectID, ref, stableID)
	return scanSymbol(row)
}

// AllSymbols returns every symbol for (project, ref).
func (s *Store) AllSymbols(projectID, ref string) ([]*Symbol, error) {
	rows, err := s.q.Query(`SELECT `+symbolCols+` FROM symbol_relations WHERE project_id=? AND ref=?`, projectID, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSymbols(rows)
}

// CountSymbols returns the number of symbols indexed for (project, ref).
func (s *Store) CountSymbols(projectID, ref string) (int, error) {
	var count int
	err := s.q.QueryRow(`SELECT COUNT(*) FROM symbol_relations WHERE project_id=? AND ref=?`, projectID, ref).Scan(&count)
	return count, err
}

// DeleteSymbolsByPath removes every symbol for (project, ref, path), used
// before re-extracting a changed file and when tombstoning a deleted one.
func (s *Store) DeleteSymbolsByPath(projectID, ref, path string) error {
	_, err := s.q.Exec(`DELETE FROM symbol_relations WHERE project_id=? AND ref=? AND path=?`, projectID, ref, path)
	return err
}

// DeleteSymbolsByRef removes every symbol for (project, ref), used when a
// ref is evicted entirely.
func (s *Store) DeleteSymbolsByRef(projectID, ref string) error {
	_, err := s.q.Exec(`DELETE FROM symbol_relations WHERE project_id=? AND ref=?`, projectID, ref)
	return err
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
