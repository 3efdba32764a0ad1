package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Edge is one resolved symbol-to-symbol (or symbol-to-external-name) edge.
type Edge struct {
	ID                int64
	FromSymbolID      string
	ToSymbolID        string
	ToName            string
	EdgeType          string
	EdgeProvider      string
	ResolutionOutcome string
	ConfidenceBucket  string
	ConfidenceWeight  float64
	SourceFile        string
	SourceLine        int
}

func scanEdges(rows *sql.Rows) ([]*Edge, error) {
	var result []*Edge
	for rows.Next() {
		var e Edge
		var toSymbolID, toName sql.NullString
		if err := rows.Scan(&e.ID, &e.FromSymbolID, &toSymbolID, &toName, &e.EdgeType, &e.EdgeProvider,
			&e.ResolutionOutcome, &e.ConfidenceBucket, &e.ConfidenceWeight, &e.SourceFile, &e.SourceLine); err != nil {
			return nil, err
		}
		e.ToSymbolID = toSymbolID.String
		e.ToName = toName.String
		result = append(result, &e)
	}
	return result, rows.Err()
}

const edgeCols = `id, from_symbol_id, to_symbol_id, to_name, edge_type, edge_provider, resolution_outcome, confidence_bucket, confidence_weight, source_file, source_line`

// InsertEdge inserts one symbol edge row.
func (s *Store) InsertEdge(projectID, ref string, e *Edge) error {
	_, err := s.q.Exec(`
		INSERT INTO symbol_edges (project_id, ref, from_symbol_id, to_symbol_id, to_name, edge_type, edge_provider, resolution_outcome, confidence_bucket, confidence_weight, source_file, source_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, ref, e.FromSymbolID, nullableString(e.ToSymbolID), nullableString(e.ToName), e.EdgeType,
		e.EdgeProvider, e.ResolutionOutcome, e.ConfidenceBucket, e.ConfidenceWeight, e.SourceFile, e.SourceLine)
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}

// edgeBatchCols is the bind-param count per row; SQLite caps bound
// variables per statement at 999.
const edgeBatchCols = 12
const edgeBatchSize = 999 / edgeBatchCols

// InsertEdgeBatch inserts many edges for (project, ref) in batched
// multi-row INSERTs.
func (s *Store) InsertEdgeBatch(projectID, ref string, edges []*Edge) error {
	for i := 0; i < len(edges); i += edgeBatchSize {
		end := i + edgeBatchSize
		if end > len(edges) {
			end = len(edges)
		}
		if err := s.insertEdgeChunk(projectID, ref, edges[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertEdgeChunk(projectID, ref string, batch []*Edge) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO symbol_edges (project_id, ref, from_symbol_id, to_symbol_id, to_name, edge_type, edge_provider, resolution_outcome, confidence_bucket, confidence_weight, source_file, source_line) VALUES `)
	args := make([]any, 0, len(batch)*edgeBatchCols)
	for i, e := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args, projectID, ref, e.FromSymbolID, nullableString(e.ToSymbolID), nullableString(e.ToName),
			e.EdgeType, e.EdgeProvider, e.ResolutionOutcome, e.ConfidenceBucket, e.ConfidenceWeight, e.SourceFile, e.SourceLine)
	}

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("insert edge batch: %w", err)
	}
	return nil
}

// FindEdgesFrom returns edges outbound from fromSymbolID, optionally
// filtered by edge type.
func (s *Store) FindEdgesFrom(projectID, ref, fromSymbolID string, edgeTypes []string) ([]*Edge, error) {
	query := `SELECT ` + edgeCols + ` FROM symbol_edges WHERE project_id=? AND ref=? AND from_symbol_id=?`
	args := []any{projectID, ref, fromSymbolID}
	query, args = appendTypeFilter(query, args, edgeTypes)
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("find edges from: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

// FindEdgesTo returns edges inbound to toSymbolID, optionally filtered by
// edge type.
func (s *Store) FindEdgesTo(projectID, ref, toSymbolID string, edgeTypes []string) ([]*Edge, error) {
	query := `SELECT ` + edgeCols + ` FROM symbol_edges WHERE project_id=? AND ref=? AND to_symbol_id=?`
	args := []any{projectID, ref, toSymbolID}
	query, args = appendTypeFilter(query, args, edgeTypes)
	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("find edges to: %w", err)
	}
	defer rows.Close()
	return scanEdges(rows)
}

func appendTypeFilter(query string, args []any, edgeTypes []string) (string, []any) {
	if len(edgeTypes) == 0 {
		return query, args
	}
	placeholders := make([]string, len(edgeTypes))
	for i, t := range edgeTypes {
		placeholders[i] = "?"
		args = append(args, t)
	}
	return query + " AND edge_type IN (" + strings.Join(placeholders, ",") + ")", args
}

// CountEdgesFromOrTo reports whether any edges reference fromOrToSymbolID
// at all, used to produce no_edges_available.
func (s *Store) CountEdgesFromOrTo(projectID, ref, symbolID string) (int, error) {
	var count int
	err := s.q.QueryRow(
		`SELECT COUNT(*) FROM symbol_edges WHERE project_id=? AND ref=? AND (from_symbol_id=? OR to_symbol_id=?)`,
		projectID, ref, symbolID, symbolID,
	).Scan(&count)
	return count, err
}

// DeleteEdgesBySourceFile removes every edge whose source_file matches
// path for (project, ref), used before re-extracting a changed file.
func (s *Store) DeleteEdgesBySourceFile(projectID, ref, path string) error {
	_, err := s.q.Exec(`DELETE FROM symbol_edges WHERE project_id=? AND ref=? AND source_file=?`, projectID, ref, path)
	return err
}

// DeleteEdgesByRef removes every edge for (project, ref).
func (s *Store) DeleteEdgesByRef(projectID, ref string) error {
	_, err := s.q.Exec(`DELETE FROM symbol_edges WHERE project_id=? AND ref=?`, projectID, ref)
	return err
}
