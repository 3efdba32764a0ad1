package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/cruxe/cruxe/internal/cxerr"
)

// SchemaVersion is the schema version this binary writes and requires on
// open. Bumping it without a migration path means existing data
// directories surface schema_migration_required until reindexed.
const SchemaVersion = 1

const schemaVersionKey = "schema_version"

// ensureSchemaVersion checks the on-disk schema_meta row against
// SchemaVersion. A fresh database has no row yet and is stamped with the
// current version. A mismatch returns *cxerr.SchemaMigrationRequired; the
// tool dispatcher translates that into the public index_incompatible
// protocol error.
func (s *Store) ensureSchemaVersion() error {
	var value string
	err := s.db.QueryRow(`SELECT value FROM schema_meta WHERE key = ?`, schemaVersionKey).Scan(&value)
	switch {
	case err == nil:
		var current int
		if _, scanErr := fmt.Sscanf(value, "%d", &current); scanErr != nil {
			return fmt.Errorf("parse schema_meta version %q: %w", value, scanErr)
		}
		if current != SchemaVersion {
			return &cxerr.SchemaMigrationRequired{Current: current, Required: SchemaVersion}
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		_, insErr := s.db.Exec(
			`INSERT INTO schema_meta(key, value) VALUES (?, ?)`,
			schemaVersionKey, fmt.Sprintf("%d", SchemaVersion),
		)
		return insErr
	default:
		return fmt.Errorf("read schema_meta: %w", err)
	}
}

// CheckIntegrity runs SQLite's quick_check pragma, used by health_check
// and the `doctor` CLI subcommand.
func (s *Store) CheckIntegrity() (string, error) {
	var result string
	if err := s.db.QueryRow(`PRAGMA quick_check`).Scan(&result); err != nil {
		return "", fmt.Errorf("quick_check: %w", err)
	}
	return result, nil
}

// SchemaStats summarizes row counts per symbol kind and edge type for a
// project+ref, used by `doctor` and `index_status` to give a quick sense
// of what has been indexed.
type SchemaStats struct {
	SymbolKinds []KindCount
	EdgeTypes   []TypeCount
	FileCount   int
}

// KindCount is a symbol kind with its count.
type KindCount struct {
	Kind  string
	Count int
}

// TypeCount is an edge type with its count.
type TypeCount struct {
	Type  string
	Count int
}

// GetSchemaStats returns row-count statistics scoped to (project, ref).
func (s *Store) GetSchemaStats(projectID, ref string) (*SchemaStats, error) {
	stats := &SchemaStats{}

	rows, err := s.db.Query(
		`SELECT kind, COUNT(*) FROM symbol_relations WHERE project_id=? AND ref=? GROUP BY kind ORDER BY COUNT(*) DESC`,
		projectID, ref,
	)
	if err != nil {
		return nil, fmt.Errorf("schema symbol kinds: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.Kind, &kc.Count); err != nil {
			return nil, err
		}
		stats.SymbolKinds = append(stats.SymbolKinds, kc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows2, err := s.db.Query(
		`SELECT edge_type, COUNT(*) FROM symbol_edges WHERE project_id=? AND ref=? GROUP BY edge_type ORDER BY COUNT(*) DESC`,
		projectID, ref,
	)
	if err != nil {
		return nil, fmt.Errorf("schema edge types: %w", err)
	}
	defer rows2.Close()
	for rows2.Next() {
		var tc TypeCount
		if err := rows2.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		stats.EdgeTypes = append(stats.EdgeTypes, tc)
	}
	if err := rows2.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM file_manifest WHERE project_id=? AND ref=?`, projectID, ref,
	).Scan(&stats.FileCount); err != nil {
		return nil, fmt.Errorf("schema file count: %w", err)
	}

	return stats, nil
}
