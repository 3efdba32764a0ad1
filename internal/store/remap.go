package store

import "fmt"

// remappedTables lists every table keyed by project_id that an import
// must rewrite when the bundle's project_id differs from the local one
// computed from the current repo_root.
var remappedTables = []string{
	"file_manifest",
	"symbol_relations",
	"symbol_edges",
	"branch_tombstones",
	"branch_state",
	"index_jobs",
	"worktree_leases",
}

// RemapProjectID rewrites every project_id column from oldID to newID
// across all per-ref tables in a single transaction, then upserts the
// projects row itself under newID. Used after importing a bundle whose
// embedded project_id (computed from the exporting machine's repo_root)
// differs from the project_id this machine computes for the same data
// directory's new home.
func (s *Store) RemapProjectID(oldID, newID string) error {
	if oldID == newID {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin remap transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range remappedTables {
		if _, err := tx.Exec(fmt.Sprintf("UPDATE %s SET project_id=? WHERE project_id=?", table), newID, oldID); err != nil {
			return fmt.Errorf("remap %s: %w", table, err)
		}
	}
	if _, err := tx.Exec(`UPDATE projects SET project_id=? WHERE project_id=?`, newID, oldID); err != nil {
		return fmt.Errorf("remap projects row: %w", err)
	}
	if _, err := tx.Exec(`UPDATE known_workspaces SET project_id=? WHERE project_id=?`, newID, oldID); err != nil {
		return fmt.Errorf("remap known_workspaces: %w", err)
	}

	return tx.Commit()
}
