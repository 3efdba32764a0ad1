package store

import "database/sql"

// Tombstone marks a path removed from a ref so query results hide it.
type Tombstone struct {
	Path          string
	TombstoneType string
	CreatedAt     string
}

// InsertTombstone records a path as removed for (project, ref).
func (s *Store) InsertTombstone(projectID, ref, path, tombstoneType string) error {
	_, err := s.q.Exec(`
		INSERT INTO branch_tombstones (project_id, ref, path, tombstone_type, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, ref, path) DO UPDATE SET tombstone_type=excluded.tombstone_type, created_at=excluded.created_at`,
		projectID, ref, path, tombstoneType, Now())
	return err
}

// TombstonedPaths returns the full set of tombstoned paths for (project,
// ref), the shape C12's per-query memoized filter loads once per query.
func (s *Store) TombstonedPaths(projectID, ref string) (map[string]bool, error) {
	rows, err := s.q.Query(`SELECT path FROM branch_tombstones WHERE project_id=? AND ref=?`, projectID, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := map[string]bool{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		result[path] = true
	}
	return result, rows.Err()
}

// DeleteTombstone removes a path's tombstone, used when a path reappears.
func (s *Store) DeleteTombstone(projectID, ref, path string) error {
	_, err := s.q.Exec(`DELETE FROM branch_tombstones WHERE project_id=? AND ref=? AND path=?`, projectID, ref, path)
	return err
}

// BranchState is per-ref lifecycle metadata driving eviction.
type BranchState struct {
	Ref             string
	Status          string
	LastAccessedAt  string
	IsDefaultBranch bool
	OverlayDir      string
}

// UpsertBranchState creates or refreshes a ref's lifecycle row.
func (s *Store) UpsertBranchState(projectID string, b *BranchState) error {
	isDefault := 0
	if b.IsDefaultBranch {
		isDefault = 1
	}
	_, err := s.q.Exec(`
		INSERT INTO branch_state (project_id, ref, status, last_accessed_at, is_default_branch, overlay_dir)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, ref) DO UPDATE SET
			status=excluded.status, last_accessed_at=excluded.last_accessed_at,
			is_default_branch=excluded.is_default_branch, overlay_dir=excluded.overlay_dir`,
		projectID, b.Ref, b.Status, b.LastAccessedAt, isDefault, nullableString(b.OverlayDir))
	return err
}

// TouchBranchState refreshes last_accessed_at for a ref, called on every
// successful query/tool call scoped to that ref.
func (s *Store) TouchBranchState(projectID, ref string) error {
	_, err := s.q.Exec(`UPDATE branch_state SET last_accessed_at=? WHERE project_id=? AND ref=?`, Now(), projectID, ref)
	return err
}

// GetBranchState returns the lifecycle row for (project, ref), or nil if
// the ref has never been indexed.
func (s *Store) GetBranchState(projectID, ref string) (*BranchState, error) {
	var b BranchState
	var isDefault int
	var overlayDir sql.NullString
	err := s.q.QueryRow(
		`SELECT ref, status, last_accessed_at, is_default_branch, overlay_dir FROM branch_state WHERE project_id=? AND ref=?`,
		projectID, ref,
	).Scan(&b.Ref, &b.Status, &b.LastAccessedAt, &isDefault, &overlayDir)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	b.IsDefaultBranch = isDefault != 0
	b.OverlayDir = overlayDir.String
	return &b, nil
}

// ListBranchStates returns every ref's lifecycle row for a project, the
// set list_refs reports and eviction scans.
func (s *Store) ListBranchStates(projectID string) ([]*BranchState, error) {
	rows, err := s.q.Query(
		`SELECT ref, status, last_accessed_at, is_default_branch, overlay_dir FROM branch_state WHERE project_id=? ORDER BY ref`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*BranchState
	for rows.Next() {
		var b BranchState
		var isDefault int
		var overlayDir sql.NullString
		if err := rows.Scan(&b.Ref, &b.Status, &b.LastAccessedAt, &isDefault, &overlayDir); err != nil {
			return nil, err
		}
		b.IsDefaultBranch = isDefault != 0
		b.OverlayDir = overlayDir.String
		result = append(result, &b)
	}
	return result, rows.Err()
}

// SetBranchStatus updates just the status column, used by eviction to
// mark a ref "evicted" and by import to mark existing refs "stale".
func (s *Store) SetBranchStatus(projectID, ref, status string) error {
	_, err := s.q.Exec(`UPDATE branch_state SET status=? WHERE project_id=? AND ref=?`, status, projectID, ref)
	return err
}

// SetAllBranchesStale marks every branch_state row for a project stale,
// called after import when the promoted data supersedes query caches.
func (s *Store) SetAllBranchesStale(projectID string) error {
	_, err := s.q.Exec(`UPDATE branch_state SET status='stale' WHERE project_id=?`, projectID)
	return err
}

// WorktreeLease guards overlay eviction for an actively-checked-out ref.
type WorktreeLease struct {
	Ref         string
	Status      string
	RefCount    int
	LastUsedAt string
}

// AcquireWorktreeLease increments the refcount for (project, ref),
// creating the row if absent.
func (s *Store) AcquireWorktreeLease(projectID, ref string) error {
	_, err := s.q.Exec(`
		INSERT INTO worktree_leases (project_id, ref, status, refcount, last_used_at)
		VALUES (?, ?, 'active', 1, ?)
		ON CONFLICT(project_id, ref) DO UPDATE SET refcount=refcount+1, last_used_at=excluded.last_used_at, status='active'`,
		projectID, ref, Now())
	return err
}

// ReleaseWorktreeLease decrements the refcount for (project, ref), never
// going below zero.
func (s *Store) ReleaseWorktreeLease(projectID, ref string) error {
	_, err := s.q.Exec(`
		UPDATE worktree_leases SET refcount=MAX(0, refcount-1), last_used_at=? WHERE project_id=? AND ref=?`,
		Now(), projectID, ref)
	return err
}

// GetWorktreeLease returns the lease row for (project, ref), or nil if
// none exists (equivalent to refcount 0).
func (s *Store) GetWorktreeLease(projectID, ref string) (*WorktreeLease, error) {
	var l WorktreeLease
	err := s.q.QueryRow(
		`SELECT ref, status, refcount, last_used_at FROM worktree_leases WHERE project_id=? AND ref=?`,
		projectID, ref,
	).Scan(&l.Ref, &l.Status, &l.RefCount, &l.LastUsedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
