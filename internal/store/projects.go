package store

// Project represents a registered, indexed project.
type Project struct {
	ProjectID     string
	RepoRoot      string
	DisplayName   string
	DefaultRef    string
	VCSMode       string
	SchemaVersion int
	ParserVersion string
	CreatedAt     string
	UpdatedAt     string
}

// UpsertProject creates or updates a project record. CreatedAt is only
// set on first insert; every call refreshes UpdatedAt.
func (s *Store) UpsertProject(p *Project) error {
	now := Now()
	_, err := s.q.Exec(`
		INSERT INTO projects (project_id, repo_root, display_name, default_ref, vcs_mode, schema_version, parser_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			repo_root=excluded.repo_root,
			display_name=excluded.display_name,
			default_ref=excluded.default_ref,
			vcs_mode=excluded.vcs_mode,
			schema_version=excluded.schema_version,
			parser_version=excluded.parser_version,
			updated_at=excluded.updated_at`,
		p.ProjectID, p.RepoRoot, p.DisplayName, p.DefaultRef, p.VCSMode, p.SchemaVersion, p.ParserVersion, now, now)
	return err
}

// GetProject returns a project by id.
func (s *Store) GetProject(projectID string) (*Project, error) {
	var p Project
	err := s.q.QueryRow(`
		SELECT project_id, repo_root, display_name, default_ref, vcs_mode, schema_version, parser_version, created_at, updated_at
		FROM projects WHERE project_id=?`, projectID).
		Scan(&p.ProjectID, &p.RepoRoot, &p.DisplayName, &p.DefaultRef, &p.VCSMode, &p.SchemaVersion, &p.ParserVersion, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns every registered project.
func (s *Store) ListProjects() ([]*Project, error) {
	rows, err := s.q.Query(`
		SELECT project_id, repo_root, display_name, default_ref, vcs_mode, schema_version, parser_version, created_at, updated_at
		FROM projects ORDER BY repo_root`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ProjectID, &p.RepoRoot, &p.DisplayName, &p.DefaultRef, &p.VCSMode, &p.SchemaVersion, &p.ParserVersion, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// DeleteProject deletes a project and all associated rows (CASCADE).
func (s *Store) DeleteProject(projectID string) error {
	_, err := s.q.Exec("DELETE FROM projects WHERE project_id=?", projectID)
	return err
}

// FileManifestEntry is one row of the per-ref file manifest.
type FileManifestEntry struct {
	Path        string
	Filename    string
	Language    string
	ContentHash string
	SizeBytes   int64
	UpdatedAt   string
	ContentHead string
}

// UpsertFileManifestEntry records or updates a file's manifest row.
func (s *Store) UpsertFileManifestEntry(projectID, ref string, e *FileManifestEntry) error {
	_, err := s.q.Exec(`
		INSERT INTO file_manifest (project_id, ref, path, filename, language, content_hash, size_bytes, updated_at, content_head)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, ref, path) DO UPDATE SET
			filename=excluded.filename,
			language=excluded.language,
			content_hash=excluded.content_hash,
			size_bytes=excluded.size_bytes,
			updated_at=excluded.updated_at,
			content_head=excluded.content_head`,
		projectID, ref, e.Path, e.Filename, e.Language, e.ContentHash, e.SizeBytes, e.UpdatedAt, e.ContentHead)
	return err
}

// GetFileManifest returns the full manifest for (project, ref) keyed by path.
func (s *Store) GetFileManifest(projectID, ref string) (map[string]*FileManifestEntry, error) {
	rows, err := s.q.Query(`
		SELECT path, filename, language, content_hash, size_bytes, updated_at, content_head
		FROM file_manifest WHERE project_id=? AND ref=?`, projectID, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[string]*FileManifestEntry)
	for rows.Next() {
		e := &FileManifestEntry{}
		var head *string
		if err := rows.Scan(&e.Path, &e.Filename, &e.Language, &e.ContentHash, &e.SizeBytes, &e.UpdatedAt, &head); err != nil {
			return nil, err
		}
		if head != nil {
			e.ContentHead = *head
		}
		result[e.Path] = e
	}
	return result, rows.Err()
}

// DeleteFileManifestEntry removes one path's manifest row for (project, ref).
func (s *Store) DeleteFileManifestEntry(projectID, ref, path string) error {
	_, err := s.q.Exec("DELETE FROM file_manifest WHERE project_id=? AND ref=? AND path=?", projectID, ref, path)
	return err
}

// DeleteFileManifestByRef removes every manifest row for (project, ref),
// used when a ref is evicted entirely.
func (s *Store) DeleteFileManifestByRef(projectID, ref string) error {
	_, err := s.q.Exec("DELETE FROM file_manifest WHERE project_id=? AND ref=?", projectID, ref)
	return err
}

// UpsertKnownWorkspace records (or refreshes last_used_at for) an
// auto-discovered workspace root, used by the LRU bound in
// max_auto_workspaces enforcement.
func (s *Store) UpsertKnownWorkspace(repoRoot, projectID string) error {
	_, err := s.q.Exec(`
		INSERT INTO known_workspaces (repo_root, project_id, last_used_at) VALUES (?, ?, ?)
		ON CONFLICT(repo_root) DO UPDATE SET project_id=excluded.project_id, last_used_at=excluded.last_used_at`,
		repoRoot, projectID, Now())
	return err
}

// KnownWorkspace is one registered auto-discovery root.
type KnownWorkspace struct {
	RepoRoot   string
	ProjectID  string
	LastUsedAt string
}

// ListKnownWorkspacesLRU returns known workspaces ordered oldest-used first,
// the order eviction consults when enforcing max_auto_workspaces.
func (s *Store) ListKnownWorkspacesLRU() ([]*KnownWorkspace, error) {
	rows, err := s.q.Query(`SELECT repo_root, project_id, last_used_at FROM known_workspaces ORDER BY last_used_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []*KnownWorkspace
	for rows.Next() {
		w := &KnownWorkspace{}
		if err := rows.Scan(&w.RepoRoot, &w.ProjectID, &w.LastUsedAt); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// DeleteKnownWorkspace removes a workspace from the LRU set.
func (s *Store) DeleteKnownWorkspace(repoRoot string) error {
	_, err := s.q.Exec("DELETE FROM known_workspaces WHERE repo_root=?", repoRoot)
	return err
}
