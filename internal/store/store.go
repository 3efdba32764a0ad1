// Package store wraps the embedded per-project SQLite database: schema,
// pragmas, transactions, and the CRUD surface the indexer, query engine,
// job manager, and eviction layer build on.
package store

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both contexts.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection for project state.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

// Config controls the pragmas applied at open.
type Config struct {
	BusyTimeoutMS int
	CacheSizeKB   int
}

func (c Config) withDefaults() Config {
	if c.BusyTimeoutMS <= 0 {
		c.BusyTimeoutMS = 5000
	}
	if c.CacheSizeKB <= 0 {
		c.CacheSizeKB = 2000
	}
	return c
}

// OpenInDataDir opens (creating if necessary) state.db under dataDir with
// the required pragmas: WAL journal mode, synchronous=NORMAL,
// foreign_keys=ON, and the configured busy_timeout/cache_size.
func OpenInDataDir(dataDir string, cfg Config) (*Store, error) {
	return OpenPath(filepath.Join(dataDir, "state.db"), cfg)
}

// OpenPath opens a SQLite database at the given path.
func OpenPath(dbPath string, cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	dsn := fmt.Sprintf(
		"%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)&_pragma=cache_size(-%d)",
		dbPath, cfg.BusyTimeoutMS, cfg.CacheSizeKB,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory SQLite database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	s := &Store{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction executes fn within a single SQLite transaction.
// The callback receives a transaction-scoped Store — all store methods called on
// txStore use the transaction. The receiver's q field is never mutated, so
// concurrent read-only handlers (using s.q == s.db) are unaffected.
func (s *Store) WithTransaction(fn func(txStore *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB (for advanced queries, health checks).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the filesystem path the store was opened at.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		project_id TEXT PRIMARY KEY,
		repo_root TEXT NOT NULL,
		display_name TEXT,
		default_ref TEXT NOT NULL DEFAULT 'live',
		vcs_mode TEXT NOT NULL DEFAULT 'none',
		schema_version INTEGER NOT NULL,
		parser_version TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS file_manifest (
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		path TEXT NOT NULL,
		filename TEXT NOT NULL,
		language TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		content_head TEXT,
		PRIMARY KEY (project_id, ref, path)
	);
	CREATE INDEX IF NOT EXISTS idx_file_manifest_lang ON file_manifest(project_id, ref, language);

	CREATE TABLE IF NOT EXISTS symbol_relations (
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		path TEXT NOT NULL,
		language TEXT NOT NULL,
		symbol_id TEXT NOT NULL,
		symbol_stable_id TEXT NOT NULL,
		name TEXT NOT NULL,
		qualified_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		signature TEXT,
		line_start INTEGER NOT NULL,
		line_end INTEGER NOT NULL,
		parent_symbol_id TEXT,
		visibility TEXT,
		content TEXT,
		PRIMARY KEY (project_id, ref, path, symbol_id)
	);
	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbol_relations(project_id, ref, name);
	CREATE INDEX IF NOT EXISTS idx_symbols_qname ON symbol_relations(project_id, ref, qualified_name);
	CREATE INDEX IF NOT EXISTS idx_symbols_path ON symbol_relations(project_id, ref, path);
	CREATE INDEX IF NOT EXISTS idx_symbols_stable ON symbol_relations(project_id, ref, symbol_stable_id);

	CREATE TABLE IF NOT EXISTS symbol_edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		from_symbol_id TEXT NOT NULL,
		to_symbol_id TEXT,
		to_name TEXT,
		edge_type TEXT NOT NULL,
		edge_provider TEXT NOT NULL,
		resolution_outcome TEXT NOT NULL,
		confidence_bucket TEXT NOT NULL,
		confidence_weight REAL NOT NULL,
		source_file TEXT NOT NULL,
		source_line INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON symbol_edges(project_id, ref, from_symbol_id, edge_type);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON symbol_edges(project_id, ref, to_symbol_id, edge_type);
	CREATE INDEX IF NOT EXISTS idx_edges_source_file ON symbol_edges(project_id, ref, source_file);

	CREATE TABLE IF NOT EXISTS branch_tombstones (
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		path TEXT NOT NULL,
		tombstone_type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (project_id, ref, path)
	);

	CREATE TABLE IF NOT EXISTS branch_state (
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		last_accessed_at TEXT NOT NULL,
		is_default_branch INTEGER NOT NULL DEFAULT 0,
		overlay_dir TEXT,
		PRIMARY KEY (project_id, ref)
	);

	CREATE TABLE IF NOT EXISTS index_jobs (
		job_id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		files_scanned INTEGER NOT NULL DEFAULT 0,
		files_indexed INTEGER NOT NULL DEFAULT 0,
		symbols_extracted INTEGER NOT NULL DEFAULT 0,
		changed_files INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		duration_ms INTEGER,
		progress_token TEXT,
		pid INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_project_status ON index_jobs(project_id, status);

	CREATE TABLE IF NOT EXISTS known_workspaces (
		repo_root TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		last_used_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS worktree_leases (
		project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
		ref TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		refcount INTEGER NOT NULL DEFAULT 0,
		last_used_at TEXT NOT NULL,
		PRIMARY KEY (project_id, ref)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.ensureSchemaVersion()
}

// Now returns the current time in ISO 8601 / RFC3339 format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
