package mcpserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/jobmgr"
	"github.com/cruxe/cruxe/internal/semantic"
	"github.com/cruxe/cruxe/internal/store"
)

// RegistryConfig controls auto-workspace registration: which roots a
// caller-supplied workspace path must fall under, and how many distinct
// workspaces may be auto-registered before index_repo starts refusing new
// ones (the oldest-used is never evicted automatically; the caller must
// free one up, per CLI flag --max-auto-workspaces).
type RegistryConfig struct {
	Home               string
	AutoWorkspace      bool
	AllowedRoots       []string
	MaxAutoWorkspaces  int
	// Semantic is the optional vector-search provider backing the hybrid
	// retrieval channel. Nil means search_code stays lexical-only.
	Semantic semantic.Provider
}

// project bundles one project's open store, resolved data dir, and job
// manager; kept open for the server's lifetime once first touched.
type project struct {
	id       string
	dataDir  string
	store    *store.Store
	jobs     *jobmgr.Manager
	semantic semantic.Provider
}

// ID returns the project's deterministic project id.
func (p *project) ID() string { return p.id }

// DataDir returns the project's resolved <home>/.cruxe/data/<project_id>
// directory.
func (p *project) DataDir() string { return p.dataDir }

// Store returns the project's open *store.Store, for CLI subcommands
// (state export/import, prune-overlays) that operate on it directly
// rather than through a registered tool.
func (p *project) Store() *store.Store { return p.store }

// Registry opens and caches a *store.Store per project, enforcing the
// workspace allow-list and auto-registration limit before a new project
// is onboarded.
type Registry struct {
	cfg RegistryConfig

	mu       sync.Mutex
	registry *store.Store // dedicated registry DB tracking known_workspaces globally
	projects map[string]*project
}

// NewRegistry opens the shared workspace registry database at
// <data_root>/_registry/state.db and returns a Registry ready to resolve
// per-project stores on demand.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	regDir := filepath.Join(ids.DataRoot(cfg.Home), "_registry")
	if err := os.MkdirAll(regDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace registry dir: %w", err)
	}
	reg, err := store.OpenInDataDir(regDir, store.Config{})
	if err != nil {
		return nil, fmt.Errorf("open workspace registry: %w", err)
	}
	return &Registry{cfg: cfg, registry: reg, projects: make(map[string]*project)}, nil
}

// Close releases every open per-project store and the registry store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		p.store.Close()
	}
	return r.registry.Close()
}

// Resolve returns the project for repoRoot, auto-registering it if
// autoWorkspace is enabled and the root passes the allow-list and
// workspace-count limit. An already-registered workspace is always
// resolved regardless of the allow-list, since it was validated at
// registration time.
func (r *Registry) Resolve(repoRoot string) (*project, error) {
	canonical, err := ids.CanonicalPath(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("canonicalize workspace: %w", err)
	}
	projectID, err := ids.ProjectID(canonical)
	if err != nil {
		return nil, fmt.Errorf("compute project id: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.projects[projectID]; ok {
		_ = r.registry.UpsertKnownWorkspace(canonical, projectID)
		return p, nil
	}

	known, err := r.registry.ListKnownWorkspacesLRU()
	if err != nil {
		return nil, fmt.Errorf("list known workspaces: %w", err)
	}
	alreadyKnown := false
	for _, w := range known {
		if w.ProjectID == projectID {
			alreadyKnown = true
			break
		}
	}

	if !alreadyKnown {
		if !r.cfg.AutoWorkspace {
			return nil, cxerr.New(cxerr.CodeWorkspaceNotRegistered, fmt.Sprintf("workspace %s is not registered; run index_repo with auto-workspace enabled or register it explicitly", canonical))
		}
		if !r.isAllowedRoot(canonical) {
			return nil, cxerr.New(cxerr.CodeWorkspaceNotAllowed, fmt.Sprintf("workspace %s is outside the configured allowed roots", canonical))
		}
		if r.cfg.MaxAutoWorkspaces > 0 && len(known) >= r.cfg.MaxAutoWorkspaces {
			return nil, cxerr.New(cxerr.CodeWorkspaceLimitExceeded, fmt.Sprintf("auto-workspace limit of %d reached", r.cfg.MaxAutoWorkspaces))
		}
	}

	dataDir := ids.DataDir(r.cfg.Home, projectID)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create project data dir: %w", err)
	}
	st, err := store.OpenInDataDir(dataDir, store.Config{})
	if err != nil {
		return nil, fmt.Errorf("open project store: %w", err)
	}

	workerPath, err := jobmgr.ResolveWorkerPath()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("resolve index worker: %w", err)
	}

	p := &project{id: projectID, dataDir: dataDir, store: st, jobs: jobmgr.New(st, workerPath), semantic: r.cfg.Semantic}
	r.projects[projectID] = p
	if err := r.registry.UpsertKnownWorkspace(canonical, projectID); err != nil {
		return nil, fmt.Errorf("register workspace: %w", err)
	}
	return p, nil
}

// KnownWorkspaces returns every workspace the registry has ever
// auto-registered or explicitly registered, oldest-used first.
func (r *Registry) KnownWorkspaces() ([]*store.KnownWorkspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.ListKnownWorkspacesLRU()
}

func (r *Registry) isAllowedRoot(canonical string) bool {
	if len(r.cfg.AllowedRoots) == 0 {
		return true
	}
	for _, root := range r.cfg.AllowedRoots {
		rel, err := filepath.Rel(root, canonical)
		if err != nil {
			continue
		}
		if rel == "." || !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	return false
}
