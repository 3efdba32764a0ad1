package jobmgr

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/singleflight"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/indexer"
	"github.com/cruxe/cruxe/internal/store"
)

// Environment variable names the worker process reads on startup.
const (
	EnvProjectID     = "CRUXE_PROJECT_ID"
	EnvDataDir       = "CRUXE_STORAGE_DATA_DIR"
	EnvRepoRoot      = "CRUXE_REPO_ROOT"
	EnvJobID         = "CRUXE_JOB_ID"
	EnvMode          = "CRUXE_MODE"
	EnvExplicitRef   = "CRUXE_EXPLICIT_REF"
	EnvProgressToken = "CRUXE_PROGRESS_TOKEN"
)

// StartRequest describes one index_repo/sync_repo call's inputs.
type StartRequest struct {
	ProjectID     string
	DataDir       string
	RepoRoot      string
	Mode          indexer.Mode
	ExplicitRef   string
	ProgressToken string
}

// Manager spawns worker processes for indexing jobs and tracks them via
// the store's index_jobs table. WorkerPath is the path to the
// cruxe-indexworker binary; it is resolved once at Manager construction
// rather than per spawn.
type Manager struct {
	Store      *store.Store
	WorkerPath string

	// starts collapses concurrent StartJob calls for the same project
	// into a single spawn: two MCP clients racing index_repo/sync_repo
	// against the same project would otherwise both pass the
	// ActiveJobForProject check before either's InsertJob row lands.
	starts singleflight.Group
}

// New builds a Manager for the given worker binary path.
func New(s *store.Store, workerPath string) *Manager {
	return &Manager{Store: s, WorkerPath: workerPath}
}

// ResolveWorkerPath finds the cruxe-indexworker binary: CRUXE_INDEX_BIN
// overrides it explicitly, otherwise it's expected alongside this
// process's own executable (the install layout cruxe ships).
func ResolveWorkerPath() (string, error) {
	if override := os.Getenv("CRUXE_INDEX_BIN"); override != "" {
		return override, nil
	}
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve own executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(self), "cruxe-indexworker"), nil
}

// StartJob records the job row before spawning the worker (per C8's
// manager-records-before-spawn rule) and starts the worker process
// detached, returning its job id immediately without waiting for
// completion. Returns CodeIndexInProgress/CodeSyncInProgress if a job is
// already active for the project.
func (m *Manager) StartJob(req StartRequest) (string, error) {
	jobID, err, _ := m.starts.Do(req.ProjectID, func() (interface{}, error) {
		return m.startJobLocked(req)
	})
	if err != nil {
		return "", err
	}
	return jobID.(string), nil
}

// startJobLocked does the actual active-job check, row insert, and
// worker spawn for StartJob. Only ever runs one-at-a-time per
// project id, serialized by StartJob's singleflight.Group.
func (m *Manager) startJobLocked(req StartRequest) (string, error) {
	active, err := m.Store.ActiveJobForProject(req.ProjectID)
	if err != nil {
		return "", fmt.Errorf("check active job: %w", err)
	}
	if active != nil {
		code := cxerr.CodeIndexInProgress
		if active.Mode == string(indexer.ModeIncremental) {
			code = cxerr.CodeSyncInProgress
		}
		return "", cxerr.New(code, fmt.Sprintf("job %s already %s for project %s", active.JobID, active.Status, req.ProjectID))
	}

	jobID := NewJobID()
	mode := req.Mode
	if mode == "" {
		mode = indexer.ModeIncremental
	}

	if err := m.Store.InsertJob(&store.IndexJob{
		JobID:         jobID,
		ProjectID:     req.ProjectID,
		Ref:           ids.DefaultRef,
		Mode:          string(mode),
		Status:        "queued",
		ProgressToken: req.ProgressToken,
	}); err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}

	cmd := exec.Command(m.WorkerPath)
	cmd.Env = append(os.Environ(),
		EnvProjectID+"="+req.ProjectID,
		EnvDataDir+"="+req.DataDir,
		EnvRepoRoot+"="+req.RepoRoot,
		EnvJobID+"="+jobID,
		EnvMode+"="+string(mode),
		EnvExplicitRef+"="+req.ExplicitRef,
		EnvProgressToken+"="+req.ProgressToken,
	)
	if err := cmd.Start(); err != nil {
		_ = m.Store.FinishJob(jobID, "failed", 0)
		return "", fmt.Errorf("spawn worker: %w", err)
	}
	// The worker is detached: the manager does not wait for it and the
	// spawned process updates its own job row via internal/indexer.
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Warn("jobmgr.worker_exited_nonzero", "job_id", jobID, "err", err)
		}
	}()

	return jobID, nil
}

// InterruptedRecoveryReport summarizes jobs reconciled at server start.
type InterruptedRecoveryReport struct {
	RecoveredJobIDs []string
}

// RecoverInterruptedJobs marks every job row left "running" with no live
// PID as "failed", per spec's startup reconciliation step. Surfaced via
// health_check and index_status as interrupted_recovery_report.
func RecoverInterruptedJobs(s *store.Store) (*InterruptedRecoveryReport, error) {
	running, err := s.RunningJobs()
	if err != nil {
		return nil, fmt.Errorf("list running jobs: %w", err)
	}

	report := &InterruptedRecoveryReport{}
	for _, job := range running {
		if processAlive(job.PID) {
			continue
		}
		if err := s.FinishJob(job.JobID, "failed", 0); err != nil {
			return nil, fmt.Errorf("fail interrupted job %s: %w", job.JobID, err)
		}
		report.RecoveredJobIDs = append(report.RecoveredJobIDs, job.JobID)
		slog.Warn("jobmgr.interrupted_job_recovered", "job_id", job.JobID, "project_id", job.ProjectID, "pid", job.PID)
	}
	return report, nil
}

// processAlive reports whether pid names a live process, via signal 0
// (no-op delivery; POSIX guarantees it only checks permission/existence).
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
