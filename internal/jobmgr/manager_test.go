package jobmgr

import (
	"os/exec"
	"testing"

	"go.uber.org/goleak"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/store"
)

// TestMain asserts StartJob's detached `go func() { cmd.Wait() }()` never
// outlives the test that spawned it.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.UpsertProject(&store.Project{ProjectID: "proj1", RepoRoot: "/repo", SchemaVersion: 1, ParserVersion: "1"}); err != nil {
		t.Fatalf("upsert project: %v", err)
	}
	return s
}

func TestStartJobRecordsRowBeforeWorkerFinishes(t *testing.T) {
	trueBin, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no 'true' binary available in test environment")
	}
	s := newTestStore(t)
	mgr := New(s, trueBin)

	jobID, err := mgr.StartJob(StartRequest{ProjectID: "proj1", DataDir: t.TempDir(), RepoRoot: "/repo"})
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	job, err := s.GetJob(jobID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job == nil {
		t.Fatal("expected job row to exist immediately after StartJob returns")
	}
}

func TestStartJobRejectsWhenAlreadyActive(t *testing.T) {
	s := newTestStore(t)
	if err := s.InsertJob(&store.IndexJob{JobID: "existing", ProjectID: "proj1", Ref: "live", Mode: "full", Status: "running"}); err != nil {
		t.Fatalf("seed existing job: %v", err)
	}

	mgr := New(s, "/bin/true")
	_, err := mgr.StartJob(StartRequest{ProjectID: "proj1", DataDir: t.TempDir(), RepoRoot: "/repo"})
	if err == nil {
		t.Fatal("expected StartJob to reject a project with an active job")
	}
	if cxerr.CodeOf(err) != cxerr.CodeIndexInProgress {
		t.Errorf("code = %q, want %q", cxerr.CodeOf(err), cxerr.CodeIndexInProgress)
	}
}

func TestResolveWorkerPathHonorsOverride(t *testing.T) {
	t.Setenv("CRUXE_INDEX_BIN", "/opt/cruxe/cruxe-indexworker")
	path, err := ResolveWorkerPath()
	if err != nil {
		t.Fatalf("ResolveWorkerPath: %v", err)
	}
	if path != "/opt/cruxe/cruxe-indexworker" {
		t.Fatalf("path = %q, want override value", path)
	}
}

func TestRecoverInterruptedJobsFailsDeadPIDs(t *testing.T) {
	s := newTestStore(t)
	if err := s.InsertJob(&store.IndexJob{JobID: "dead-job", ProjectID: "proj1", Ref: "live", Mode: "full", Status: "running", PID: findUnusedPID(t)}); err != nil {
		t.Fatalf("seed dead job: %v", err)
	}

	report, err := RecoverInterruptedJobs(s)
	if err != nil {
		t.Fatalf("RecoverInterruptedJobs: %v", err)
	}
	if len(report.RecoveredJobIDs) != 1 || report.RecoveredJobIDs[0] != "dead-job" {
		t.Fatalf("RecoveredJobIDs = %v, want [dead-job]", report.RecoveredJobIDs)
	}

	job, err := s.GetJob("dead-job")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != "failed" {
		t.Fatalf("status = %q, want failed", job.Status)
	}
}

// findUnusedPID returns a PID very unlikely to be alive: the maximum
// plausible value on a typical /proc/sys/kernel/pid_max Linux system,
// which signal(0) will report ESRCH for.
func findUnusedPID(t *testing.T) int {
	t.Helper()
	return 1 << 22
}
