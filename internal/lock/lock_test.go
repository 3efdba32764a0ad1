package lock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireCreatesLockOutsideDataDir(t *testing.T) {
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "state", "project-a")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	l, err := Acquire(dataDir, "test_lock")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	if _, err := os.Stat(l.Path()); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if strings.HasPrefix(l.Path(), dataDir) {
		t.Fatalf("lock path %s should not live under data dir %s", l.Path(), dataDir)
	}

	content, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(content), "operation=test_lock") {
		t.Fatalf("lock file missing operation metadata: %s", content)
	}
}

func TestLockCanBeReacquiredAfterRelease(t *testing.T) {
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "state")

	first, err := Acquire(dataDir, "first")
	if err != nil {
		t.Fatalf("Acquire first: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	second, err := Acquire(dataDir, "second")
	if err != nil {
		t.Fatalf("Acquire second: %v", err)
	}
	defer second.Release()

	content, err := os.ReadFile(second.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(content), "operation=second") {
		t.Fatalf("lock file missing operation=second: %s", content)
	}
}

func TestAcquireBusyReturnsMaintenanceLockBusy(t *testing.T) {
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "state")

	held, err := Acquire(dataDir, "first")
	if err != nil {
		t.Fatalf("Acquire first: %v", err)
	}
	defer held.Release()

	_, err = Acquire(dataDir, "second")
	if err == nil {
		t.Fatalf("expected second Acquire to fail while lock is held")
	}
}

func TestLockPathStableAcrossDataDirSwap(t *testing.T) {
	tmp := t.TempDir()
	dataRoot := filepath.Join(tmp, "state")
	dataDir := filepath.Join(dataRoot, "project-a")
	stagedDir := filepath.Join(dataRoot, "staged-project")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("MkdirAll dataDir: %v", err)
	}
	if err := os.MkdirAll(stagedDir, 0o755); err != nil {
		t.Fatalf("MkdirAll stagedDir: %v", err)
	}

	before, err := ProjectLockPath(dataDir)
	if err != nil {
		t.Fatalf("ProjectLockPath before: %v", err)
	}

	backupDir := filepath.Join(dataRoot, "project-a-backup")
	if err := os.Rename(dataDir, backupDir); err != nil {
		t.Fatalf("rename to backup: %v", err)
	}
	if err := os.Rename(stagedDir, dataDir); err != nil {
		t.Fatalf("rename staged into place: %v", err)
	}

	after, err := ProjectLockPath(dataDir)
	if err != nil {
		t.Fatalf("ProjectLockPath after: %v", err)
	}

	if before != after {
		t.Fatalf("lock path changed across data dir swap: %s != %s", before, after)
	}
}

func TestLockPathStableBeforeAndAfterDataDirExists(t *testing.T) {
	tmp := t.TempDir()
	dataDir := filepath.Join(tmp, "state", "project-a")

	beforeCreate, err := ProjectLockPath(dataDir)
	if err != nil {
		t.Fatalf("ProjectLockPath before create: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	afterCreate, err := ProjectLockPath(dataDir)
	if err != nil {
		t.Fatalf("ProjectLockPath after create: %v", err)
	}

	if beforeCreate != afterCreate {
		t.Fatalf("lock path changed once data dir came into existence: %s != %s", beforeCreate, afterCreate)
	}
}
