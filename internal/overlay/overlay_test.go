package overlay

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cruxe/cruxe/internal/ids"
)

func TestStagingCommitMovesDirectoryToOverlay(t *testing.T) {
	dir := t.TempDir()
	syncID := "sync-123"
	ref := "feat/auth"

	staging, _, err := CreateStagingIndexSet(dir, syncID)
	if err != nil {
		t.Fatalf("CreateStagingIndexSet: %v", err)
	}
	if _, err := os.Stat(staging); err != nil {
		t.Fatalf("expected staging dir to exist: %v", err)
	}

	publish, err := CommitStagingToOverlay(dir, syncID, ref)
	if err != nil {
		t.Fatalf("CommitStagingToOverlay: %v", err)
	}
	if _, err := os.Stat(staging); err == nil {
		t.Fatalf("expected staging dir to be gone after commit")
	}
	if _, err := os.Stat(publish.OverlayDir); err != nil {
		t.Fatalf("expected overlay dir to exist: %v", err)
	}
	if publish.BackupDir != "" {
		t.Fatalf("expected no backup dir, got %q", publish.BackupDir)
	}
	for _, sub := range []string{"symbols", "snippets", "files"} {
		if _, err := os.Stat(filepath.Join(publish.OverlayDir, sub)); err != nil {
			t.Fatalf("expected %s subdir in published overlay: %v", sub, err)
		}
	}
}

func TestStagingCommitWithExistingOverlayCreatesBackupAndFinalizeRemovesIt(t *testing.T) {
	dir := t.TempDir()
	ref := "feat/auth"
	syncID := "sync-backup"

	overlayDir, err := CreateOverlayDir(dir, ref)
	if err != nil {
		t.Fatalf("CreateOverlayDir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(overlayDir, "old.marker"), []byte("old"), 0o644); err != nil {
		t.Fatalf("write old marker: %v", err)
	}

	staging, _, err := CreateStagingIndexSet(dir, syncID)
	if err != nil {
		t.Fatalf("CreateStagingIndexSet: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staging, "new.marker"), []byte("new"), 0o644); err != nil {
		t.Fatalf("write new marker: %v", err)
	}

	publish, err := CommitStagingToOverlay(dir, syncID, ref)
	if err != nil {
		t.Fatalf("CommitStagingToOverlay: %v", err)
	}
	if _, err := os.Stat(filepath.Join(publish.OverlayDir, "new.marker")); err != nil {
		t.Fatalf("expected new.marker in published overlay: %v", err)
	}
	if publish.BackupDir == "" {
		t.Fatalf("expected backup dir to be set")
	}
	if _, err := os.Stat(filepath.Join(publish.BackupDir, "old.marker")); err != nil {
		t.Fatalf("expected old.marker in backup: %v", err)
	}

	if err := FinalizeOverlayPublish(publish); err != nil {
		t.Fatalf("FinalizeOverlayPublish: %v", err)
	}
	if _, err := os.Stat(publish.BackupDir); err == nil {
		t.Fatalf("expected backup dir to be removed after finalize")
	}
}

func TestRollbackOverlayPublishRestoresPreviousOverlay(t *testing.T) {
	dir := t.TempDir()
	ref := "feat/auth"
	syncID := "sync-rollback-publish"

	overlayDir, err := CreateOverlayDir(dir, ref)
	if err != nil {
		t.Fatalf("CreateOverlayDir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(overlayDir, "old.marker"), []byte("old"), 0o644); err != nil {
		t.Fatalf("write old marker: %v", err)
	}

	staging, _, err := CreateStagingIndexSet(dir, syncID)
	if err != nil {
		t.Fatalf("CreateStagingIndexSet: %v", err)
	}
	if err := os.WriteFile(filepath.Join(staging, "new.marker"), []byte("new"), 0o644); err != nil {
		t.Fatalf("write new marker: %v", err)
	}

	publish, err := CommitStagingToOverlay(dir, syncID, ref)
	if err != nil {
		t.Fatalf("CommitStagingToOverlay: %v", err)
	}
	if _, err := os.Stat(filepath.Join(publish.OverlayDir, "new.marker")); err != nil {
		t.Fatalf("expected new.marker before rollback: %v", err)
	}

	if err := RollbackOverlayPublish(publish); err != nil {
		t.Fatalf("RollbackOverlayPublish: %v", err)
	}
	if _, err := os.Stat(overlayDir); err != nil {
		t.Fatalf("expected overlay dir to be restored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(overlayDir, "old.marker")); err != nil {
		t.Fatalf("expected old.marker restored: %v", err)
	}
	if _, err := os.Stat(filepath.Join(overlayDir, "new.marker")); err == nil {
		t.Fatalf("expected new.marker to be gone after rollback")
	}
}

func TestRollbackRemovesStagingDirectory(t *testing.T) {
	dir := t.TempDir()
	syncID := "sync-rollback"

	staging, _, err := CreateStagingIndexSet(dir, syncID)
	if err != nil {
		t.Fatalf("CreateStagingIndexSet: %v", err)
	}
	if _, err := os.Stat(staging); err != nil {
		t.Fatalf("expected staging dir to exist: %v", err)
	}

	if err := RollbackStaging(dir, syncID); err != nil {
		t.Fatalf("RollbackStaging: %v", err)
	}
	if _, err := os.Stat(staging); err == nil {
		t.Fatalf("expected staging dir to be gone after rollback")
	}
}

func TestCleanupStaleStagingRemovesOlderDirsOnly(t *testing.T) {
	dir := t.TempDir()
	oldID := "sync-old"
	newID := "sync-new"

	if _, _, err := CreateStagingIndexSet(dir, oldID); err != nil {
		t.Fatalf("CreateStagingIndexSet(old): %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(20 * time.Millisecond)
	if _, _, err := CreateStagingIndexSet(dir, newID); err != nil {
		t.Fatalf("CreateStagingIndexSet(new): %v", err)
	}

	removed, err := CleanupStaleStaging(dir, cutoff)
	if err != nil {
		t.Fatalf("CleanupStaleStaging: %v", err)
	}
	if len(removed) != 1 || removed[0] != oldID {
		t.Fatalf("expected [%s], got %v", oldID, removed)
	}
	if _, err := os.Stat(ids.StagingDir(dir, oldID)); err == nil {
		t.Fatalf("expected old staging dir removed")
	}
	if _, err := os.Stat(ids.StagingDir(dir, newID)); err != nil {
		t.Fatalf("expected new staging dir to survive: %v", err)
	}
}

func TestCommitStagingToOverlayMissingStagingReturnsOverlayNotReady(t *testing.T) {
	dir := t.TempDir()
	if _, err := CommitStagingToOverlay(dir, "nonexistent", "main"); err == nil {
		t.Fatalf("expected error for missing staging dir")
	}
}
