// Package overlay implements the staging→overlay publish protocol: a
// ref's text indices are written into a transient staging directory and
// then installed atomically via directory rename, so queries never
// observe a partially-written index.
package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/textindex"
)

// Publish describes the result of a successful commit: the installed
// overlay directory and, if one existed before, the backup it replaced.
type Publish struct {
	OverlayDir string
	BackupDir  string
}

// CreateStagingIndexSet creates (if absent) the staging directory for
// sync_id and opens the three text indices inside it, returning both
// the staging path and the opened set the indexer pipeline writes
// symbols/snippets/files documents into.
func CreateStagingIndexSet(dataDir, syncID string) (string, *textindex.IndexSet, error) {
	dir := ids.StagingDir(dataDir, syncID)
	set, err := textindex.OpenAt(dir)
	if err != nil {
		return "", nil, fmt.Errorf("open staging index set: %w", err)
	}
	return dir, set, nil
}

// CommitStagingToOverlay atomically publishes the staging directory for
// sync_id as the overlay for ref, via rename. If an overlay already
// exists for ref, it is renamed to a backup path first so a failed
// post-publish metadata commit can restore it via Rollback.
func CommitStagingToOverlay(dataDir, syncID, ref string) (*Publish, error) {
	staging := ids.StagingDir(dataDir, syncID)
	if _, err := os.Stat(staging); err != nil {
		return nil, cxerr.New(cxerr.CodeOverlayNotReady, fmt.Sprintf("staging directory not found for sync_id=%s", syncID))
	}

	overlayDir := ids.OverlayDirForRef(dataDir, ref)
	if err := os.MkdirAll(filepath.Dir(overlayDir), 0o755); err != nil {
		return nil, fmt.Errorf("create overlay parent: %w", err)
	}

	var backupDir string
	if _, err := os.Stat(overlayDir); err == nil {
		backup := overlayDir + ".bak." + syncID
		if _, err := os.Stat(backup); err == nil {
			if err := os.RemoveAll(backup); err != nil {
				return nil, fmt.Errorf("remove stale backup: %w", err)
			}
		}
		if err := os.Rename(overlayDir, backup); err != nil {
			return nil, fmt.Errorf("rename overlay to backup: %w", err)
		}
		backupDir = backup
	}

	if err := os.Rename(staging, overlayDir); err != nil {
		if backupDir != "" {
			_ = os.Rename(backupDir, overlayDir)
		}
		return nil, fmt.Errorf("rename staging to overlay: %w", err)
	}

	return &Publish{OverlayDir: overlayDir, BackupDir: backupDir}, nil
}

// FinalizeOverlayPublish deletes the backup left by a successful publish,
// called once the caller's post-publish metadata commit (SQL write)
// succeeds.
func FinalizeOverlayPublish(p *Publish) error {
	if p.BackupDir == "" {
		return nil
	}
	if _, err := os.Stat(p.BackupDir); err != nil {
		return nil
	}
	return os.RemoveAll(p.BackupDir)
}

// RollbackOverlayPublish restores the pre-publish overlay after a failed
// post-publish metadata commit: the newly published overlay is removed
// and the backup is renamed back into place.
func RollbackOverlayPublish(p *Publish) error {
	if _, err := os.Stat(p.OverlayDir); err == nil {
		if err := os.RemoveAll(p.OverlayDir); err != nil {
			return fmt.Errorf("remove published overlay: %w", err)
		}
	}
	if p.BackupDir == "" {
		return nil
	}
	if _, err := os.Stat(p.BackupDir); err != nil {
		return nil
	}
	return os.Rename(p.BackupDir, p.OverlayDir)
}

// RollbackStaging removes the staging directory for sync_id, used when a
// sync is interrupted before commit.
func RollbackStaging(dataDir, syncID string) error {
	dir := ids.StagingDir(dataDir, syncID)
	if _, err := os.Stat(dir); err != nil {
		return nil
	}
	return os.RemoveAll(dir)
}

// CleanupStaleStaging removes staging directories whose mtime is at or
// before cutoff, returning the removed sync_id names in sorted order.
func CleanupStaleStaging(dataDir string, cutoff time.Time) ([]string, error) {
	root := ids.StagingRoot(dataDir)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read staging root: %w", err)
	}

	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		if !info.ModTime().After(cutoff) {
			path := filepath.Join(root, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				return nil, fmt.Errorf("remove stale staging %s: %w", entry.Name(), err)
			}
			removed = append(removed, entry.Name())
		}
	}
	sort.Strings(removed)
	return removed, nil
}

// CreateOverlayDir creates the overlay directory for ref directly
// (bypassing staging), used by tests and by import promotion when
// installing a bundle's overlay tree verbatim.
func CreateOverlayDir(dataDir, ref string) (string, error) {
	dir := ids.OverlayDirForRef(dataDir, ref)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
