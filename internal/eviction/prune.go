// Package eviction implements overlay pruning: removing the on-disk
// text-index overlay for refs that have not been queried within a
// retention window, freeing disk space without touching the SQL rows
// that still remember the ref existed.
package eviction

import (
	"fmt"
	"os"
	"time"

	"github.com/cruxe/cruxe/internal/ids"
	"github.com/cruxe/cruxe/internal/store"
)

// Report tallies what Prune did, for the CLI to print per spec.md §4.15's
// "skip if..." branches.
type Report struct {
	Removed          []string
	KeptActiveLease  int
	KeptRecent       int
	KeptUnsafePath   int
	KeptRemoveError  int
}

// Prune evicts every non-default branch's overlay whose last_accessed_at
// is at or before cutoff, unless an active worktree lease with a
// positive refcount still holds it, or its resolved overlay directory
// does not canonicalize to a path under one of dataDir's allowed
// overlay roots. A removed overlay's branch_state row is marked
// "evicted"; nothing else about the row (or its SQL-backed symbol/file
// rows) is touched.
func Prune(st *store.Store, dataDir, projectID string, cutoff time.Time) (Report, error) {
	var report Report

	dataDirCanonical, err := ids.CanonicalPath(dataDir)
	if err != nil {
		return report, fmt.Errorf("canonicalize data dir: %w", err)
	}

	branches, err := st.ListBranchStates(projectID)
	if err != nil {
		return report, fmt.Errorf("list branch states: %w", err)
	}

	for _, branch := range branches {
		if branch.IsDefaultBranch {
			continue
		}

		lastAccessed, err := parseTimestamp(branch.LastAccessedAt)
		if err != nil {
			report.KeptRecent++
			continue
		}
		if lastAccessed.After(cutoff) {
			report.KeptRecent++
			continue
		}

		lease, err := st.GetWorktreeLease(projectID, branch.Ref)
		if err != nil {
			return report, fmt.Errorf("get worktree lease for %s: %w", branch.Ref, err)
		}
		if lease != nil && lease.Status == "active" && lease.RefCount > 0 {
			report.KeptActiveLease++
			continue
		}

		overlayDir := resolveOverlayDir(dataDir, branch.Ref, branch.OverlayDir)
		safeOverlayDir, ok, err := validatePruneTarget(dataDirCanonical, overlayDir)
		if err != nil {
			return report, fmt.Errorf("validate prune target for %s: %w", branch.Ref, err)
		}
		if !ok {
			report.KeptUnsafePath++
			continue
		}

		if _, err := os.Stat(safeOverlayDir); err == nil {
			if err := os.RemoveAll(safeOverlayDir); err != nil {
				report.KeptRemoveError++
				continue
			}
		}
		if err := st.SetBranchStatus(projectID, branch.Ref, "evicted"); err != nil {
			return report, fmt.Errorf("mark %s evicted: %w", branch.Ref, err)
		}
		report.Removed = append(report.Removed, branch.Ref)
	}

	return report, nil
}

func resolveOverlayDir(dataDir, ref, overlayDir string) string {
	if overlayDir == "" {
		return ids.OverlayDirForRef(dataDir, ref)
	}
	return overlayDir
}

// validatePruneTarget mirrors the original prune_overlays command's
// validate_prune_target: a not-yet-existing overlay dir is trivially
// safe to "remove" (os.Stat will just find nothing), but an existing one
// must canonicalize to a path under an allowed overlay root before
// Prune will touch it.
func validatePruneTarget(dataDirCanonical, overlayDir string) (string, bool, error) {
	if _, err := os.Stat(overlayDir); err != nil {
		return overlayDir, true, nil
	}
	canonical, err := ids.CanonicalPath(overlayDir)
	if err != nil {
		return "", false, fmt.Errorf("resolve %s: %w", overlayDir, err)
	}
	if !ids.IsOverlayDirAllowed(dataDirCanonical, canonical) {
		return "", false, nil
	}
	return canonical, true, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
