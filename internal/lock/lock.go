// Package lock provides cross-process exclusive maintenance locking for
// a project's data directory. The lock file lives in a sibling "locks"
// directory next to the data root rather than inside the data directory
// itself, so that it survives a data-dir swap during import (the data
// directory gets renamed out from under an in-flight operation, but the
// lock path is derived from the data directory's *normalized* path, not
// its inode, so the lock stays put).
package lock

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/zeebo/xxh3"

	"github.com/cruxe/cruxe/internal/cxerr"
	"github.com/cruxe/cruxe/internal/ids"
)

const (
	lockDirName    = "locks"
	lockFilePrefix = "state-maintenance-"
	lockFileSuffix = ".lock"
)

// ProjectLock is a held exclusive lock on a project's data directory.
// The zero value is not usable; obtain one via Acquire.
type ProjectLock struct {
	flock     *flock.Flock
	path      string
	operation string
}

// Path returns the lock file's filesystem path.
func (l *ProjectLock) Path() string { return l.path }

// Release unlocks and closes the underlying lock file. Safe to call once;
// the lock file itself is left on disk for reuse by the next acquirer.
func (l *ProjectLock) Release() error {
	return l.flock.Unlock()
}

// ProjectLockPath computes the lock file path for a data directory
// without acquiring it. The path is stable whether or not dataDir exists
// yet, and stable across a rename-swap of dataDir (e.g. import promoting
// a staged directory into place), because it is derived from dataDir's
// normalized path content, hashed, rather than from the directory's
// current identity.
func ProjectLockPath(dataDir string) (string, error) {
	normalized, err := ids.CanonicalPath(dataDir)
	if err != nil {
		return "", fmt.Errorf("normalize data dir: %w", err)
	}
	anchorDir := filepath.Dir(normalized)
	if anchorDir == normalized {
		return "", cxerr.New(cxerr.CodeInternalError, fmt.Sprintf("data directory has no parent: %s", normalized))
	}

	h := xxh3.New()
	_, _ = h.Write([]byte(normalized))
	hexSum := hex.EncodeToString(h.Sum(nil))
	fileName := lockFilePrefix + hexSum[:16] + lockFileSuffix
	return filepath.Join(anchorDir, lockDirName, fileName), nil
}

// Acquire takes an exclusive, non-blocking lock for the named operation
// on dataDir. On contention it returns a *cxerr.Error with
// CodeMaintenanceLockBusy; per the error handling policy, lock contention
// is reported and never retried automatically by this layer.
func Acquire(dataDir, operation string) (*ProjectLock, error) {
	lockPath, err := ProjectLockPath(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("try lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, cxerr.New(cxerr.CodeMaintenanceLockBusy,
			fmt.Sprintf("operation %q is already in progress on %s", operation, dataDir))
	}

	if err := writeLockMetadata(lockPath, operation, dataDir); err != nil {
		_ = fl.Unlock()
		return nil, err
	}

	return &ProjectLock{flock: fl, path: lockPath, operation: operation}, nil
}

func writeLockMetadata(lockPath, operation, dataDir string) error {
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file for metadata: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f,
		"operation=%s\npid=%d\ndata_dir=%s\ntimestamp=%s\n",
		operation, os.Getpid(), dataDir, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}
