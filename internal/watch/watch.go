// Package watch recursively watches a workspace for file changes via real
// OS filesystem events and debounces them into a single trigger, replacing
// the teacher's adaptive-interval polling loop with fsnotify.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cruxe/cruxe/internal/discover"
	"github.com/fsnotify/fsnotify"
)

// TriggerFunc is called once per settled batch of changes.
type TriggerFunc func(ctx context.Context) error

// Watcher watches a repo root for changes, directories included, and
// invokes Trigger after Debounce has elapsed with no further events.
type Watcher struct {
	root     string
	trigger  TriggerFunc
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

const defaultDebounce = 500 * time.Millisecond

// New creates a Watcher rooted at root. debounce <= 0 uses defaultDebounce.
func New(root string, trigger TriggerFunc, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	root, err = filepath.Abs(root)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{root: root, trigger: trigger, debounce: debounce, fsw: fsw}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree recursively registers every non-ignored directory under root with
// fsnotify, skipping the directory names in discover.IGNORE_PATTERNS so the
// watcher never wakes up for churn inside node_modules, .git, build output,
// and the like. The .gitignore matching that discover.Discover also applies
// is not used here.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && discover.IGNORE_PATTERNS[name] {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run blocks until ctx is cancelled, invoking Trigger once per debounced
// batch of filesystem events. A newly created directory is added to the
// watch set on the fly so the watcher covers files added after startup.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if !discover.IGNORE_PATTERNS[filepath.Base(ev.Name)] {
						if err := w.fsw.Add(ev.Name); err != nil {
							slog.Warn("watch.add_dir", "path", ev.Name, "err", err)
						}
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch.fsnotify", "err", err)

		case <-timerC:
			timerC = nil
			if err := w.trigger(ctx); err != nil {
				slog.Warn("watch.trigger", "root", w.root, "err", err)
			}
		}
	}
}
