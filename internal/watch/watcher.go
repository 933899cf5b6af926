// Package watch drives repeat publish cycles from filesystem events and
// periodic schedules.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// Watcher monitors a content tree and emits debounced triggers when files
// change. Bursts of events within the debounce window collapse into a single
// trigger.
type Watcher struct {
	dir      string
	exclude  string // absolute path skipped entirely, typically the output dir
	debounce time.Duration

	watcher  *fsnotify.Watcher
	triggers chan string

	mu       sync.Mutex
	timer    *time.Timer
	lastPath string
}

// NewWatcher watches dir recursively. Paths under exclude are ignored.
func NewWatcher(dir, exclude string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to resolve watch directory: %w", err)
	}
	absExclude := ""
	if exclude != "" {
		if absExclude, err = filepath.Abs(exclude); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("failed to resolve exclude directory: %w", err)
		}
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	w := &Watcher{
		dir:      absDir,
		exclude:  absExclude,
		debounce: debounce,
		watcher:  fsw,
		triggers: make(chan string, 1),
	}
	if err := w.addTree(absDir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Triggers delivers one value per debounced change burst. The value is the
// path of the last event in the burst.
func (w *Watcher) Triggers() <-chan string {
	return w.triggers
}

// Run processes filesystem events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("Watching content tree", logfields.Path(w.dir))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.onEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Content watcher error", logfields.Error(err))
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}

func (w *Watcher) onEvent(event fsnotify.Event) {
	if w.ignored(event.Name) {
		return
	}

	// New directories must join the watch set for recursive coverage.
	if event.Op&fsnotify.Create == fsnotify.Create {
		if err := w.addTree(event.Name); err != nil {
			slog.Debug("Could not extend watch set", logfields.Path(event.Name), logfields.Error(err))
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	slog.Debug("Content change detected", logfields.Path(event.Name))

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastPath = event.Name
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.emit)
}

func (w *Watcher) emit() {
	w.mu.Lock()
	path := w.lastPath
	w.mu.Unlock()

	select {
	case w.triggers <- path:
	default:
		// A trigger is already pending; the next cycle covers this change.
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) ignored(path string) bool {
	if w.exclude != "" {
		if abs, err := filepath.Abs(path); err == nil {
			if abs == w.exclude || strings.HasPrefix(abs, w.exclude+string(filepath.Separator)) {
				return true
			}
		}
	}
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func (w *Watcher) addTree(root string) error {
	info, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	return filepath.WalkDir(info, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) && path != w.dir {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
