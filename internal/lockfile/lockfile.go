// Package lockfile serializes publish cycles across processes with an
// advisory lock file. Invocations are separate process runs, so the lock
// lives on disk rather than in memory.
package lockfile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"syscall"

	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// ErrHeld reports that another process holds the lock.
var ErrHeld = errors.New("another publish cycle is already running")

// Lock is a held advisory lock.
type Lock struct {
	path string
}

// Acquire takes the lock at path, creating it exclusively with this process's
// pid. A lock whose recorded pid is no longer alive is considered stale and
// broken with a warning.
func Acquire(path string) (*Lock, error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, writeErr := fmt.Fprintf(f, "%d\n", os.Getpid())
			closeErr := f.Close()
			if writeErr != nil || closeErr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("write lock file: %w", errors.Join(writeErr, closeErr))
			}
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if !breakIfStale(path) {
			return nil, fmt.Errorf("%w (lock file %s)", ErrHeld, path)
		}
		// Stale lock removed; retry once.
	}
	return nil, fmt.Errorf("%w (lock file %s)", ErrHeld, path)
}

// Release removes the lock file. Safe to call once per acquired lock.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// breakIfStale removes the lock when its recorded pid no longer exists.
// Returns true when the lock was removed.
func breakIfStale(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false
	}
	if pidAlive(pid) {
		return false
	}
	slog.Warn("Breaking stale lock", logfields.Path(path), slog.Int("pid", pid))
	return os.Remove(path) == nil
}

// pidAlive probes for process existence with signal 0.
func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
