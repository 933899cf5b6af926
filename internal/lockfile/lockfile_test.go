package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr)

	require.NoError(t, lock.Release())
	_, statErr = os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestAcquire_HeldByLiveProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.lock")

	lock, err := Acquire(path)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	// The current process is alive, so the lock is not stale.
	_, err = Acquire(path)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrHeld))
}

func TestAcquire_BreaksStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.lock")
	// Pid 1 exists but we can't be its owner... use an implausibly high pid instead.
	require.NoError(t, os.WriteFile(path, []byte("999999999\n"), 0o600))

	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestAcquire_UnparseableLockIsNotBroken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.lock")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0o600))

	_, err := Acquire(path)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrHeld))
}

func TestRelease_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publish.lock")
	lock, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())
}
