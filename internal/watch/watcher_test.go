package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, dir, exclude string, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := NewWatcher(dir, exclude, debounce)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})
	go func() { _ = w.Run(ctx) }()
	return w
}

func waitTrigger(t *testing.T, w *Watcher, timeout time.Duration) (string, bool) {
	t.Helper()
	select {
	case path := <-w.Triggers():
		return path, true
	case <-time.After(timeout):
		return "", false
	}
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, "", 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "post.md")
		require.NoError(t, os.WriteFile(name, []byte("draft"), 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	_, ok := waitTrigger(t, w, 2*time.Second)
	require.True(t, ok, "expected one trigger for the burst")

	// The burst collapsed; nothing else is pending once the window passed.
	_, ok = waitTrigger(t, w, 300*time.Millisecond)
	require.False(t, ok, "burst should coalesce into a single trigger")
}

func TestWatcher_SeparateBurstsSeparateTriggers(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, "", 50*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o600))
	_, ok := waitTrigger(t, w, 2*time.Second)
	require.True(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("b"), 0o600))
	path, ok := waitTrigger(t, w, 2*time.Second)
	require.True(t, ok)
	require.Equal(t, "b.md", filepath.Base(path))
}

func TestWatcher_NewSubdirectoryIsCovered(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, "", 50*time.Millisecond)

	sub := filepath.Join(dir, "posts")
	require.NoError(t, os.Mkdir(sub, 0o750))
	_, ok := waitTrigger(t, w, 2*time.Second)
	require.True(t, ok, "directory creation triggers a cycle")

	require.NoError(t, os.WriteFile(filepath.Join(sub, "nested.md"), []byte("n"), 0o600))
	path, ok := waitTrigger(t, w, 2*time.Second)
	require.True(t, ok, "writes inside new subdirectories trigger cycles")
	require.Equal(t, "nested.md", filepath.Base(path))
}

func TestWatcher_IgnoresExcludedTree(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	output := filepath.Join(content, "public")
	require.NoError(t, os.MkdirAll(output, 0o750))

	w := startWatcher(t, content, output, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(output, "index.html"), []byte("x"), 0o600))
	_, ok := waitTrigger(t, w, 400*time.Millisecond)
	require.False(t, ok, "output tree changes must not retrigger builds")
}

func TestWatcher_IgnoresHiddenEntries(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir, "", 50*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".draft.swp"), []byte("x"), 0o600))
	_, ok := waitTrigger(t, w, 400*time.Millisecond)
	require.False(t, ok)
}
