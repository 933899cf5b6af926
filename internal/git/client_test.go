package git

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var testAuthor = Signature{Name: "tester", Email: "t@example.com"}

// initWorkRepo creates a non-bare repository with one seed commit.
func initWorkRepo(t *testing.T) (string, *gogit.Repository) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repo: %v", err)
	}
	writeAndCommit(t, repo, dir, "seed.md", "seed", "seed")
	return dir, repo
}

func writeAndCommit(t *testing.T, repo *gogit.Repository, dir, name, content, msg string) plumbing.Hash {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	hash, err := wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	return hash
}

func TestSnapshot_CreatesRevision(t *testing.T) {
	dir, repo := initWorkRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "post.md"), []byte("---\ntitle: Hello\n---\nhi\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := NewClient(dir)
	hash, err := c.Snapshot("RELEASE 2024-05-01", testAuthor)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if hash == "" {
		t.Fatalf("expected revision hash")
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Hash().String() != hash {
		t.Fatalf("expected HEAD %s got %s", hash, head.Hash())
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("commit object: %v", err)
	}
	if commit.Message != "RELEASE 2024-05-01" {
		t.Fatalf("unexpected message %q", commit.Message)
	}
}

func TestSnapshot_UnchangedTree_ReturnsNoChanges(t *testing.T) {
	dir, _ := initWorkRepo(t)

	c := NewClient(dir)
	if _, err := c.Snapshot("again", testAuthor); !errors.Is(err, ErrNoChanges) {
		t.Fatalf("expected ErrNoChanges, got %v", err)
	}

	// And no new revision was created.
	last, err := c.Last()
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last.Message != "seed" {
		t.Fatalf("expected seed revision to remain HEAD, got %q", last.Message)
	}
}

func TestSnapshot_StagesDeletions(t *testing.T) {
	dir, _ := initWorkRepo(t)
	if err := os.Remove(filepath.Join(dir, "seed.md")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	c := NewClient(dir)
	if _, err := c.Snapshot("drop seed", testAuthor); err != nil {
		t.Fatalf("snapshot after delete: %v", err)
	}
	clean, err := c.IsClean()
	if err != nil {
		t.Fatalf("isclean: %v", err)
	}
	if !clean {
		t.Fatalf("expected clean tree after snapshot")
	}
}

func TestSnapshot_NotARepository(t *testing.T) {
	c := NewClient(t.TempDir())
	if _, err := c.Snapshot("x", testAuthor); err == nil {
		t.Fatalf("expected error for non-repository dir")
	}
}

func TestHeadAndLast(t *testing.T) {
	dir, repo := initWorkRepo(t)
	want := writeAndCommit(t, repo, dir, "b.md", "b", "second")

	c := NewClient(dir)
	hash, branch, err := c.Head()
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if hash != want.String() {
		t.Fatalf("expected head %s got %s", want, hash)
	}
	if branch != "master" && branch != "main" {
		t.Fatalf("unexpected branch %q", branch)
	}

	last, err := c.Last()
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if last == nil || last.Message != "second" {
		t.Fatalf("unexpected last revision %+v", last)
	}
}

func TestPush_ToBareRemote(t *testing.T) {
	dir, repo := initWorkRepo(t)
	bare := filepath.Join(t.TempDir(), "remote.git")
	if _, err := gogit.PlainInit(bare, true); err != nil {
		t.Fatalf("init bare: %v", err)
	}
	if _, err := repo.CreateRemote(&gitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}}); err != nil {
		t.Fatalf("create remote: %v", err)
	}

	c := NewClient(dir)
	if err := c.Push(Remote{Name: "origin"}); err != nil {
		t.Fatalf("push: %v", err)
	}

	// Second push of the same revision is an up-to-date no-op, not an error.
	if err := c.Push(Remote{Name: "origin"}); err != nil {
		t.Fatalf("repeat push: %v", err)
	}
}

func TestPush_NonFastForward_ClassifiedRejected(t *testing.T) {
	// Seed a bare remote from one working repo, then push a diverging
	// revision from a second clone.
	seedDir, seedRepo := initWorkRepo(t)
	bare := filepath.Join(t.TempDir(), "remote.git")
	if _, err := gogit.PlainInit(bare, true); err != nil {
		t.Fatalf("init bare: %v", err)
	}
	if _, err := seedRepo.CreateRemote(&gitcfg.RemoteConfig{Name: "origin", URLs: []string{bare}}); err != nil {
		t.Fatalf("create remote: %v", err)
	}
	if err := seedRepo.Push(&gogit.PushOptions{RemoteName: "origin"}); err != nil {
		t.Fatalf("seed push: %v", err)
	}

	cloneDir := filepath.Join(t.TempDir(), "clone")
	cloneRepo, err := gogit.PlainClone(cloneDir, false, &gogit.CloneOptions{URL: bare})
	if err != nil {
		t.Fatalf("clone: %v", err)
	}

	// Remote advances past the clone.
	writeAndCommit(t, seedRepo, seedDir, "ahead.md", "x", "ahead")
	if err := seedRepo.Push(&gogit.PushOptions{RemoteName: "origin"}); err != nil {
		t.Fatalf("advance push: %v", err)
	}

	// Clone diverges and pushes.
	writeAndCommit(t, cloneRepo, cloneDir, "diverge.md", "y", "diverge")
	pushErr := NewClient(cloneDir).Push(Remote{Name: "origin"})
	if pushErr == nil {
		t.Fatalf("expected non-fast-forward rejection")
	}
	var remoteErr *RemoteError
	if !errors.As(pushErr, &remoteErr) {
		t.Fatalf("expected *RemoteError, got %T", pushErr)
	}
	if !remoteErr.Rejected {
		t.Fatalf("expected rejection classification, err=%v", remoteErr)
	}
	if remoteErr.Remote.Name != "origin" {
		t.Fatalf("expected remote identified, got %+v", remoteErr.Remote)
	}
}

func TestPush_UnknownRemote(t *testing.T) {
	dir, _ := initWorkRepo(t)
	err := NewClient(dir).Push(Remote{Name: "nowhere"})
	if err == nil {
		t.Fatalf("expected error for unknown remote")
	}
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *RemoteError, got %T", err)
	}
	if remoteErr.Rejected {
		t.Fatalf("unknown remote must not classify as rejection")
	}
}
