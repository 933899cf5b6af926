package git

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/sitepub/internal/config"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// ErrNoChanges reports that the working copy matches the last revision, so no
// new revision was created. Callers treat this as a graceful no-op.
var ErrNoChanges = errors.New("working copy unchanged since last revision")

// Signature identifies the revision author.
type Signature struct {
	Name  string
	Email string
}

// Client operates on the site repository rooted at a fixed directory.
type Client struct {
	dir  string
	auth *config.AuthConfig

	// now is replaceable for deterministic commit timestamps in tests.
	now func() time.Time
}

// NewClient creates a client for the repository at dir.
func NewClient(dir string) *Client {
	return &Client{dir: dir, now: time.Now}
}

// WithAuth sets push authentication.
func (c *Client) WithAuth(auth *config.AuthConfig) *Client {
	c.auth = auth
	return c
}

// Dir returns the repository root.
func (c *Client) Dir() string { return c.dir }

// open returns the repository, with a friendlier error when dir is not one.
func (c *Client) open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(c.dir)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s is not a git repository", c.dir)
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

// Snapshot stages every change in the working copy (content and output trees
// alike) and commits it with the given message. Returns ErrNoChanges when the
// working copy already matches HEAD.
func (c *Client) Snapshot(message string, author Signature) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}

	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("stage changes: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return "", fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return "", ErrNoChanges
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{Name: author.Name, Email: author.Email, When: c.now()},
	})
	if err != nil {
		return "", fmt.Errorf("commit revision: %w", err)
	}

	slog.Info("Revision created",
		logfields.Revision(hash.String()[:8]),
		slog.String("message", message))
	return hash.String(), nil
}

// Head returns the current HEAD commit hash and branch short name.
func (c *Client) Head() (hash, branch string, err error) {
	repo, err := c.open()
	if err != nil {
		return "", "", err
	}
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", "", fmt.Errorf("repository has no commits yet")
		}
		return "", "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), ref.Name().Short(), nil
}

// IsClean reports whether the working copy matches HEAD.
func (c *Client) IsClean() (bool, error) {
	repo, err := c.open()
	if err != nil {
		return false, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("worktree status: %w", err)
	}
	return status.IsClean(), nil
}

// LastRevision describes the most recent commit for status reporting.
type LastRevision struct {
	Hash    string
	Message string
	When    time.Time
}

// Last returns the most recent revision, or nil when the repository is empty.
func (c *Client) Last() (*LastRevision, error) {
	repo, err := c.open()
	if err != nil {
		return nil, err
	}
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("read commit: %w", err)
	}
	return &LastRevision{Hash: ref.Hash().String(), Message: commit.Message, When: commit.Author.When}, nil
}

// InitRepository creates a new repository at dir (test and bootstrap helper).
func InitRepository(dir string) error {
	if err := os.MkdirAll(filepath.Clean(dir), 0o750); err != nil {
		return fmt.Errorf("create repository directory: %w", err)
	}
	if _, err := gogit.PlainInit(dir, false); err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	return nil
}
