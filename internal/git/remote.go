package git

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"

	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// Remote is a named push target, optionally pinned to a branch. The zero
// branch means "the repository's current branch".
type Remote struct {
	Name   string
	Branch string
}

// ParseRemote parses "origin/main" or bare "origin" notation.
func ParseRemote(s string) (Remote, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Remote{}, fmt.Errorf("remote must not be empty")
	}
	name, branch, found := strings.Cut(s, "/")
	if !found {
		return Remote{Name: s}, nil
	}
	if name == "" || branch == "" {
		return Remote{}, fmt.Errorf("malformed remote %q, want \"name\" or \"name/branch\"", s)
	}
	return Remote{Name: name, Branch: branch}, nil
}

// ParseRemotes parses a list of remote strings, preserving order.
func ParseRemotes(raw []string) ([]Remote, error) {
	remotes := make([]Remote, 0, len(raw))
	for _, s := range raw {
		r, err := ParseRemote(s)
		if err != nil {
			return nil, err
		}
		remotes = append(remotes, r)
	}
	return remotes, nil
}

func (r Remote) String() string {
	if r.Branch == "" {
		return r.Name
	}
	return r.Name + "/" + r.Branch
}

// RemoteError reports a failed push to one remote. Rejected marks
// fast-forward rejections, which the publish step treats as non-fatal
// partial failures.
type RemoteError struct {
	Remote   Remote
	Rejected bool
	Err      error
}

func (e *RemoteError) Error() string {
	if e.Rejected {
		return fmt.Sprintf("remote %s rejected push (non-fast-forward): %v", e.Remote, e.Err)
	}
	return fmt.Sprintf("push to %s failed: %v", e.Remote, e.Err)
}
func (e *RemoteError) Unwrap() error { return e.Err }

// Push pushes the current branch (or the remote's pinned branch) to remote.
// An up-to-date remote is success. Failures are returned as *RemoteError.
func (c *Client) Push(remote Remote) error {
	repo, err := c.open()
	if err != nil {
		return &RemoteError{Remote: remote, Err: err}
	}

	branch := remote.Branch
	if branch == "" {
		_, head, headErr := c.Head()
		if headErr != nil {
			return &RemoteError{Remote: remote, Err: headErr}
		}
		branch = head
	}

	opts := &gogit.PushOptions{
		RemoteName: remote.Name,
		RefSpecs: []gitcfg.RefSpec{
			gitcfg.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch)),
		},
	}
	if !c.auth.IsZero() {
		auth, authErr := authMethod(c.auth)
		if authErr != nil {
			return &RemoteError{Remote: remote, Err: authErr}
		}
		opts.Auth = auth
	}

	err = repo.Push(opts)
	switch {
	case err == nil:
		slog.Info("Pushed revision", logfields.Remote(remote.Name), logfields.Branch(branch))
		return nil
	case errors.Is(err, gogit.NoErrAlreadyUpToDate):
		slog.Info("Remote already up to date", logfields.Remote(remote.Name), logfields.Branch(branch))
		return nil
	default:
		return &RemoteError{Remote: remote, Rejected: isNonFastForward(err), Err: err}
	}
}

// isNonFastForward classifies push rejections by the protocol-level
// rejection text; go-git surfaces these as plain errors.
func isNonFastForward(err error) bool {
	l := strings.ToLower(err.Error())
	return strings.Contains(l, "non-fast-forward") || strings.Contains(l, "fetch first")
}
