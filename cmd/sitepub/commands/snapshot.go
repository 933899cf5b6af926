package commands

import (
	"errors"
	"fmt"
	"os"

	"git.home.luguber.info/inful/sitepub/internal/git"
)

// SnapshotCmd implements the 'snapshot' command: record the working copy as a
// revision without rebuilding. Useful when content was edited out-of-band.
type SnapshotCmd struct {
	Message string `short:"m" help:"Revision message (default: prefix + UTC timestamp)"`
}

func (s *SnapshotCmd) Run(_ *Global, root *CLI) error {
	rt, err := root.newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	message := s.Message
	if message == "" {
		message = rt.pub.DefaultMessage()
	}

	revision, err := rt.pub.Snapshot(message)
	if err != nil {
		if errors.Is(err, git.ErrNoChanges) {
			fmt.Fprintln(os.Stdout, "nothing to snapshot: working copy matches the last revision")
			return nil
		}
		return err
	}
	fmt.Fprintf(os.Stdout, "revision %s recorded\n", revision)
	return nil
}
