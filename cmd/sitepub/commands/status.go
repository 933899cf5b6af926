package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/sitepub/internal/content"
	"git.home.luguber.info/inful/sitepub/internal/git"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Tags bool `help:"Also list per-tag document counts"`
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	repoRoot, err := root.repoRoot()
	if err != nil {
		return err
	}

	docs, err := content.Scan(filepath.Join(repoRoot, cfg.Content.Directory))
	if err != nil {
		return err
	}
	summary := content.Summarize(docs)

	fmt.Fprintf(os.Stdout, "documents: %d (%d drafts, %d tags)\n",
		summary.Documents, summary.Drafts, len(summary.Tags))
	for _, d := range docs {
		if d.HeaderErr != nil {
			fmt.Fprintf(os.Stdout, "  header problem in %s: %v\n", d.RelativePath, d.HeaderErr)
		}
	}
	if s.Tags {
		names := make([]string, 0, len(summary.Tags))
		for name := range summary.Tags {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(os.Stdout, "  %s: %d\n", name, summary.Tags[name])
		}
	}

	client := git.NewClient(repoRoot)
	clean, err := client.IsClean()
	if err != nil {
		return err
	}
	state := "dirty (unpublished changes)"
	if clean {
		state = "clean"
	}
	fmt.Fprintf(os.Stdout, "working copy: %s\n", state)

	last, err := client.Last()
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Fprintln(os.Stdout, "no revisions yet")
		return nil
	}
	fmt.Fprintf(os.Stdout, "last revision: %s %q (%s)\n",
		last.Hash[:min(8, len(last.Hash))], last.Message, last.When.Local().Format("2006-01-02 15:04"))
	return nil
}
