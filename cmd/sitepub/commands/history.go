package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"time"

	"git.home.luguber.info/inful/sitepub/internal/cli"
	"git.home.luguber.info/inful/sitepub/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of cycles to list"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return cli.ConfigError(errors.New("history is not configured (set history.path)"))
	}
	repoRoot, err := root.repoRoot()
	if err != nil {
		return err
	}

	store, err := history.Open(resolvePath(repoRoot, cfg.History.Path))
	if err != nil {
		return cli.ConfigError(err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no publish cycles recorded yet")
		return nil
	}

	for _, r := range records {
		revision := r.Revision
		if revision == "" {
			revision = "-"
		} else if len(revision) > 8 {
			revision = revision[:8]
		}
		fmt.Fprintf(os.Stdout, "%s  %-8s  %8s  %s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Outcome,
			r.Duration.Round(10*time.Millisecond),
			revision,
			r.Message)
	}
	return nil
}
