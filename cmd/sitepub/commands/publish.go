package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitepub/internal/cli"
	"git.home.luguber.info/inful/sitepub/internal/git"
	"git.home.luguber.info/inful/sitepub/internal/publisher"
)

// PublishCmd implements the 'publish' command, the default.
type PublishCmd struct {
	Message string `short:"m" help:"Revision message (default: prefix + UTC timestamp)"`
	Push    bool   `help:"Push to configured remotes even when disabled in config"`
	NoPush  bool   `help:"Skip pushing even when enabled in config"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	if p.Push && p.NoPush {
		return cli.UsageError(errors.New("--push and --no-push are mutually exclusive"))
	}

	rt, err := root.newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	remotes, err := p.resolveRemotes(rt)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := rt.pub.Run(ctx, p.Message, remotes)
	if err != nil {
		return err
	}

	switch report.Outcome {
	case publisher.OutcomeNoop:
		fmt.Fprintln(os.Stdout, "nothing to publish: working copy matches the last revision")
	case publisher.OutcomePartial:
		fmt.Fprintf(os.Stdout, "revision %s created, %d of %d pushes failed\n",
			report.Revision, len(report.FailedPushes()), len(report.Pushes))
		// A created revision with failed pushes still exits non-zero so
		// CI notices the remotes are behind.
		errs := make([]error, 0, len(report.FailedPushes()))
		for _, push := range report.FailedPushes() {
			errs = append(errs, push.Err)
		}
		return errors.Join(errs...)
	default:
		fmt.Fprintf(os.Stdout, "published revision %s\n", report.Revision)
	}
	return nil
}

// resolveRemotes decides whether to push and to where. Pushing is opt-in:
// config enables it, flags override per invocation.
func (p *PublishCmd) resolveRemotes(rt *runtime) ([]git.Remote, error) {
	enabled := rt.cfg.Push.Enabled
	if p.Push {
		enabled = true
	}
	if p.NoPush {
		enabled = false
	}
	if !enabled {
		return nil, nil
	}
	if len(rt.cfg.Push.Remotes) == 0 {
		return nil, cli.ConfigError(errors.New("push requested but push.remotes is empty"))
	}
	remotes, err := git.ParseRemotes(rt.cfg.Push.Remotes)
	if err != nil {
		return nil, cli.ConfigError(err)
	}
	return remotes, nil
}
