package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/sitepub/internal/cli"
	"git.home.luguber.info/inful/sitepub/internal/git"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/publisher"
	"git.home.luguber.info/inful/sitepub/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Publish bool `help:"Run full publish cycles instead of rebuilds only"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	registry := prom.NewRegistry()
	registry.MustRegister(
		promcollect.NewGoCollector(),
		promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheusRecorder(registry)

	rt, err := root.newRuntime(publisher.WithRecorder(recorder))
	if err != nil {
		return err
	}
	defer rt.Close()

	if w.Publish {
		rt.cfg.Watch.Publish = true
	}

	var remotes []git.Remote
	if rt.cfg.Watch.Publish && rt.cfg.Push.Enabled {
		if remotes, err = git.ParseRemotes(rt.cfg.Push.Remotes); err != nil {
			return cli.ConfigError(err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := watch.NewRunner(rt.cfg, rt.root, rt.pub, remotes).WithRegistry(registry)
	err = runner.Run(ctx)
	slog.Info("Watch mode stopped")
	return err
}
