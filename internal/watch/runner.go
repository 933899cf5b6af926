package watch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitepub/internal/config"
	"git.home.luguber.info/inful/sitepub/internal/git"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/publisher"
)

// Runner drives publish cycles from watcher and scheduler triggers. Cycles
// run one at a time; triggers arriving mid-cycle coalesce into a single
// follow-up.
type Runner struct {
	cfg     *config.Config
	root    string
	pub     *publisher.Publisher
	remotes []git.Remote

	registry *prom.Registry
}

// NewRunner wires a runner for the repository at root.
func NewRunner(cfg *config.Config, root string, pub *publisher.Publisher, remotes []git.Remote) *Runner {
	return &Runner{cfg: cfg, root: root, pub: pub, remotes: remotes}
}

// WithRegistry attaches the Prometheus registry served on the metrics
// endpoint.
func (r *Runner) WithRegistry(reg *prom.Registry) *Runner {
	r.registry = reg
	return r
}

// Run blocks until ctx is done, publishing on content changes and on the
// configured schedule.
func (r *Runner) Run(ctx context.Context) error {
	debounce, err := r.cfg.Watch.DebounceDuration()
	if err != nil {
		return err
	}
	every, err := r.cfg.Watch.EveryDuration()
	if err != nil {
		return err
	}

	contentDir := filepath.Join(r.root, r.cfg.Content.Directory)
	watcher, err := NewWatcher(contentDir, r.pub.OutputDir(), debounce)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	var scheduler *Scheduler
	if every > 0 {
		if scheduler, err = NewScheduler(every); err != nil {
			return err
		}
		scheduler.Start()
		defer func() { _ = scheduler.Stop() }()
	}

	if r.cfg.Watch.MetricsAddr != "" {
		r.serveMetrics(ctx, r.cfg.Watch.MetricsAddr)
	}

	go func() {
		_ = watcher.Run(ctx)
	}()

	slog.Info("Watch mode active",
		logfields.Path(contentDir),
		slog.Duration("debounce", debounce),
		slog.Bool("publish", r.cfg.Watch.Publish))

	scheduleCh := scheduleTriggers(scheduler)
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-watcher.Triggers():
			r.cycle(ctx, "change", path)
		case reason := <-scheduleCh:
			r.cycle(ctx, reason, "")
		}
	}
}

func scheduleTriggers(s *Scheduler) <-chan string {
	if s == nil {
		return nil
	}
	return s.Triggers()
}

// cycle runs one rebuild or full publish cycle. Errors are logged, not
// returned; watch mode survives failing cycles.
func (r *Runner) cycle(ctx context.Context, reason, path string) {
	attrs := []any{slog.String("reason", reason)}
	if path != "" {
		attrs = append(attrs, logfields.Path(path))
	}
	slog.Info("Triggering cycle", attrs...)

	if !r.cfg.Watch.Publish {
		if err := r.rebuild(ctx); err != nil {
			slog.Error("Rebuild failed", logfields.Error(err))
		}
		return
	}

	report, err := r.pub.Run(ctx, "", r.remotes)
	if err != nil {
		slog.Error("Publish cycle failed", logfields.Error(err))
		return
	}
	slog.Info("Publish cycle done",
		logfields.CycleID(report.CycleID),
		slog.String("outcome", string(report.Outcome)))
}

func (r *Runner) rebuild(ctx context.Context) error {
	if err := r.pub.Clean(); err != nil {
		return err
	}
	return r.pub.Build(ctx)
}

func (r *Runner) serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(r.registry))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
}
