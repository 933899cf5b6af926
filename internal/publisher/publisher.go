// Package publisher orchestrates the publish cycle: clear the output tree,
// run the external generator, snapshot the result as a revision, and push it
// to the configured remotes. The sequence is strictly linear; each step runs
// only after its predecessor succeeded.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitepub/internal/config"
	"git.home.luguber.info/inful/sitepub/internal/generator"
	"git.home.luguber.info/inful/sitepub/internal/git"
	"git.home.luguber.info/inful/sitepub/internal/history"
	"git.home.luguber.info/inful/sitepub/internal/lockfile"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
	"git.home.luguber.info/inful/sitepub/internal/metrics"
	"git.home.luguber.info/inful/sitepub/internal/notify"
	"git.home.luguber.info/inful/sitepub/internal/retry"
)

// Publisher runs publish cycles against one site repository. A single
// Publisher owns the working copy for the duration of a cycle; concurrent
// cycles are excluded via the advisory lock.
type Publisher struct {
	cfg  *config.Config
	root string // repository root; content and output paths resolve against it

	gitClient *git.Client
	runner    *generator.Runner
	recorder  metrics.Recorder
	store     *history.Store
	notifier  *notify.Notifier

	now func() time.Time
}

// Option configures optional publisher collaborators.
type Option func(*Publisher)

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Publisher) { p.recorder = r }
}

// WithHistory injects the cycle history store.
func WithHistory(s *history.Store) Option {
	return func(p *Publisher) { p.store = s }
}

// WithNotifier injects the cycle event notifier.
func WithNotifier(n *notify.Notifier) Option {
	return func(p *Publisher) { p.notifier = n }
}

// New creates a Publisher rooted at root (the repository directory holding
// both the content and output trees).
func New(cfg *config.Config, root string, opts ...Option) *Publisher {
	p := &Publisher{
		cfg:       cfg,
		root:      root,
		gitClient: git.NewClient(root).WithAuth(cfg.Auth),
		runner:    generator.NewRunner(cfg.Generator, root),
		recorder:  metrics.NoopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OutputDir returns the absolute output tree path.
func (p *Publisher) OutputDir() string {
	return filepath.Join(p.root, p.cfg.Output.Directory)
}

// lockPath returns the advisory lock location. The default lives outside the
// repository so the lock itself never ends up inside a revision.
func (p *Publisher) lockPath() string {
	if p.cfg.Lock.Path != "" {
		if filepath.IsAbs(p.cfg.Lock.Path) {
			return p.cfg.Lock.Path
		}
		return filepath.Join(p.root, p.cfg.Lock.Path)
	}
	abs, err := filepath.Abs(p.root)
	if err != nil {
		abs = p.root
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(abs))
	return filepath.Join(os.TempDir(), fmt.Sprintf("sitepub-%08x.lock", h.Sum32()))
}

// DefaultMessage builds the default revision message.
func (p *Publisher) DefaultMessage() string {
	return fmt.Sprintf("%s %s", p.cfg.Commit.MessagePrefix, p.now().UTC().Format("2006-01-02 15:04:05"))
}

// Clean removes all contents of the output tree. Calling it on an empty or
// absent tree is a no-op; a blocked removal is a fatal *FilesystemError.
func (p *Publisher) Clean() error {
	dir := p.OutputDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &FilesystemError{Op: "read output tree", Path: dir, Err: err}
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return &FilesystemError{Op: "remove", Path: path, Err: err}
		}
	}
	slog.Debug("Output tree cleared", logfields.Path(dir))
	return nil
}

// Build invokes the external generator over the content tree. The generator's
// diagnostics travel with the returned *generator.Error.
func (p *Publisher) Build(ctx context.Context) error {
	return p.runner.Run(ctx)
}

// Snapshot stages content and output trees and creates a revision. Returns
// git.ErrNoChanges when the working copy already matches the last revision.
func (p *Publisher) Snapshot(message string) (string, error) {
	return p.gitClient.Snapshot(message, git.Signature{
		Name:  p.cfg.Commit.AuthorName,
		Email: p.cfg.Commit.AuthorEmail,
	})
}

// Publish pushes the latest revision to each remote in order. Every remote is
// attempted regardless of earlier failures; results are reported per remote.
// Transient failures are retried per the configured policy; rejections never
// are.
func (p *Publisher) Publish(ctx context.Context, remotes []git.Remote) []PushResult {
	policy := p.pushPolicy()
	results := make([]PushResult, 0, len(remotes))
	for _, remote := range remotes {
		err := policy.Do(ctx,
			func() error { return p.gitClient.Push(remote) },
			pushRetryable)
		res := PushResult{Remote: remote, Err: err}
		if err != nil {
			var remoteErr *git.RemoteError
			if errors.As(err, &remoteErr) {
				res.Rejected = remoteErr.Rejected
			}
			slog.Error("Push failed", logfields.Remote(remote.String()), logfields.Error(err))
		}
		p.recorder.IncPushResult(remote.String(), err == nil)
		results = append(results, res)
	}
	return results
}

// pushPolicy builds the retry policy from config. Without a retry section the
// policy allows a single attempt per remote.
func (p *Publisher) pushPolicy() retry.Policy {
	r := p.cfg.Push.Retry
	if r == nil || r.MaxRetries <= 0 {
		return retry.Policy{MaxRetries: 0}
	}
	initial, _ := r.InitialDuration()
	maxDelay, _ := r.MaxDuration()
	return retry.NewPolicy(retry.BackoffMode(r.Backoff), initial, maxDelay, r.MaxRetries)
}

// pushRetryable reports whether a push failure is worth retrying. A rejected
// push needs reconciliation, not repetition.
func pushRetryable(err error) bool {
	var remoteErr *git.RemoteError
	if errors.As(err, &remoteErr) {
		return !remoteErr.Rejected
	}
	return true
}

// cycleState carries mutable state across cycle steps.
type cycleState struct {
	Publisher *Publisher
	Report    *Report
	Message   string
	Remotes   []git.Remote
	noChanges bool
}

// Run executes one full publish cycle: Clean, Build, Snapshot, Publish.
// message is the revision message (empty selects the default); remotes lists
// the push targets in order (empty skips the publish step — pushing is
// opt-in). The report is always returned, alongside the fatal error if any.
func (p *Publisher) Run(ctx context.Context, message string, remotes []git.Remote) (*Report, error) {
	lock, err := lockfile.Acquire(p.lockPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			slog.Warn("Failed to release lock", logfields.Error(releaseErr))
		}
	}()

	if message == "" {
		message = p.DefaultMessage()
	}

	start := p.now()
	state := &cycleState{
		Publisher: p,
		Report:    newReport(uuid.NewString(), start),
		Message:   message,
		Remotes:   remotes,
	}
	state.Report.Message = message

	slog.Info("Publish cycle starting",
		logfields.CycleID(state.Report.CycleID),
		slog.Int("remotes", len(remotes)))

	steps := []stepDef{
		{StepCleanOutput, stepCleanOutput},
		{StepRunGenerator, stepRunGenerator},
		{StepSnapshot, stepSnapshot},
		{StepPushRemotes, stepPushRemotes},
	}
	runErr := runSteps(ctx, state, steps, p.recorder)

	state.Report.Duration = p.now().Sub(start)
	state.Report.Outcome = classifyOutcome(state, runErr)
	p.recorder.ObserveCycleDuration(state.Report.Duration)
	p.recorder.IncCycleOutcome(string(state.Report.Outcome))
	p.persist(ctx, state.Report)

	slog.Info("Publish cycle finished",
		logfields.CycleID(state.Report.CycleID),
		slog.String("outcome", string(state.Report.Outcome)),
		logfields.DurationMS(float64(state.Report.Duration.Milliseconds())))

	return state.Report, runErr
}

func classifyOutcome(state *cycleState, runErr error) Outcome {
	var se *StepError
	if runErr != nil && errors.As(runErr, &se) && se.Kind == StepErrorCanceled {
		return OutcomeCanceled
	}
	if runErr != nil {
		return OutcomeFailed
	}
	if state.noChanges {
		return OutcomeNoop
	}
	if len(state.Report.FailedPushes()) > 0 {
		return OutcomePartial
	}
	return OutcomeSuccess
}

// persist records the cycle in history and emits the notification event.
// Both are observability concerns and never fail the cycle. The cycle
// context may already be canceled (a canceled outcome still gets recorded),
// so persistence runs detached from it.
func (p *Publisher) persist(ctx context.Context, report *Report) {
	ctx = context.WithoutCancel(ctx)
	if p.store != nil {
		record := history.Record{
			CycleID:   report.CycleID,
			StartedAt: report.StartedAt,
			Duration:  report.Duration,
			Outcome:   string(report.Outcome),
			Revision:  report.Revision,
			Message:   report.Message,
			Steps:     stepDurations(report),
		}
		for _, push := range report.Pushes {
			pr := history.PushResult{Remote: push.Remote.String(), Success: push.Err == nil, Rejected: push.Rejected}
			if push.Err != nil {
				pr.Error = push.Err.Error()
			}
			record.Pushes = append(record.Pushes, pr)
		}
		if err := p.store.Append(ctx, record); err != nil {
			slog.Warn("Failed to record cycle history", logfields.Error(err))
		}
	}
	if err := p.notifier.Publish(notify.CycleEvent{
		CycleID:    report.CycleID,
		Outcome:    string(report.Outcome),
		Revision:   report.Revision,
		Message:    report.Message,
		DurationMS: report.Duration.Milliseconds(),
		FinishedAt: report.StartedAt.Add(report.Duration),
	}); err != nil {
		slog.Warn("Failed to publish cycle event", logfields.Error(err))
	}
}

func stepDurations(report *Report) map[string]time.Duration {
	out := make(map[string]time.Duration, len(report.StepDurations))
	for k, v := range report.StepDurations {
		out[string(k)] = v
	}
	return out
}
