// Package generator invokes the external site generator over the content
// tree. The generator owns all rendering; this package only runs it and
// surfaces its diagnostics.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitepub/internal/config"
)

// Error reports a failed generator run, carrying the process diagnostics
// verbatim so the operator sees exactly what the generator printed.
type Error struct {
	Command     string
	ExitCode    int
	Diagnostics string
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generator %s failed (exit %d): %v", e.Command, e.ExitCode, e.Err)
}
func (e *Error) Unwrap() error { return e.Err }

// Runner executes the configured generator command.
type Runner struct {
	cfg config.GeneratorConfig
	dir string // working directory for the generator process

	// Stderr receives the generator's combined output as it is produced.
	// Defaults to os.Stderr.
	Stderr io.Writer
}

// NewRunner creates a Runner executing in dir.
func NewRunner(cfg config.GeneratorConfig, dir string) *Runner {
	return &Runner{cfg: cfg, dir: dir, Stderr: os.Stderr}
}

// Run invokes the generator and blocks until it exits. A non-zero exit
// produces an *Error with the captured diagnostics.
func (r *Runner) Run(ctx context.Context) error {
	timeout, err := r.cfg.TimeoutDuration()
	if err != nil {
		return err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if _, err := exec.LookPath(r.cfg.Command); err != nil {
		return &Error{Command: r.cfg.Command, ExitCode: -1, Err: fmt.Errorf("generator not found: %w", err)}
	}

	cmd := exec.CommandContext(ctx, r.cfg.Command, r.cfg.Args...)
	cmd.Dir = r.dir
	cmd.Env = r.environ()
	// Grandchildren can keep the output pipes open after the generator is
	// killed; don't let them stall cancellation.
	cmd.WaitDelay = time.Second

	var diag bytes.Buffer
	sink := r.Stderr
	if sink == nil {
		sink = os.Stderr
	}
	out := io.MultiWriter(sink, &diag)
	cmd.Stdout = out
	cmd.Stderr = out

	slog.Info("Running site generator",
		slog.String("command", r.cfg.Command),
		slog.String("args", strings.Join(r.cfg.Args, " ")),
		slog.String("dir", r.dir))

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return &Error{
			Command:     r.cfg.Command,
			ExitCode:    exitCode,
			Diagnostics: diag.String(),
			Err:         err,
		}
	}
	return nil
}

// environ builds the process environment: inherited, with configured
// overrides applied in deterministic order.
func (r *Runner) environ() []string {
	if len(r.cfg.Env) == 0 {
		return nil // nil keeps the parent environment
	}
	env := os.Environ()
	keys := make([]string, 0, len(r.cfg.Env))
	for k := range r.cfg.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+r.cfg.Env[k])
	}
	return env
}
