// Package cli maps domain errors to process exit codes and presents them on
// stderr.
package cli

import (
	"errors"
	"fmt"
	"os"

	"git.home.luguber.info/inful/sitepub/internal/generator"
	"git.home.luguber.info/inful/sitepub/internal/git"
	"git.home.luguber.info/inful/sitepub/internal/lockfile"
	"git.home.luguber.info/inful/sitepub/internal/publisher"
)

// Exit codes. Zero covers both a published revision and a no-change no-op.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitConfig     = 7
	ExitRemote     = 8
	ExitBuild      = 11
	ExitLintIssues = 3
)

type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

// ConfigError marks err as a configuration problem.
func ConfigError(err error) error {
	return &codedError{code: ExitConfig, err: err}
}

// UsageError marks err as invalid invocation.
func UsageError(err error) error {
	return &codedError{code: ExitUsage, err: err}
}

// LintError signals lint findings; the findings themselves were already
// printed.
func LintError(errorCount int) error {
	return &codedError{code: ExitLintIssues, err: fmt.Errorf("%d lint errors", errorCount)}
}

// ExitCodeFor determines the exit code for an error.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}

	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code
	}

	var remoteErr *git.RemoteError
	if errors.As(err, &remoteErr) {
		return ExitRemote
	}
	var genErr *generator.Error
	if errors.As(err, &genErr) {
		return ExitBuild
	}
	var fsErr *publisher.FilesystemError
	if errors.As(err, &fsErr) {
		return ExitBuild
	}
	if errors.Is(err, lockfile.ErrHeld) {
		return ExitConfig
	}
	return ExitGeneral
}

// Exit prints err to stderr and terminates with its mapped code.
func Exit(err error) {
	if err == nil {
		os.Exit(ExitOK)
	}
	fmt.Fprintf(os.Stderr, "sitepub: %v\n", err)
	os.Exit(ExitCodeFor(err))
}
