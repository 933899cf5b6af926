package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitepub/internal/git"
	"git.home.luguber.info/inful/sitepub/internal/logfields"
)

// Individual step implementations. Each wraps a Publisher operation and
// classifies its failure mode.

func stepCleanOutput(_ context.Context, state *cycleState) error {
	if err := state.Publisher.Clean(); err != nil {
		return newFatalStepError(StepCleanOutput, err)
	}
	return nil
}

func stepRunGenerator(ctx context.Context, state *cycleState) error {
	if err := state.Publisher.Build(ctx); err != nil {
		if ctx.Err() != nil {
			return newCanceledStepError(StepRunGenerator, err)
		}
		return newFatalStepError(StepRunGenerator, err)
	}
	return nil
}

func stepSnapshot(_ context.Context, state *cycleState) error {
	hash, err := state.Publisher.Snapshot(state.Message)
	if err != nil {
		if errors.Is(err, git.ErrNoChanges) {
			// Legitimate no-op: nothing to publish, remaining steps skip.
			state.noChanges = true
			slog.Info("No changes since last revision, nothing to publish")
			return nil
		}
		return newFatalStepError(StepSnapshot, err)
	}
	state.Report.Revision = hash
	return nil
}

func stepPushRemotes(ctx context.Context, state *cycleState) error {
	if state.noChanges {
		slog.Debug("Skipping push, no new revision")
		return nil
	}
	if len(state.Remotes) == 0 {
		slog.Debug("Push disabled, cycle ends at snapshot")
		return nil
	}

	results := state.Publisher.Publish(ctx, state.Remotes)
	state.Report.Pushes = results

	var failed []error
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Err)
		} else {
			slog.Info("Remote updated", logfields.Remote(res.Remote.String()))
		}
	}
	if len(failed) > 0 {
		// Partial failure: every remote was attempted, report and continue.
		return newWarnStepError(StepPushRemotes,
			fmt.Errorf("%d of %d remotes failed: %w", len(failed), len(results), errors.Join(failed...)))
	}
	return nil
}
