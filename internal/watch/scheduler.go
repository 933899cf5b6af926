package watch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for periodic publish triggers.
type Scheduler struct {
	scheduler gocron.Scheduler
	triggers  chan string
}

// NewScheduler creates a scheduler firing one trigger per interval.
func NewScheduler(interval time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	sc := &Scheduler{scheduler: s, triggers: make(chan string, 1)}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sc.fire),
		gocron.WithName("periodic-publish"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic publish job: %w", err)
	}
	return sc, nil
}

// Triggers delivers one value per elapsed interval.
func (s *Scheduler) Triggers() <-chan string {
	return s.triggers
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting periodic publish scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping periodic publish scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) fire() {
	select {
	case s.triggers <- "schedule":
	default:
		// A trigger is already pending.
	}
}
