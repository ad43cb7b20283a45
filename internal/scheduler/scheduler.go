// Package scheduler wraps gocron to drive the periodic refresh jobs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs named jobs at fixed intervals, one run of each job at a time.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *slog.Logger
}

// New creates a stopped Scheduler.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger,
	}
}

// Add registers a job. Each run gets a context bounded by timeout; overlapping
// runs of the same job are suppressed.
func (s *Scheduler) Add(name string, interval, timeout time.Duration, fn func(ctx context.Context)) error {
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}

	job, err := s.scheduler.Every(seconds).Seconds().Do(func() {
		s.logger.Debug("job starting", "job", name)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		fn(ctx)
		s.logger.Debug("job finished", "job", name)
	})
	if err != nil {
		return err
	}
	job.SingletonMode()
	return nil
}

// Start begins running jobs asynchronously.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
