// Package scheduler runs background jobs on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job represents a scheduled task.
type Job struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Scheduler runs jobs at a fixed interval.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
}

// New creates a new scheduler.
func New() *Scheduler {
	return &Scheduler{
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
}

// Add registers a job with the scheduler.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// RunOnce executes all registered jobs once, in registration order. A
// failing job is logged and does not stop the ones after it; the number of
// failed jobs is returned.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	failed := 0
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return failed
		}
		s.logger.Info("running job", "name", job.Name)
		start := time.Now()
		if err := job.Fn(ctx); err != nil {
			s.logger.Error("job failed", "name", job.Name, "error", err, "duration", time.Since(start))
			failed++
			continue
		}
		s.logger.Info("job completed", "name", job.Name, "duration", time.Since(start))
	}
	return failed
}

// Start runs every job at each tick of interval until ctx is cancelled or
// Stop is called. When immediate is set the jobs also run once at start.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration, immediate bool) {
	s.logger.Info("scheduler started", "interval", interval, "jobs", len(s.jobs))

	if immediate {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-s.done:
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop stops the scheduler. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.done) })
}
