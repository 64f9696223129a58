package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is a periodic task run by the Scheduler.
type Job interface {
	Name() string
	NextRun(now time.Time) time.Time
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs until its context is cancelled.
type Scheduler struct {
	jobs    []Job
	retries []time.Duration
	log     *slog.Logger
	now     func() time.Time
}

func NewScheduler(log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		retries: []time.Duration{5 * time.Second, 30 * time.Second},
		log:     log.With("component", "scheduler"),
		now:     time.Now,
	}
}

// WithRetries replaces the delays between failed attempts of one run.
func (s *Scheduler) WithRetries(delays ...time.Duration) *Scheduler {
	s.retries = delays
	return s
}

func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, job)
	s.log.Debug("job registered", "job_name", job.Name(), "total_jobs", len(s.jobs))
}

// Run blocks until ctx is done. Each job runs in its own goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.jobs) == 0 {
		s.log.Warn("no jobs registered, scheduler not started")
		return nil
	}
	s.log.Info("starting job scheduler", "jobs_count", len(s.jobs))

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runJob(ctx, job)
		}()
	}
	wg.Wait()
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	for {
		now := s.now()
		timer := time.NewTimer(job.NextRun(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("job stopped by context", "job_name", job.Name())
			return
		case <-timer.C:
			if err := s.executeWithRetry(ctx, job); err != nil {
				s.log.Error("job failed after all retries", "job_name", job.Name(), "error", err)
			} else {
				s.log.Debug("job executed", "job_name", job.Name())
			}
		}
	}
}

func (s *Scheduler) executeWithRetry(ctx context.Context, job Job) error {
	err := job.Run(ctx)
	if err == nil {
		return nil
	}
	s.log.Warn("job execution failed, will retry",
		"job_name", job.Name(),
		"attempt", 1,
		"retries_remaining", len(s.retries),
		"error", err,
	)

	for i, delay := range s.retries {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if err = job.Run(ctx); err == nil {
			return nil
		}
		s.log.Warn("job retry failed",
			"job_name", job.Name(),
			"attempt", i+2,
			"retries_remaining", len(s.retries)-i-1,
			"error", err,
		)
	}
	return fmt.Errorf("all %d attempts failed: %w", 1+len(s.retries), err)
}
