package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSweeper struct {
	mu    sync.Mutex
	calls []time.Time
	ids   []string
	err   error
}

func (f *fakeSweeper) Sweep(now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, now)
	return f.ids, f.err
}

func (f *fakeSweeper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestRequestExpirerNextRun(t *testing.T) {
	j := NewRequestExpirer(&fakeSweeper{}, time.Minute, discardLogger())
	now := time.Date(2026, 3, 1, 10, 15, 42, 0, time.UTC)
	want := time.Date(2026, 3, 1, 10, 16, 0, 0, time.UTC)
	if got := j.NextRun(now); !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := j.NextRun(want); !got.After(want) {
		t.Errorf("next run must be strictly after now, got %v", got)
	}
}

func TestRequestExpirerRunPassesClock(t *testing.T) {
	sw := &fakeSweeper{ids: []string{"a", "b"}}
	j := NewRequestExpirer(sw, time.Minute, discardLogger())
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return fixed }

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sw.count() != 1 || !sw.calls[0].Equal(fixed) {
		t.Errorf("expected one sweep at %v, got %v", fixed, sw.calls)
	}
}

func TestRequestExpirerRunCancelled(t *testing.T) {
	sw := &fakeSweeper{}
	j := NewRequestExpirer(sw, time.Minute, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := j.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if sw.count() != 0 {
		t.Errorf("cancelled run must not sweep")
	}
}

type countingJob struct {
	mu       sync.Mutex
	runs     int
	failures int
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) NextRun(now time.Time) time.Time { return now.Add(5 * time.Millisecond) }

func (j *countingJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs++
	if j.failures > 0 {
		j.failures--
		return errors.New("boom")
	}
	return nil
}

func (j *countingJob) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func TestSchedulerRunsUntilCancelled(t *testing.T) {
	job := &countingJob{}
	s := NewScheduler(discardLogger())
	s.Register(job)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for job.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 runs, got %d", job.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerRetriesFailedRun(t *testing.T) {
	job := &countingJob{failures: 2}
	s := NewScheduler(discardLogger()).WithRetries(time.Millisecond, time.Millisecond)

	if err := s.executeWithRetry(context.Background(), job); err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if job.count() != 3 {
		t.Errorf("expected 3 attempts, got %d", job.count())
	}
}

func TestSchedulerGivesUp(t *testing.T) {
	job := &countingJob{failures: 10}
	s := NewScheduler(discardLogger()).WithRetries(time.Millisecond)

	if err := s.executeWithRetry(context.Background(), job); err == nil {
		t.Fatal("expected error after retries are exhausted")
	}
	if job.count() != 2 {
		t.Errorf("expected 2 attempts, got %d", job.count())
	}
}

func TestSchedulerWithoutJobs(t *testing.T) {
	s := NewScheduler(discardLogger())
	if err := s.Run(context.Background()); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
