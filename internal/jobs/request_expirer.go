package jobs

import (
	"context"
	"log/slog"
	"time"
)

const requestExpirerName = "request-expirer"

// Sweeper expires every active request whose expiry is at or before now
// and returns the ids it changed.
type Sweeper interface {
	Sweep(now time.Time) ([]string, error)
}

// RequestExpirer moves overdue requests to expired on a fixed interval.
type RequestExpirer struct {
	sweeper  Sweeper
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewRequestExpirer(sweeper Sweeper, interval time.Duration, log *slog.Logger) *RequestExpirer {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &RequestExpirer{sweeper: sweeper, interval: interval, log: log, now: time.Now}
}

func (j *RequestExpirer) Name() string {
	return requestExpirerName
}

// NextRun is the next multiple of the interval after now.
func (j *RequestExpirer) NextRun(now time.Time) time.Time {
	return now.Truncate(j.interval).Add(j.interval)
}

func (j *RequestExpirer) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	swept, err := j.sweeper.Sweep(j.now())
	if err == nil {
		j.log.Debug("sweep finished", "job_name", requestExpirerName, "expired", len(swept))
	}
	return err
}
