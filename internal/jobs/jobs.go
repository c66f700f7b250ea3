// Package jobs runs periodic background work (nisab price refresh, overdue
// payment sweep) on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a cron runner. Each run gets its own context bounded by
// the scheduler timeout, and a run that is still going when its next tick
// fires is skipped.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// NewScheduler creates a scheduler whose runs are cancelled after timeout.
func NewScheduler(timeout time.Duration) *Scheduler {
	logger := slogLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		timeout: timeout,
	}
}

// Add registers fn under a standard five-field cron spec or a descriptor
// such as "@every 1h".
func (s *Scheduler) Add(name, spec string, fn func(context.Context) error) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(name, fn)); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	slog.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) wrap(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			slog.Error("job failed", "job", name, "err", err, "duration", time.Since(start))
			return
		}
		slog.Debug("job finished", "job", name, "duration", time.Since(start))
	}
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("jobs still running at shutdown")
	}
}

// slogLogger adapts cron's logger interface to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"err", err}, keysAndValues...)...)
}
