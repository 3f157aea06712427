package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "planview/internal/log"
)

// Scheduler runs a job on a standard 5-field cron spec. Overlapping runs are
// skipped rather than queued.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	job     func(context.Context)
	timeout time.Duration
}

// NewScheduler validates spec and registers job. Each run gets a context
// bounded by timeout (no bound when zero).
func NewScheduler(spec string, loc *time.Location, timeout time.Duration, job func(context.Context)) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	logger := cronLogger{}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		spec:    spec,
		job:     job,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(spec, s.Trigger); err != nil {
		return nil, fmt.Errorf("scheduling refresh: %w", err)
	}
	return s, nil
}

// Trigger runs the job once, synchronously.
func (s *Scheduler) Trigger() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.job(ctx)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	appLog.Info("refresh scheduler started", "spec", s.spec)
}

// Stop halts the schedule and returns a context done once running jobs end.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next is the next scheduled run, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger routes cron's own logging into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
