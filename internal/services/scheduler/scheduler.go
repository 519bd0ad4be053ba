package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a periodic background task. It receives a context bounded by the job interval.
type Job func(ctx context.Context) error

// Scheduler runs housekeeping jobs such as health probes and session purges.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
}

// Every registers job to run once per interval. Intervals below one second
// are rounded up.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) error {
	if job == nil {
		return fmt.Errorf("scheduler: job %q is nil", name)
	}
	seconds := int(interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	timeout := time.Duration(seconds) * time.Second

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), func() {
		s.run(name, timeout, job)
	})
	if err != nil {
		return fmt.Errorf("scheduler: add %q: %w", name, err)
	}
	s.logger.Debug("job scheduled", zap.String("job", name), zap.Duration("interval", timeout))
	return nil
}

func (s *Scheduler) run(name string, timeout time.Duration, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := job(ctx); err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
	}
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start launches the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", s.Len()))
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("scheduler stopped")
	return nil
}
