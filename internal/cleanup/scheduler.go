// Package cleanup runs guest retention cleanup on a cron schedule.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
)

const (
	DefaultSchedule = "0 2 * * *"
	DefaultTimeout  = 5 * time.Minute
)

// Cleaner deletes expired guests and reports how many were removed.
type Cleaner interface {
	RunCleanup(ctx context.Context, now time.Time) (int64, error)
}

type Config struct {
	Schedule string
	Timeout  time.Duration
	Location *time.Location
}

// Scheduler triggers Cleaner on a cron schedule. A failing or panicking run
// is logged and the next tick tries again.
type Scheduler struct {
	cleaner  Cleaner
	logger   *slog.Logger
	schedule string
	timeout  time.Duration
	location *time.Location
	now      func() time.Time

	cron *cron.Cron
}

func NewScheduler(cleaner Cleaner, logger *slog.Logger, cfg Config) *Scheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Scheduler{
		cleaner:  cleaner,
		logger:   logger.With("component", "cleanup"),
		schedule: cfg.Schedule,
		timeout:  cfg.Timeout,
		location: cfg.Location,
		now:      time.Now,
	}
}

// Start registers the job and starts the cron loop in the background.
func (s *Scheduler) Start() error {
	cl := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := c.AddFunc(s.schedule, func() {
		_, _ = s.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}

	s.cron = c
	c.Start()

	s.logger.Info("cleanup scheduler started", "schedule", s.schedule)
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("cleanup scheduler stop timed out")
	}
	s.logger.Info("cleanup scheduler stopped")
}

// RunOnce runs a single cleanup pass bounded by the configured timeout.
func (s *Scheduler) RunOnce(ctx context.Context) (deleted int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup panicked: %v", r)
		}

		if err != nil {
			metrics.CleanupRuns.WithLabelValues(metrics.ResultError).Inc()
			s.logger.Error("guest cleanup failed",
				slog.String("error", err.Error()),
				slog.Duration("duration", time.Since(start)),
			)
			return
		}

		metrics.CleanupRuns.WithLabelValues(metrics.ResultSuccess).Inc()
		metrics.CleanupDeleted.Add(float64(deleted))
		s.logger.Info("guest cleanup completed",
			slog.Int64("deleted", deleted),
			slog.Duration("duration", time.Since(start)),
		)
	}()

	return s.cleaner.RunCleanup(ctx, s.now())
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
