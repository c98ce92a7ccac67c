package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher is the archive refresh job; satisfied by *etl.Pipeline.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Invalidator drops cached reads after a refresh; satisfied by
// *store.CachedStore.
type Invalidator interface {
	Invalidate()
}

// Scheduler periodically refreshes the current year of the archive.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	cache     Invalidator
	interval  time.Duration
	log       *slog.Logger
}

// New creates a new Scheduler.
func New(refresher Refresher, cache Invalidator, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		cache:     cache,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler. An interval of zero or less disables the job.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("archive refresh disabled; nothing to schedule")
		return nil
	}

	seconds := int(s.interval.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(func() {
		s.log.Info("running archive refresh job")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if err := s.refresher.Refresh(ctx); err != nil {
			s.log.Error("archive refresh failed", "err", err)
			return
		}
		s.cache.Invalidate()
		s.log.Info("completed archive refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
