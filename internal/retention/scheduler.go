// Package retention prunes old request logs on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type LogPruner interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

type Scheduler struct {
	mu       sync.Mutex
	pruner   LogPruner
	cron     *cron.Cron
	schedule string
	keepDays int
	now      func() time.Time
	log      logrus.FieldLogger
	running  bool
}

func NewScheduler(pruner LogPruner, schedule string, keepDays int, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		pruner:   pruner,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: schedule,
		keepDays: keepDays,
		now:      time.Now,
		log:      log.WithField("component", "retention"),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.running = true

	s.log.WithFields(logrus.Fields{
		"schedule":  s.schedule,
		"keep_days": s.keepDays,
	}).Info("retention scheduler started")

	return nil
}

// Deletes request logs older than the retention window
func (s *Scheduler) RunOnce(ctx context.Context) int64 {
	cutoff := s.now().AddDate(0, 0, -s.keepDays)

	deleted, err := s.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.WithError(err).Error("request log pruning failed")
		return 0
	}

	s.log.WithFields(logrus.Fields{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	}).Info("request logs pruned")
	return deleted
}

// Stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info("retention scheduler stopped")
}

func (s *Scheduler) NextRun() (time.Time, bool) {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}
