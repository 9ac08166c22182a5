// Package scheduler runs recurring maintenance tasks, currently the sweep
// that expires exam sessions whose deadline passed without a submission.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/ederson/cardforge/internal/logger"
)

// SessionSweeper is implemented by the exam service.
type SessionSweeper interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   SessionSweeper
	interval  time.Duration
	log       *logger.Logger
}

// New creates a new scheduler instance
func New(sweeper SessionSweeper, sweepInterval time.Duration) *Scheduler {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		interval:  sweepInterval,
		log:       logger.Default().WithPrefix("scheduler"),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	s.log.Info("scheduling session sweep every %v", s.interval)
	s.scheduler.Every(s.interval).Do(s.sweepSessions)
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweepSessions() {
	ctx := logger.NewContext(context.Background(), s.log)

	n, err := s.sweeper.ExpireOverdue(ctx)
	if err != nil {
		s.log.Error("session sweep failed: %v", err)
		return
	}
	if n > 0 {
		s.log.Info("expired %d overdue sessions", n)
	}
}
