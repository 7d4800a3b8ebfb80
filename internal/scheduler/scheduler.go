// Package scheduler runs the unattended mailbox pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kehilathaz/receipts-automation/internal/models"
	"github.com/kehilathaz/receipts-automation/internal/pipeline"
)

// MailboxRunner runs the mailbox-driven pipeline variant
type MailboxRunner interface {
	RunFromMailbox(ctx context.Context, trigger string) (*models.RunResult, error)
}

// Scheduler triggers unattended mailbox runs
type Scheduler struct {
	cron     *cron.Cron
	runner   MailboxRunner
	schedule string
	logger   *zap.Logger
}

// New creates a scheduler with a standard 5-field cron schedule
func New(runner MailboxRunner, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		runner:   runner,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the mailbox job and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runMailbox); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the cron loop and returns a context that is done once any
// running job has finished
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Scheduler stopping")
	return s.cron.Stop()
}

// runMailbox performs one scheduled run. A fatal pipeline error is logged;
// the schedule stays active for the next tick.
func (s *Scheduler) runMailbox() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	s.logger.Info("Scheduled mailbox run starting")

	result, err := s.runner.RunFromMailbox(ctx, pipeline.TriggerScheduled)
	if err != nil {
		s.logger.Error("Scheduled mailbox run failed", zap.Error(err))
		return
	}

	s.logger.Info("Scheduled mailbox run finished",
		zap.Int("sent", len(result.Sent)),
		zap.Int("already_sent", len(result.AlreadySent)),
		zap.Int("errors", len(result.Errors)))
}
