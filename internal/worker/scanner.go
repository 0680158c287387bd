package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/usertasks/reminder-worker/internal/messaging"
	"github.com/usertasks/reminder-worker/internal/store"
)

// ScannerConfig holds the polling cadence and batch bound for the scanner.
type ScannerConfig struct {
	// PollInterval is the time between scan ticks.
	PollInterval time.Duration

	// BatchSize bounds how many overdue tasks one tick may publish.
	BatchSize int
}

// DefaultScannerConfig returns a ScannerConfig with the stock cadence.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    50,
	}
}

// Scanner periodically selects overdue, not-yet-reminded tasks from the store
// and publishes one reminder per task, marking each task as reminded right
// after its publish succeeds. It is the sole publisher in the process, so
// publish calls are never concurrent.
type Scanner struct {
	store     store.TaskStore
	publisher messaging.Publisher
	config    ScannerConfig
	logger    *slog.Logger

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewScanner creates a scanner. Zero config fields fall back to defaults.
func NewScanner(
	taskStore store.TaskStore,
	publisher messaging.Publisher,
	config ScannerConfig,
	logger *slog.Logger,
) *Scanner {
	defaults := DefaultScannerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}

	return &Scanner{
		store:     taskStore,
		publisher: publisher,
		config:    config,
		logger:    logger.With("component", "overdue_scanner"),
		now:       time.Now,
	}
}

// Run drives scan ticks on the configured interval until ctx is cancelled.
// A failed tick is logged and does not affect the next one; tasks left
// unmarked by an aborted tick stay eligible and are retried then.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.logger.Info("scanner started",
		"poll_interval", s.config.PollInterval,
		"batch_size", s.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scanner stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Error("scan tick failed", "error", err)
			}
		}
	}
}

// Tick performs one scan: query a bounded batch of overdue unsent tasks
// (oldest due date first), publish a reminder for each, and mark each as
// reminded immediately after its publish. Marking per task rather than once
// at the end of the tick shrinks the publish-without-mark crash window to a
// single task; the consumer contract tolerates the duplicate that window can
// produce.
func (s *Scanner) Tick(ctx context.Context) error {
	now := s.now().UTC()

	tasks, err := s.store.FindOverdueUnsent(ctx, now, s.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to query overdue tasks: %w", err)
	}

	if len(tasks) == 0 {
		return nil
	}

	published := 0
	for _, task := range tasks {
		if task.DueDateUTC == nil {
			// The store query filters these out; guard anyway so a bad row
			// cannot produce a reminder without a due date.
			s.logger.Warn("skipping overdue task without due date", "task_id", task.ID)
			continue
		}

		msg := messaging.ReminderMessage{
			TaskID:     task.ID,
			Title:      task.Title,
			DueDateUTC: task.DueDateUTC.UTC(),
		}

		if err := s.publisher.Publish(ctx, msg); err != nil {
			// Abort the tick: unpublished tasks are still unmarked and will
			// be selected again next tick.
			return fmt.Errorf("failed to publish reminder for task %d: %w", task.ID, err)
		}
		published++

		marked, err := s.store.MarkReminderSent(ctx, task.ID, now)
		if err != nil {
			return fmt.Errorf("failed to mark task %d as reminded: %w", task.ID, err)
		}
		if !marked {
			// Another writer set the flag between our query and our update.
			// The message is already out; the duplicate is accepted.
			s.logger.Warn("task was already marked as reminded", "task_id", task.ID)
		}
	}

	s.logger.Info("published reminders", "count", published)
	return nil
}
