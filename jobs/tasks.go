// Package jobs hosts the background worker and its task definitions.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerRecurring posts due recurring journal templates.
	TaskLedgerRecurring = "ledger:recurring"
	// TaskLedgerIntegrity sweeps for posted entries that no longer balance.
	TaskLedgerIntegrity = "ledger:integrity"
)

// NewLedgerRecurringTask constructs the recurring posting task.
func NewLedgerRecurringTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerRecurring, nil)
}

// NewLedgerIntegrityTask constructs the integrity sweep task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// RecurringPoster posts due recurring templates.
type RecurringPoster interface {
	PostRecurringEntries(ctx context.Context, now time.Time) (int, error)
}

// HandleLedgerRecurring returns the handler for TaskLedgerRecurring. The
// posting service deduplicates per template and month, so overlapping runs
// are harmless.
func HandleLedgerRecurring(svc RecurringPoster, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		posted, err := svc.PostRecurringEntries(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("recurring posting failed", "error", err)
			return err
		}
		logger.Info("recurring templates posted", "count", posted)
		return nil
	}
}

// IntegrityChecker reports posted entries whose lines do not balance.
type IntegrityChecker interface {
	CheckIntegrity(ctx context.Context) ([]string, error)
}

// HandleLedgerIntegrity returns the handler for TaskLedgerIntegrity.
// Findings are logged, never repaired automatically.
func HandleLedgerIntegrity(svc IntegrityChecker, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		numbers, err := svc.CheckIntegrity(ctx)
		if err != nil {
			logger.Error("ledger integrity sweep failed", "error", err)
			return err
		}
		if len(numbers) > 0 {
			logger.Error("unbalanced posted entries found", "entry_numbers", numbers)
			return nil
		}
		logger.Info("ledger integrity sweep clean")
		return nil
	}
}
