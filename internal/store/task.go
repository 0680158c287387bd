package store

import (
	"context"
	"time"

	"github.com/usertasks/reminder-worker/internal/domain"
)

// TaskStore exposes the narrow slice of the task persistence layer the
// reminder pipeline needs: selecting overdue tasks that have not been
// reminded, and flagging them once a reminder is published.
type TaskStore interface {
	// FindOverdueUnsent returns up to limit tasks whose due date is at or
	// before now and whose reminder flag is still unset, ordered by due date
	// ascending so a backlog drains oldest-first.
	FindOverdueUnsent(ctx context.Context, now time.Time, limit int) ([]domain.TaskItem, error)

	// MarkReminderSent sets the reminder flag on a task, but only if it is
	// still unset. Returns false when the task was already marked (or does
	// not exist), which means another writer won the race; the caller must
	// not treat that as an error.
	MarkReminderSent(ctx context.Context, taskID int64, sentAt time.Time) (bool, error)
}
