package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/usertasks/reminder-worker/internal/domain"
	"github.com/usertasks/reminder-worker/internal/platform/logger"
	"github.com/usertasks/reminder-worker/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL.
type PostgresTaskStore struct {
	db store.DBTX
}

// Ensure PostgresTaskStore satisfies the interface it implements.
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

// FindOverdueUnsent returns up to limit tasks that are past due and have not
// been reminded, ordered by due date ascending.
func (s *PostgresTaskStore) FindOverdueUnsent(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]domain.TaskItem, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT id, title, due_date_utc, reminder_sent_utc, created_at, updated_at
		FROM tasks
		WHERE reminder_sent_utc IS NULL
		  AND due_date_utc IS NOT NULL
		  AND due_date_utc <= $1
		ORDER BY due_date_utc ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, now.UTC(), limit)
	if err != nil {
		log.Error("failed to query overdue tasks", "error", err)
		return nil, fmt.Errorf("failed to query overdue tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []domain.TaskItem

	for rows.Next() {
		var t domain.TaskItem
		var dueDate sql.NullTime
		var sentAt sql.NullTime

		if err := rows.Scan(&t.ID, &t.Title, &dueDate, &sentAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			log.Error("failed to scan task row", "error", err)
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		if dueDate.Valid {
			due := dueDate.Time.UTC()
			t.DueDateUTC = &due
		}
		if sentAt.Valid {
			sent := sentAt.Time.UTC()
			t.ReminderSentUTC = &sent
		}

		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}

	return tasks, nil
}

// MarkReminderSent sets reminder_sent_utc on a task if it is still unset.
// The IS NULL guard makes the update a compare-and-swap: under concurrent
// scanners only one writer marks the row, and the loser sees false.
func (s *PostgresTaskStore) MarkReminderSent(
	ctx context.Context,
	taskID int64,
	sentAt time.Time,
) (bool, error) {
	log := logger.FromContext(ctx)

	query := `
		UPDATE tasks
		SET reminder_sent_utc = $1, updated_at = $2
		WHERE id = $3 AND reminder_sent_utc IS NULL
	`

	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, query, sentAt.UTC(), now, taskID)
	if err != nil {
		log.Error("failed to mark reminder sent",
			"task_id", taskID,
			"error", err)
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}
