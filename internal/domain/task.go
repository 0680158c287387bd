package domain

import (
	"time"
)

// TaskItem is the worker's projection of a task record. The surrounding
// application owns the full entity; this process only reads the fields that
// drive reminder scheduling and writes ReminderSentUTC.
type TaskItem struct {
	// ID is the stable identity of the task in the store.
	ID int64

	// Title is carried into the reminder for display only.
	Title string

	// DueDateUTC is when the task is due. Nil means no reminder applies.
	DueDateUTC *time.Time

	// ReminderSentUTC is the idempotency flag: nil means no reminder has been
	// published yet; once set it is never cleared, and the scanner must never
	// select the task again.
	ReminderSentUTC *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReminderDue reports whether the task is eligible for a reminder at the given
// instant: it has a due date, the due date has passed, and no reminder has
// been sent yet.
func (t TaskItem) ReminderDue(now time.Time) bool {
	return t.ReminderSentUTC == nil &&
		t.DueDateUTC != nil &&
		!t.DueDateUTC.After(now)
}
