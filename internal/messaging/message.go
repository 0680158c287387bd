package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReminderMessage is the wire entity published for each overdue task. The
// JSON field names are the deployed contract; adding fields must stay
// backward-compatible, so decoding treats unknown and missing fields as
// optional.
type ReminderMessage struct {
	// TaskID correlates the reminder to the task record.
	TaskID int64 `json:"taskId"`

	// Title is informational only and is not re-validated against the store.
	Title string `json:"title"`

	// DueDateUTC is the due date at publish time. It may drift from the
	// task's live value if the task is edited after publishing.
	DueDateUTC time.Time `json:"dueDateUtc"`
}

// Encode serializes the message to its canonical JSON form, normalizing the
// due date to UTC so the wire format is location-independent.
func (m ReminderMessage) Encode() ([]byte, error) {
	m.DueDateUTC = m.DueDateUTC.UTC()

	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reminder message: %w", err)
	}
	return body, nil
}

// DecodeReminderMessage parses a reminder message from its JSON form.
// Unknown fields are ignored for forward compatibility; a missing or zero
// task ID is rejected because the message cannot be correlated to anything.
func DecodeReminderMessage(body []byte) (ReminderMessage, error) {
	var m ReminderMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return ReminderMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	if m.TaskID == 0 {
		return ReminderMessage{}, fmt.Errorf("%w: missing taskId", ErrMalformedMessage)
	}

	m.DueDateUTC = m.DueDateUTC.UTC()
	return m, nil
}
