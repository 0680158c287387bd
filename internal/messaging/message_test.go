package messaging_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usertasks/reminder-worker/internal/messaging"
)

func TestReminderMessage_RoundTrip(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	original := messaging.ReminderMessage{
		TaskID:     42,
		Title:      "file quarterly report",
		DueDateUTC: due,
	}

	body, err := original.Encode()
	require.NoError(t, err)

	decoded, err := messaging.DecodeReminderMessage(body)
	require.NoError(t, err)

	assert.Equal(t, original.TaskID, decoded.TaskID)
	assert.Equal(t, original.Title, decoded.Title)
	assert.True(t, original.DueDateUTC.Equal(decoded.DueDateUTC))
}

func TestReminderMessage_Encode_NormalizesToUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+7", 7*60*60)
	msg := messaging.ReminderMessage{
		TaskID:     7,
		Title:      "water the plants",
		DueDateUTC: time.Date(2025, 3, 14, 16, 30, 0, 0, loc),
	}

	body, err := msg.Encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Equal(t, "2025-03-14T09:30:00Z", raw["dueDateUtc"])
}

func TestReminderMessage_WireFieldNames(t *testing.T) {
	t.Parallel()

	msg := messaging.ReminderMessage{
		TaskID:     1,
		Title:      "t",
		DueDateUTC: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	body, err := msg.Encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Contains(t, raw, "taskId")
	assert.Contains(t, raw, "title")
	assert.Contains(t, raw, "dueDateUtc")
}

func TestDecodeReminderMessage(t *testing.T) {
	t.Parallel()

	t.Run("ignores unknown fields", func(t *testing.T) {
		t.Parallel()

		body := []byte(`{"taskId":5,"title":"x","dueDateUtc":"2025-01-02T03:04:05Z","priority":"high"}`)
		msg, err := messaging.DecodeReminderMessage(body)

		require.NoError(t, err)
		assert.Equal(t, int64(5), msg.TaskID)
	})

	t.Run("tolerates missing optional fields", func(t *testing.T) {
		t.Parallel()

		msg, err := messaging.DecodeReminderMessage([]byte(`{"taskId":9}`))

		require.NoError(t, err)
		assert.Equal(t, int64(9), msg.TaskID)
		assert.Empty(t, msg.Title)
		assert.True(t, msg.DueDateUTC.IsZero())
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		t.Parallel()

		_, err := messaging.DecodeReminderMessage([]byte(`{"taskId":`))

		assert.ErrorIs(t, err, messaging.ErrMalformedMessage)
	})

	t.Run("rejects missing task id", func(t *testing.T) {
		t.Parallel()

		_, err := messaging.DecodeReminderMessage([]byte(`{"title":"orphan"}`))

		assert.ErrorIs(t, err, messaging.ErrMalformedMessage)
	})
}
