package messaging

import (
	"context"
	"errors"
)

// Common messaging errors used across broker implementations.
var (
	// ErrNotInitialized is returned when a publisher or consumer is used
	// before Initialize has succeeded. This indicates a programming error in
	// startup ordering, not a transient condition, and is not retried.
	ErrNotInitialized = errors.New("messaging client not initialized")

	// ErrMalformedMessage is returned when a message body cannot be decoded
	// into the reminder contract.
	ErrMalformedMessage = errors.New("malformed reminder message")

	// ErrConnectionFailed is returned when the broker cannot be reached.
	// Startup wraps this in a fixed-backoff retry loop.
	ErrConnectionFailed = errors.New("broker connection failed")
)

// Handler processes one decoded reminder message. Returning an error causes
// the delivery to be negatively acknowledged and, within the redelivery cap,
// requeued.
type Handler func(ctx context.Context, msg ReminderMessage) error

// Publisher publishes reminder messages durably to the shared queue.
// Publish success means the broker accepted the message, not that any
// consumer processed it.
type Publisher interface {
	// Publish serializes and publishes a single message with persistent
	// delivery. Requires the underlying client to be initialized.
	Publish(ctx context.Context, msg ReminderMessage) error
}

// Consumer subscribes to the shared queue and drives a Handler with explicit
// acknowledgment. Deliveries are handled serially per consumer, bounded by
// the configured prefetch count.
type Consumer interface {
	// StartConsuming registers the handler and begins receiving deliveries
	// asynchronously. It does not block; delivery dispatch stops when ctx is
	// cancelled.
	StartConsuming(ctx context.Context, handler Handler) error
}
