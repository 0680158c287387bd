package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/usertasks/reminder-worker/internal/messaging"
)

// Publisher publishes reminder messages to the durable queue with persistent
// delivery. The scanner is its only caller, so publishes are never concurrent.
type Publisher struct {
	client *Client
	logger *slog.Logger
}

var _ messaging.Publisher = (*Publisher)(nil)

// NewPublisher creates a publisher over an existing broker client. The
// client must be initialized before Publish is called.
func NewPublisher(client *Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With("component", "reminder_publisher"),
	}
}

// Publish serializes the message and hands it to the broker with the
// persistence flag set, so the broker writes it to disk before acking.
// Success means "accepted by broker", not "processed by a consumer".
// Calling Publish before the client is initialized is a programming error and
// returns messaging.ErrNotInitialized.
func (p *Publisher) Publish(ctx context.Context, msg messaging.ReminderMessage) error {
	channel, err := p.client.Channel()
	if err != nil {
		return err
	}

	body, err := msg.Encode()
	if err != nil {
		return err
	}

	err = channel.PublishWithContext(ctx,
		"",                   // default exchange
		p.client.QueueName(), // routing key
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish reminder for task %d: %w", msg.TaskID, err)
	}

	p.logger.Debug("reminder published",
		"task_id", msg.TaskID,
		"due_date_utc", msg.DueDateUTC)

	return nil
}
