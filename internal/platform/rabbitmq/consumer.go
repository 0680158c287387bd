package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/usertasks/reminder-worker/internal/messaging"
)

// ConsumerConfig holds the consumer tuning knobs.
type ConsumerConfig struct {
	// PrefetchCount bounds unacknowledged in-flight deliveries, providing
	// backpressure so a slow handler is not flooded.
	PrefetchCount int

	// MaxDeliveries caps how many times a failing message is requeued before
	// the consumer rejects it for good. Guards against a poison message
	// looping through the queue forever.
	MaxDeliveries int
}

// Consumer receives reminder messages from the durable queue and drives a
// caller-supplied handler with explicit acknowledgment. Deliveries are
// processed serially, keeping handler side effects ordered relative to each
// other.
type Consumer struct {
	client *Client
	config ConsumerConfig
	logger *slog.Logger

	// attempts tracks per-message delivery counts for the poison cap, keyed
	// by message ID. Process-local: a restart resets the counts, which only
	// delays poison detection, never drops a healthy message.
	mu       sync.Mutex
	attempts map[string]int
}

var _ messaging.Consumer = (*Consumer)(nil)

// NewConsumer creates a consumer over an existing broker client.
func NewConsumer(client *Client, config ConsumerConfig, logger *slog.Logger) *Consumer {
	return &Consumer{
		client:   client,
		config:   config,
		logger:   logger.With("component", "reminder_consumer"),
		attempts: make(map[string]int),
	}
}

// Initialize ensures the underlying client is connected (sharing its queue
// declaration) and applies the prefetch limit to the channel. Idempotent,
// mirroring Client.Initialize.
func (c *Consumer) Initialize(ctx context.Context) error {
	if err := c.client.Initialize(ctx); err != nil {
		return err
	}

	channel, err := c.client.Channel()
	if err != nil {
		return err
	}

	if err := channel.Qos(c.config.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set consumer prefetch: %w", err)
	}

	return nil
}

// StartConsuming registers the handler and begins receiving deliveries on a
// background goroutine. It does not block the caller; dispatch stops when ctx
// is cancelled or the broker closes the delivery channel.
func (c *Consumer) StartConsuming(ctx context.Context, handler messaging.Handler) error {
	channel, err := c.client.Channel()
	if err != nil {
		return err
	}

	deliveries, err := channel.Consume(
		c.client.QueueName(),
		"",    // consumer tag, broker-generated
		false, // autoAck: acknowledgment is explicit
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming from %q: %w", c.client.QueueName(), err)
	}

	go c.consumeLoop(ctx, deliveries, handler)

	c.logger.Info("consuming started",
		"queue", c.client.QueueName(),
		"prefetch_count", c.config.PrefetchCount)

	return nil
}

// consumeLoop dispatches deliveries serially until cancellation or channel
// closure.
func (c *Consumer) consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery, handler messaging.Handler) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consume loop stopped", "reason", ctx.Err())
			return
		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Info("delivery channel closed, consume loop stopped")
				return
			}
			c.handleDelivery(ctx, delivery, handler)
		}
	}
}

// handleDelivery decodes one delivery and drives the handler, then settles
// the message: ack on success, nack with requeue on failure, and reject
// without requeue once the poison cap is exceeded.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery, handler messaging.Handler) {
	msg, err := messaging.DecodeReminderMessage(delivery.Body)
	if err == nil {
		err = handler(ctx, msg)
	}

	if err == nil {
		c.clearAttempts(delivery.MessageId)
		if ackErr := delivery.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack delivery",
				"message_id", delivery.MessageId,
				"error", ackErr)
		}
		return
	}

	requeue := c.recordFailure(delivery)

	c.logger.Error("message handling failed",
		"message_id", delivery.MessageId,
		"redelivered", delivery.Redelivered,
		"requeue", requeue,
		"error", err)

	if nackErr := delivery.Nack(false, requeue); nackErr != nil {
		c.logger.Error("failed to nack delivery",
			"message_id", delivery.MessageId,
			"error", nackErr)
	}
}

// recordFailure bumps the delivery count for a failing message and reports
// whether it should be requeued. Messages without an ID cannot be tracked and
// are always requeued, matching the broker's plain at-least-once behavior.
func (c *Consumer) recordFailure(delivery amqp.Delivery) bool {
	if delivery.MessageId == "" {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.attempts[delivery.MessageId]
	if count == 0 && delivery.Redelivered {
		// First sighting of a message that already failed before this
		// process started; count the earlier delivery too.
		count = 1
	}
	count++

	if count >= c.config.MaxDeliveries {
		delete(c.attempts, delivery.MessageId)
		return false
	}

	c.attempts[delivery.MessageId] = count
	return true
}

// clearAttempts drops the failure bookkeeping for a message that succeeded.
func (c *Consumer) clearAttempts(messageID string) {
	if messageID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, messageID)
}
