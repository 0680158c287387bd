package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/usertasks/reminder-worker/internal/config"
	"github.com/usertasks/reminder-worker/internal/messaging"
)

// Options holds the connection and queue settings for the broker client.
type Options struct {
	Host      string
	Port      int
	User      string
	Password  string
	QueueName string
}

// OptionsFromConfig maps the broker section of the worker configuration to
// client options.
func OptionsFromConfig(cfg config.BrokerConfig) Options {
	return Options{
		Host:      cfg.Host,
		Port:      cfg.Port,
		User:      cfg.User,
		Password:  cfg.Password,
		QueueName: cfg.QueueName,
	}
}

// url builds the AMQP connection URL from the options. Credentials are
// escaped so passwords containing reserved characters survive the round trip
// through URL parsing.
func (o Options) url() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		url.QueryEscape(o.User),
		url.QueryEscape(o.Password),
		o.Host,
		o.Port,
	)
}

// Client owns the single connection and channel to the broker shared by the
// publisher and consumer, and declares the durable queue both sides use.
// Steady-state recovery from transient network loss is the client library's
// concern; this type only implements first-connect behavior (retried with
// backoff by the supervisor) and teardown.
type Client struct {
	opts   Options
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewClient creates a broker client. No network activity happens until
// Initialize is called.
func NewClient(opts Options, logger *slog.Logger) *Client {
	return &Client{
		opts:   opts,
		logger: logger.With("component", "rabbitmq_client"),
	}
}

// Initialize dials the broker, opens a channel, and declares the durable
// queue. It is idempotent: calling it again after a successful initialization
// is a no-op. A context deadline, when present, bounds the dial.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil {
		return nil
	}

	amqpConfig := amqp.Config{
		Properties: amqp.NewConnectionProperties(),
		Heartbeat:  10 * time.Second,
	}
	if deadline, ok := ctx.Deadline(); ok {
		amqpConfig.Dial = amqp.DefaultDial(time.Until(deadline))
	}

	conn, err := amqp.DialConfig(c.opts.url(), amqpConfig)
	if err != nil {
		return fmt.Errorf("%w: %v", messaging.ErrConnectionFailed, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: failed to open channel: %v", messaging.ErrConnectionFailed, err)
	}

	// Durable, non-exclusive, non-auto-delete: the queue and its persisted
	// messages survive broker restarts, and multiple processes can share it.
	_, err = channel.QueueDeclare(
		c.opts.QueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return fmt.Errorf("%w: failed to declare queue %q: %v",
			messaging.ErrConnectionFailed, c.opts.QueueName, err)
	}

	// Surface unexpected disconnects in the logs; reconnection itself is
	// left to the client library and the deployment's restart policy.
	closures := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr := <-closures; amqpErr != nil {
			c.logger.Error("broker connection closed unexpectedly", "error", amqpErr)
		}
	}()

	c.conn = conn
	c.channel = channel

	c.logger.Info("broker connection established",
		"host", c.opts.Host,
		"port", c.opts.Port,
		"queue", c.opts.QueueName)

	return nil
}

// Channel returns the shared channel, or messaging.ErrNotInitialized when
// Initialize has not succeeded yet.
func (c *Client) Channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil {
		return nil, messaging.ErrNotInitialized
	}
	return c.channel, nil
}

// QueueName returns the name of the queue this client declared.
func (c *Client) QueueName() string {
	return c.opts.QueueName
}

// IsConnected reports whether the connection is currently open. Used by the
// readiness endpoint.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil && !c.conn.IsClosed()
}

// Close releases the channel and then the connection. Safe to call multiple
// times and before Initialize.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close channel: %w", err)
		}
		c.channel = nil
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close connection: %w", err)
		}
		c.conn = nil
	}

	return firstErr
}
