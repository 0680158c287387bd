package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/usertasks/reminder-worker/internal/messaging"
)

// Broker is the slice of the broker client the supervisor drives during
// startup and shutdown.
type Broker interface {
	Initialize(ctx context.Context) error
	Close() error
}

// ReminderConsumer is the slice of the consumer the supervisor drives:
// initialization (queue declaration and prefetch) followed by asynchronous
// consumption.
type ReminderConsumer interface {
	Initialize(ctx context.Context) error
	StartConsuming(ctx context.Context, handler messaging.Handler) error
}

// SupervisorConfig holds the startup-retry settings.
type SupervisorConfig struct {
	// ConnectAttempts bounds how many times the first broker connection is
	// tried before startup is treated as fatal.
	ConnectAttempts int

	// ConnectBackoff is the fixed delay between connection attempts.
	ConnectBackoff time.Duration
}

// Supervisor wires the pipeline together and owns its lifecycle: connect to
// the broker (with bounded fixed-backoff retry), initialize the consumer,
// start consuming, start the scanner, and tear everything down in order on
// Stop.
type Supervisor struct {
	broker   Broker
	consumer ReminderConsumer
	scanner  *Scanner
	handler  messaging.Handler
	config   SupervisorConfig
	logger   *slog.Logger

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSupervisor creates a supervisor over the pipeline's components. The
// handler is invoked for every consumed reminder.
func NewSupervisor(
	broker Broker,
	consumer ReminderConsumer,
	scanner *Scanner,
	handler messaging.Handler,
	config SupervisorConfig,
	logger *slog.Logger,
) *Supervisor {
	if config.ConnectAttempts <= 0 {
		config.ConnectAttempts = 5
	}
	if config.ConnectBackoff <= 0 {
		config.ConnectBackoff = 5 * time.Second
	}

	return &Supervisor{
		broker:   broker,
		consumer: consumer,
		scanner:  scanner,
		handler:  handler,
		config:   config,
		logger:   logger.With("component", "supervisor"),
	}
}

// Start brings the pipeline up in order. A broker that stays unreachable
// through every connection attempt makes Start return an error; the process
// is useless without the broker, so the caller should exit rather than
// degrade silently. On success the consumer and scanner run in the
// background until Stop.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := s.connectWithRetry(ctx); err != nil {
		return err
	}

	if err := s.consumer.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize consumer: %w", err)
	}

	// The run context outlives Start's ctx: startup cancellation must not
	// kill an already-running pipeline. Stop owns this context.
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := s.consumer.StartConsuming(runCtx, s.handler); err != nil {
		cancel()
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.scanner.Run(runCtx)
	}()

	s.logger.Info("pipeline started")
	return nil
}

// connectWithRetry tries the first broker connection with a fixed backoff
// between attempts, up to the configured bound.
func (s *Supervisor) connectWithRetry(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= s.config.ConnectAttempts; attempt++ {
		err := s.broker.Initialize(ctx)
		if err == nil {
			if attempt > 1 {
				s.logger.Info("broker connected after retry", "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		s.logger.Warn("broker connection attempt failed",
			"attempt", attempt,
			"max_attempts", s.config.ConnectAttempts,
			"backoff", s.config.ConnectBackoff,
			"error", err)

		if attempt == s.config.ConnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("startup cancelled while waiting to reconnect: %w", ctx.Err())
		case <-time.After(s.config.ConnectBackoff):
		}
	}

	return fmt.Errorf("broker unreachable after %d attempts: %w",
		s.config.ConnectAttempts, lastErr)
}

// Stop shuts the pipeline down: cancel the scanner and consumer loops, wait
// for the scanner goroutine, and close the broker connection so in-flight
// unacked deliveries return to the queue. Idempotent.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()

		if err := s.broker.Close(); err != nil {
			s.logger.Error("failed to close broker connection", "error", err)
		}

		s.logger.Info("pipeline stopped")
	})
}

// LogHandler returns the default reminder handler, which records the due
// task in the process log. Deployments wanting email or push delivery swap
// in their own handler at wiring time.
func LogHandler(logger *slog.Logger) messaging.Handler {
	return func(ctx context.Context, msg messaging.ReminderMessage) error {
		logger.Info("task is due",
			"task_id", msg.TaskID,
			"title", msg.Title,
			"due_date_utc", msg.DueDateUTC)
		return nil
	}
}
