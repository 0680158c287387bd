package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/usertasks/reminder-worker/internal/api"
	"github.com/usertasks/reminder-worker/internal/config"
	"github.com/usertasks/reminder-worker/internal/platform/logger"
	"github.com/usertasks/reminder-worker/internal/platform/postgres"
	"github.com/usertasks/reminder-worker/internal/platform/rabbitmq"
	"github.com/usertasks/reminder-worker/internal/store"
	"github.com/usertasks/reminder-worker/internal/worker"
)

// application holds the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	taskStore store.TaskStore

	brokerClient *rabbitmq.Client
	publisher    *rabbitmq.Publisher
	consumer     *rabbitmq.Consumer

	scanner    *worker.Scanner
	supervisor *worker.Supervisor

	healthServer *http.Server
}

// newApplication wires all pipeline components together. The broker client
// is shared by the publisher and consumer so the process holds a single
// connection and channel with an explicit owner.
func newApplication(cfg *config.Config, appLogger *slog.Logger, db *sql.DB) *application {
	app := &application{
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	app.taskStore = postgres.NewPostgresTaskStore(db)

	app.brokerClient = rabbitmq.NewClient(
		rabbitmq.OptionsFromConfig(cfg.Broker),
		appLogger,
	)
	app.publisher = rabbitmq.NewPublisher(app.brokerClient, appLogger)
	app.consumer = rabbitmq.NewConsumer(app.brokerClient, rabbitmq.ConsumerConfig{
		PrefetchCount: cfg.Worker.PrefetchCount,
		MaxDeliveries: cfg.Worker.MaxDeliveries,
	}, appLogger)

	app.scanner = worker.NewScanner(app.taskStore, app.publisher, worker.ScannerConfig{
		PollInterval: time.Duration(cfg.Worker.PollSeconds) * time.Second,
		BatchSize:    cfg.Worker.BatchSize,
	}, appLogger)

	app.supervisor = worker.NewSupervisor(
		app.brokerClient,
		app.consumer,
		app.scanner,
		worker.LogHandler(appLogger.With("component", "reminder_handler")),
		worker.SupervisorConfig{
			ConnectAttempts: cfg.Worker.ConnectAttempts,
			ConnectBackoff:  time.Duration(cfg.Worker.ConnectBackoffSeconds) * time.Second,
		},
		appLogger,
	)

	healthHandler := api.NewHealthHandler(db, app.brokerClient, appLogger)
	app.healthServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HealthPort),
		Handler:           healthHandler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return app
}

// Run starts the pipeline and the health endpoints, then blocks until the
// context is cancelled (shutdown signal) or startup fails.
func (app *application) Run(ctx context.Context) error {
	ctx = logger.WithLogger(ctx, app.logger)

	go func() {
		app.logger.Info("health endpoints listening", "addr", app.healthServer.Addr)
		if err := app.healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("health server failed", "error", err)
		}
	}()

	if err := app.supervisor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	app.logger.Info("worker started",
		"queue", app.config.Broker.QueueName,
		"poll_seconds", app.config.Worker.PollSeconds,
		"batch_size", app.config.Worker.BatchSize)

	<-ctx.Done()
	app.logger.Info("shutdown signal received")
	return nil
}

// cleanup handles graceful shutdown of application resources on all exit
// paths: stop the pipeline, stop the health endpoints, close the database.
func (app *application) cleanup() {
	if app.supervisor != nil {
		app.supervisor.Stop()
	}

	if app.healthServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.healthServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("error shutting down health server", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("worker shutdown completed")
}
