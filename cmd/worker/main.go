// Package main implements the entry point for the reminder worker, the
// background process that scans the task store for overdue tasks, publishes
// reminder messages to the durable queue, and consumes them.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/usertasks/reminder-worker/internal/config"
	"github.com/usertasks/reminder-worker/internal/platform/logger"
	"github.com/usertasks/reminder-worker/internal/platform/postgres"
)

func main() {
	// Configuration failures happen before structured logging exists.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.Setup(cfg.Server)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to set up database", "error", err)
		os.Exit(1)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			appLogger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		appLogger.Info("database migrations applied")
	}

	app := newApplication(cfg, appLogger, db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		app.cleanup()
		appLogger.Error("worker terminated with error", "error", err)
		os.Exit(1)
	}

	app.cleanup()
}
