package main

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usertasks/reminder-worker/internal/config"
)

// testConfig returns a fully populated configuration for wiring tests.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			LogLevel:   "info",
			HealthPort: 8081,
		},
		Database: config.DatabaseConfig{
			URL: "postgres://localhost:5432/tasks",
		},
		Broker: config.BrokerConfig{
			Host:      "localhost",
			Port:      5672,
			User:      "guest",
			Password:  "guest",
			QueueName: "Remainder",
		},
		Worker: config.WorkerConfig{
			PollSeconds:           30,
			BatchSize:             50,
			PrefetchCount:         10,
			ConnectAttempts:       5,
			ConnectBackoffSeconds: 5,
			MaxDeliveries:         5,
		},
	}
}

func TestNewApplication_WiresAllComponents(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// sql.Open is lazy; no database is contacted during wiring.
	db, err := sql.Open("pgx", cfg.Database.URL)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	app := newApplication(cfg, logger, db)

	assert.NotNil(t, app.taskStore)
	assert.NotNil(t, app.brokerClient)
	assert.NotNil(t, app.publisher)
	assert.NotNil(t, app.consumer)
	assert.NotNil(t, app.scanner)
	assert.NotNil(t, app.supervisor)
	require.NotNil(t, app.healthServer)
	assert.Equal(t, ":8081", app.healthServer.Addr)
}
