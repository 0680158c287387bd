// Package api exposes the worker's operational HTTP surface: liveness and
// readiness probes. The pipeline has no user-facing endpoints; failures
// surface through logs and these probes only.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DBPinger is the slice of the database handle the readiness probe needs.
// Satisfied by *sql.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// BrokerStatus reports whether the broker connection is currently open.
// Satisfied by the rabbitmq client.
type BrokerStatus interface {
	IsConnected() bool
}

// HealthHandler serves the worker's probe endpoints.
type HealthHandler struct {
	db     DBPinger
	broker BrokerStatus
	logger *slog.Logger
}

// NewHealthHandler creates a handler checking the given dependencies.
func NewHealthHandler(db DBPinger, broker BrokerStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		broker: broker,
		logger: logger.With("component", "health_handler"),
	}
}

// Router returns a chi router with the probe routes mounted.
func (h *HealthHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Liveness)
	r.Get("/readyz", h.Readiness)

	return r
}

// healthResponse is the probe response body.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Broker   string `json:"broker,omitempty"`
}

// Liveness reports that the process is up and serving.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Readiness reports whether the worker's dependencies are usable: the
// database answers a ping and the broker connection is open.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "ok", Broker: "ok"}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("readiness check: database ping failed", "error", err)
		resp.Status = "unavailable"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if !h.broker.IsConnected() {
		resp.Status = "unavailable"
		resp.Broker = "disconnected"
		status = http.StatusServiceUnavailable
	}

	respondWithJSON(w, status, resp)
}

// respondWithJSON writes a JSON response with the given status code and body.
func respondWithJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
