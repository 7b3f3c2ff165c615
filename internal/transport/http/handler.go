// Package httptransport is the thin ops surface of the reconciler: the
// scheduler's trigger endpoint, health and metrics. The inventory CRUD API
// lives elsewhere; this service only consumes the catalog.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shelfsync/internal/domain"
	"shelfsync/internal/reconcile"
	"shelfsync/internal/source"
)

// Runner is the slice of the reconcile service the transport needs.
type Runner interface {
	Run(ctx context.Context, rows []domain.RawRow) (reconcile.Report, error)
}

// Handler exposes the trigger endpoint for the external scheduler. It
// delegates to the service without embedding business logic.
type Handler struct {
	logger *slog.Logger
	runner Runner
	rows   source.RowSource
}

func NewHandler(runner Runner, rows source.RowSource, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, runner: runner, rows: rows}
}

// Register wires the ops routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sync/run", h.handleRun)
	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// handleRun executes one batch. The scheduler guarantees at most one
// concurrent trigger, but a second trigger racing in gets 409 rather than a
// queued run: two runs over the same checkpoint would double-apply events.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.rows.Rows(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "source read failed", "error", err.Error())
		writeError(w, http.StatusBadGateway, "source_unavailable")
		return
	}

	report, err := h.runner.Run(ctx, rows)
	if err != nil {
		if reconcile.IsLockHeld(err) {
			writeError(w, http.StatusConflict, "run_in_progress")
			return
		}
		h.logger.ErrorContext(ctx, "batch run failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "batch_failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(report)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// NewRouter builds the ops router with the handler registered.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}
