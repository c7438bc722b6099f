package api

import (
	"context"
	"log/slog"
	"net/http"

	"startask/internal/api/shared"
	"startask/internal/platform/logger"
)

// SchedulerControl is the handler's view of the scheduler: the three
// explicit state operations, never direct cycle execution.
type SchedulerControl interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	TriggerOnce(ctx context.Context) error
}

// SchedulerHandler exposes scheduler control endpoints.
type SchedulerHandler struct {
	control SchedulerControl
	logger  *slog.Logger
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(control SchedulerControl, log *slog.Logger) *SchedulerHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SchedulerHandler{
		control: control,
		logger:  log.With(slog.String("component", "scheduler_handler")),
	}
}

// Start handles POST /api/scheduler/start. Starting an already-running
// scheduler is a no-op, so the endpoint is idempotent.
func (h *SchedulerHandler) Start(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := h.control.Start(r.Context()); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to start scheduler", err)
		return
	}

	log.Info("scheduler started via API")
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"running": true})
}

// Stop handles POST /api/scheduler/stop. A cycle already in progress runs
// to completion.
func (h *SchedulerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := h.control.Stop(r.Context()); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to stop scheduler", err)
		return
	}

	log.Info("scheduler stopped via API")
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]bool{"running": false})
}

// Trigger handles POST /api/trigger. It sets the one-shot flag; the next
// poll consumes it if the scheduler is running.
func (h *SchedulerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := h.control.TriggerOnce(r.Context()); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to request trigger", err)
		return
	}

	log.Info("cycle trigger requested via API")
	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]bool{"triggered": true})
}
