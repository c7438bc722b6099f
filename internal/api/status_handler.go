package api

import (
	"errors"
	"log/slog"
	"net/http"

	"startask/internal/api/shared"
	"startask/internal/platform/logger"
	"startask/internal/redact"
	"startask/internal/store"
)

// MailCredentialName is the credentials-table row the status endpoint
// checks. The OAuth flow that writes it lives outside this process.
const MailCredentialName = "mail_oauth"

// recentErrorLimit caps the error-log excerpt in the status response.
const recentErrorLimit = 10

// StatusHandler answers the operator status query.
type StatusHandler struct {
	state     store.StateStore
	reviews   store.ReviewStore
	processed store.ProcessedStore
	errorLog  store.ErrorStore
	logger    *slog.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(
	state store.StateStore,
	reviews store.ReviewStore,
	processed store.ProcessedStore,
	errorLog store.ErrorStore,
	log *slog.Logger,
) *StatusHandler {
	if log == nil {
		log = slog.Default()
	}
	return &StatusHandler{
		state:     state,
		reviews:   reviews,
		processed: processed,
		errorLog:  errorLog,
		logger:    log.With(slog.String("component", "status_handler")),
	}
}

// GetStatus handles GET /api/status. Partial store failures degrade the
// affected fields instead of failing the whole response: the status surface
// must stay answerable even right after a fatal cycle abort.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	var response StatusResponse

	running, err := h.state.Running(ctx)
	if err != nil {
		log.Error("failed to read running flag", slog.String("error", redact.Error(err)))
	}
	response.Running = running

	if lastRun, err := h.state.LastRunAt(ctx); err != nil {
		log.Error("failed to read last run time", slog.String("error", redact.Error(err)))
	} else if !lastRun.IsZero() {
		response.LastRunAt = &lastRun
	}

	if pending, err := h.reviews.CountPending(ctx); err != nil {
		log.Error("failed to count pending reviews", slog.String("error", redact.Error(err)))
	} else {
		response.PendingReviews = pending
	}

	if total, err := h.processed.CountAll(ctx); err != nil {
		log.Error("failed to count processed records", slog.String("error", redact.Error(err)))
	} else {
		response.ProcessedTotal = total
	}

	response.RecentErrors = []ErrorEntry{}
	if records, err := h.errorLog.ListRecent(ctx, recentErrorLimit); err != nil {
		log.Error("failed to list recent errors", slog.String("error", redact.Error(err)))
	} else {
		for _, record := range records {
			response.RecentErrors = append(response.RecentErrors, ErrorEntry{
				Kind:      string(record.Kind),
				Message:   redact.String(record.Message),
				ItemID:    record.ItemID,
				CreatedAt: record.CreatedAt,
			})
		}
	}

	if _, err := h.state.Credential(ctx, MailCredentialName); err == nil {
		response.CredentialsPresent = true
	} else if !errors.Is(err, store.ErrCredentialNotFound) {
		log.Error("failed to read mail credential", slog.String("error", redact.Error(err)))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}
