package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"startask/internal/api/shared"
	"startask/internal/domain"
	"startask/internal/pipeline"
	"startask/internal/platform/logger"
	"startask/internal/redact"
	"startask/internal/store"
)

// ReviewResolver is the handler's view of the review-resolution service.
type ReviewResolver interface {
	Complete(ctx context.Context, id uuid.UUID, input pipeline.CompleteInput) (*domain.ProcessedRecord, error)
	Skip(ctx context.Context, id uuid.UUID) error
}

// ReviewHandler handles pending-review HTTP requests.
type ReviewHandler struct {
	reviews  store.ReviewStore
	resolver ReviewResolver
	logger   *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews store.ReviewStore, resolver ReviewResolver, log *slog.Logger) *ReviewHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ReviewHandler{
		reviews:  reviews,
		resolver: resolver,
		logger:   log.With(slog.String("component", "review_handler")),
	}
}

// ListPending handles GET /api/reviews. Reviews come back oldest first.
func (h *ReviewHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.reviews.ListPending(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to list pending reviews", err)
		return
	}

	response := make([]ReviewResponse, 0, len(pending))
	for _, review := range pending {
		response = append(response, reviewToResponse(review))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// Complete handles POST /api/reviews/{id}/complete. It creates the tracker
// task from the operator-edited fields and records the outcome.
func (h *ReviewHandler) Complete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}

	var req CompleteReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "A task title is required", err)
		return
	}

	record, err := h.resolver.Complete(r.Context(), id, pipeline.CompleteInput{
		Title:     req.Title,
		LabelIDs:  req.Labels,
		Notes:     req.Notes,
		DueString: req.DueString,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("review completed via API",
		slog.String("review_id", id.String()),
		slog.String("task_id", record.ExternalTaskID))
	shared.RespondWithJSON(w, r, http.StatusOK, processedToResponse(record))
}

// Skip handles POST /api/reviews/{id}/skip. Skipped is terminal; no task is
// created and the item cannot be enqueued again.
func (h *ReviewHandler) Skip(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}

	if err := h.resolver.Skip(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("review skipped via API", slog.String("review_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// reviewID extracts and parses the review ID from the URL path, writing the
// error response itself when the ID is missing or malformed.
func (h *ReviewHandler) reviewID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Review ID is required")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid review ID format")
		return uuid.Nil, false
	}
	return id, true
}
