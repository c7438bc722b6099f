package api

import (
	"errors"
	"net/http"

	"startask/internal/domain"
	"startask/internal/pipeline"
	"startask/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, pipeline.ErrEmptyReviewTitle),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, store.ErrReviewNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, domain.ErrReviewNotPending),
		errors.Is(err, store.ErrProcessedRecordExists):
		return http.StatusConflict

	// The tracker rejected or failed the commit
	case errors.Is(err, pipeline.ErrCommitFailed):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"

	case errors.Is(err, pipeline.ErrEmptyReviewTitle):
		return "A task title is required"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	case errors.Is(err, store.ErrReviewNotFound):
		return "Review not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, domain.ErrReviewNotPending):
		return "Review already resolved"

	case errors.Is(err, store.ErrProcessedRecordExists):
		return "Item already processed"

	case errors.Is(err, pipeline.ErrCommitFailed):
		return "Failed to create tracker task"

	default:
		return "An unexpected error occurred"
	}
}
