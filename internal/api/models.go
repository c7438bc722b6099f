package api

import (
	"time"

	"startask/internal/domain"
)

// Common request/response structures

// StatusResponse answers the operator's three standing questions: is the
// pipeline running, when did it last run, and how much work is pending. It
// must be servable even immediately after a fatal cycle abort.
type StatusResponse struct {
	Running            bool         `json:"running"`
	LastRunAt          *time.Time   `json:"last_run_at,omitempty"`
	PendingReviews     int          `json:"pending_reviews"`
	ProcessedTotal     int          `json:"processed_total"`
	RecentErrors       []ErrorEntry `json:"recent_errors"`
	CredentialsPresent bool         `json:"credentials_present"`
}

// ErrorEntry is one error-log record in the status response.
type ErrorEntry struct {
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	ItemID    string    `json:"item_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewResponse is one pending review, carrying the snapshotted item so
// the dashboard can render the email without refetching it.
type ReviewResponse struct {
	ID          string     `json:"id"`
	ItemID      string     `json:"item_id"`
	Sender      string     `json:"sender"`
	Subject     string     `json:"subject"`
	Body        string     `json:"body"`
	SourceLink  string     `json:"source_link"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CompleteReviewRequest defines the payload for completing a pending review.
// Labels go through the same normalization as automatic extraction output.
type CompleteReviewRequest struct {
	Title     string   `json:"title"      validate:"required"`
	Labels    []string `json:"labels"`
	Notes     string   `json:"notes"`
	DueString string   `json:"due_string"`
}

// ProcessedResponse is the record created by a successful review completion.
type ProcessedResponse struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"item_id"`
	ExternalTaskID string    `json:"external_task_id"`
	TaskTitle      string    `json:"task_title"`
	LabelIDs       []string  `json:"label_ids"`
	Mode           string    `json:"mode"`
	ProcessedAt    time.Time `json:"processed_at"`
}

// reviewToResponse converts a domain.PendingReview to a ReviewResponse.
func reviewToResponse(review *domain.PendingReview) ReviewResponse {
	return ReviewResponse{
		ID:          review.ID.String(),
		ItemID:      review.ItemID,
		Sender:      review.Sender,
		Subject:     review.Subject,
		Body:        review.Body,
		SourceLink:  review.SourceLink,
		Status:      string(review.Status),
		CreatedAt:   review.CreatedAt,
		CompletedAt: review.CompletedAt,
	}
}

// processedToResponse converts a domain.ProcessedRecord to a ProcessedResponse.
func processedToResponse(record *domain.ProcessedRecord) ProcessedResponse {
	return ProcessedResponse{
		ID:             record.ID.String(),
		ItemID:         record.ItemID,
		ExternalTaskID: record.ExternalTaskID,
		TaskTitle:      record.TaskTitle,
		LabelIDs:       record.LabelIDs,
		Mode:           string(record.Mode),
		ProcessedAt:    record.ProcessedAt,
	}
}
