package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewStatus represents the lifecycle state of a pending review.
type ReviewStatus string

// Possible review status values
const (
	ReviewStatusPending   ReviewStatus = "pending"
	ReviewStatusCompleted ReviewStatus = "completed"
	ReviewStatusSkipped   ReviewStatus = "skipped"
)

// Common validation and transition errors for PendingReview
var (
	ErrEmptyReviewID       = errors.New("pending review ID cannot be empty")
	ErrEmptyReviewItemID   = errors.New("pending review item ID cannot be empty")
	ErrInvalidReviewStatus = errors.New("invalid review status")
	ErrReviewNotPending    = errors.New("pending review is already resolved")
)

// PendingReview is the durable record of an item routed to human review
// because extraction was unavailable or failed. It snapshots the item
// fields so the review surface can render the email without refetching it.
//
// A review is created at most once per item ID (insert-if-absent) and moves
// from pending to exactly one of completed or skipped; both are terminal.
type PendingReview struct {
	ID          uuid.UUID    `json:"id"`
	ItemID      string       `json:"item_id"`
	ThreadRef   string       `json:"thread_ref"`
	Sender      string       `json:"sender"`
	Subject     string       `json:"subject"`
	Body        string       `json:"body"`
	SourceLink  string       `json:"source_link"`
	Status      ReviewStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// NewPendingReview creates a pending review snapshotting the given item.
// Returns an error if validation fails.
func NewPendingReview(item Item) (*PendingReview, error) {
	review := &PendingReview{
		ID:         uuid.New(),
		ItemID:     item.ID,
		ThreadRef:  item.ThreadRef,
		Sender:     item.Sender,
		Subject:    item.Subject,
		Body:       item.Body,
		SourceLink: item.SourceLink,
		Status:     ReviewStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := review.Validate(); err != nil {
		return nil, err
	}

	return review, nil
}

// Validate checks if the PendingReview has valid data.
func (r *PendingReview) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyReviewID
	}
	if r.ItemID == "" {
		return ErrEmptyReviewItemID
	}
	if !isValidReviewStatus(r.Status) {
		return ErrInvalidReviewStatus
	}
	return nil
}

// Complete transitions the review to completed. Only pending reviews can
// be completed; resolving twice is a caller bug surfaced as an error.
func (r *PendingReview) Complete(at time.Time) error {
	if r.Status != ReviewStatusPending {
		return ErrReviewNotPending
	}
	r.Status = ReviewStatusCompleted
	r.CompletedAt = &at
	return nil
}

// Skip transitions the review to skipped, the terminal state with no task.
func (r *PendingReview) Skip(at time.Time) error {
	if r.Status != ReviewStatusPending {
		return ErrReviewNotPending
	}
	r.Status = ReviewStatusSkipped
	r.CompletedAt = &at
	return nil
}

// isValidReviewStatus checks if the given status is a valid ReviewStatus.
func isValidReviewStatus(status ReviewStatus) bool {
	switch status {
	case ReviewStatusPending, ReviewStatusCompleted, ReviewStatusSkipped:
		return true
	default:
		return false
	}
}
