package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"startask/internal/domain"
)

// ProcessedStore persists the dedup tombstones for successfully committed
// items. Records are write-once: there is no update or delete.
type ProcessedStore interface {
	// Create inserts a processed record. Returns ErrProcessedRecordExists
	// if a record for the same item ID already exists.
	Create(ctx context.Context, record *domain.ProcessedRecord) error

	// Exists reports whether a processed record exists for the item ID.
	Exists(ctx context.Context, itemID string) (bool, error)

	// GetByItemID returns the processed record for the item ID.
	// Returns ErrNotFound if none exists.
	GetByItemID(ctx context.Context, itemID string) (*domain.ProcessedRecord, error)

	// CountAll returns the total number of processed records.
	CountAll(ctx context.Context) (int, error)
}

// ReviewStore persists items routed to human review.
type ReviewStore interface {
	// CreateIfAbsent inserts the review unless any review (whatever its
	// status) already exists for the same item ID. A duplicate is a silent
	// no-op: inserted reports whether a row was actually written. This
	// guards against duplicate enqueuing across overlapping cycles.
	CreateIfAbsent(ctx context.Context, review *domain.PendingReview) (inserted bool, err error)

	// ExistsPending reports whether a review with status=pending exists
	// for the item ID.
	ExistsPending(ctx context.Context, itemID string) (bool, error)

	// GetByID returns the review with the given row ID.
	// Returns ErrReviewNotFound if none exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingReview, error)

	// ListPending returns all pending reviews, oldest first.
	ListPending(ctx context.Context) ([]*domain.PendingReview, error)

	// CountPending returns the number of pending reviews.
	CountPending(ctx context.Context) (int, error)

	// Resolve transitions a pending review to completed or skipped.
	// Returns ErrReviewNotFound if the review does not exist or is no
	// longer pending; both terminal states are final.
	Resolve(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, completedAt time.Time) error
}

// ErrorStore is the append-only error log.
type ErrorStore interface {
	// Append writes one error record. Records are never mutated or deleted.
	Append(ctx context.Context, record *domain.ErrorRecord) error

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.ErrorRecord, error)
}

// StateStore holds the scheduler's durable key/value state: the running
// flag, the one-shot trigger flag, and the last-run timestamp. The trigger
// flag is durable so the review surface can request a cycle across process
// boundaries.
type StateStore interface {
	// Running reports the persisted running flag. A missing key reads as
	// false (the documented first-startup default).
	Running(ctx context.Context) (bool, error)

	// SetRunning persists the running flag.
	SetRunning(ctx context.Context, running bool) error

	// LastRunAt returns the recorded start time of the most recent cycle,
	// or the zero time if no cycle has run yet.
	LastRunAt(ctx context.Context) (time.Time, error)

	// SetLastRunAt records the start time of a cycle.
	SetLastRunAt(ctx context.Context, at time.Time) error

	// RequestTrigger sets the one-shot trigger flag.
	RequestTrigger(ctx context.Context) error

	// ConsumeTrigger atomically clears the trigger flag and reports whether
	// it was set. Two concurrent consumers observe at most one true.
	ConsumeTrigger(ctx context.Context) (bool, error)

	// Credential returns the stored credential payload under the given
	// name. The pipeline only reads credentials; their lifecycle is owned
	// by the external OAuth flow. Returns ErrCredentialNotFound if absent.
	Credential(ctx context.Context, name string) (string, error)
}
