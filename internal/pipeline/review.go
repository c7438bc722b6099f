package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"startask/internal/domain"
	"startask/internal/platform/logger"
	"startask/internal/store"
	"startask/internal/taxonomy"
	"startask/internal/tracker"
)

// Common review-resolution errors
var (
	// ErrEmptyReviewTitle is returned when a manual completion carries no
	// task title.
	ErrEmptyReviewTitle = errors.New("review completion requires a task title")
)

// CompleteInput carries the operator-supplied task fields for a manual
// review completion. LabelIDs are raw and go through the same normalization
// as automatic extraction output.
type CompleteInput struct {
	Title     string
	LabelIDs  []string
	Notes     string
	DueString string
}

// ProcessedStoreFactory builds a ProcessedStore bound to the given
// transaction or connection.
type ProcessedStoreFactory func(db store.DBTX) store.ProcessedStore

// ReviewStoreFactory builds a ReviewStore bound to the given transaction
// or connection.
type ReviewStoreFactory func(db store.DBTX) store.ReviewStore

// ReviewService resolves pending reviews. Completing a review creates the
// tracker task first (the external call cannot join a database transaction)
// and then records the processed record and the review transition
// atomically, so a crash between the two never leaves a completed review
// without its dedup tombstone.
type ReviewService struct {
	db           *sql.DB
	reviews      store.ReviewStore
	newProcessed ProcessedStoreFactory
	newReviews   ReviewStoreFactory
	tracker      tracker.Tracker
	registry     *taxonomy.Registry
	normalizer   *taxonomy.Normalizer
	logger       *slog.Logger
}

// NewReviewService creates a ReviewService. All dependencies are required.
func NewReviewService(
	db *sql.DB,
	reviews store.ReviewStore,
	newProcessed ProcessedStoreFactory,
	newReviews ReviewStoreFactory,
	trk tracker.Tracker,
	registry *taxonomy.Registry,
	normalizer *taxonomy.Normalizer,
	log *slog.Logger,
) (*ReviewService, error) {
	switch {
	case db == nil:
		return nil, errors.New("database cannot be nil")
	case reviews == nil:
		return nil, errors.New("review store cannot be nil")
	case newProcessed == nil:
		return nil, errors.New("processed store factory cannot be nil")
	case newReviews == nil:
		return nil, errors.New("review store factory cannot be nil")
	case trk == nil:
		return nil, errors.New("tracker cannot be nil")
	case registry == nil:
		return nil, errors.New("registry cannot be nil")
	case normalizer == nil:
		return nil, errors.New("normalizer cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ReviewService{
		db:           db,
		reviews:      reviews,
		newProcessed: newProcessed,
		newReviews:   newReviews,
		tracker:      trk,
		registry:     registry,
		normalizer:   normalizer,
		logger:       log.With(slog.String("component", "review_service")),
	}, nil
}

// Complete turns a pending review into a committed task using the
// operator-edited fields. The review's item snapshot supplies the sender,
// subject, and source link for the task description. Returns the created
// processed record.
//
// Returns domain.ErrReviewNotPending if the review is already resolved and
// store.ErrReviewNotFound if it does not exist.
func (s *ReviewService) Complete(
	ctx context.Context,
	id uuid.UUID,
	input CompleteInput,
) (*domain.ProcessedRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyReviewTitle
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.Status != domain.ReviewStatusPending {
		return nil, domain.ErrReviewNotPending
	}

	labelIDs := s.normalizer.Normalize(input.LabelIDs)
	displayLabels := make([]string, 0, len(labelIDs))
	for _, labelID := range labelIDs {
		display, err := s.registry.DisplayString(labelID)
		if err != nil {
			return nil, fmt.Errorf("%w: translate label %q: %v", ErrCommitFailed, labelID, err)
		}
		displayLabels = append(displayLabels, display)
	}

	task, err := s.tracker.CreateTask(ctx, tracker.NewTask{
		Content:     title,
		Description: ComposeDescription(review.Sender, review.Subject, input.Notes, review.SourceLink),
		Labels:      displayLabels,
		DueString:   input.DueString,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create task: %v", ErrCommitFailed, err)
	}

	record, err := domain.NewProcessedRecord(review.ItemID, task.ID, title, labelIDs, domain.ProcessModeManual)
	if err != nil {
		return nil, fmt.Errorf("%w: build processed record: %v", ErrCommitFailed, err)
	}

	completedAt := time.Now().UTC()
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.newProcessed(tx).Create(ctx, record); err != nil {
			return err
		}
		return s.newReviews(tx).Resolve(ctx, id, domain.ReviewStatusCompleted, completedAt)
	})
	if err != nil {
		// The tracker task exists but the ledger does not know about it.
		// Surfacing the row IDs lets an operator reconcile by hand.
		log.Error("review completion not recorded, tracker task is orphaned",
			slog.String("review_id", id.String()),
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: record completion: %v", ErrCommitFailed, err)
	}

	log.Info("review completed",
		slog.String("review_id", id.String()),
		slog.String("item_id", review.ItemID),
		slog.String("task_id", task.ID))

	return record, nil
}

// Skip resolves a pending review without creating a task. Skipped is
// terminal: the review row remains and blocks the item from being enqueued
// again, but no processed record is ever written for it.
func (s *ReviewService) Skip(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.reviews.Resolve(ctx, id, domain.ReviewStatusSkipped, time.Now().UTC()); err != nil {
		return err
	}

	log.Info("review skipped", slog.String("review_id", id.String()))
	return nil
}
