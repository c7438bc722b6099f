package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"startask/internal/domain"
	"startask/internal/platform/logger"
	"startask/internal/store"
)

// ReviewStore implements the store.ReviewStore interface using a
// PostgreSQL database as the storage backend.
type ReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewReviewStore creates a new PostgreSQL implementation of the
// store.ReviewStore interface.
func NewReviewStore(db store.DBTX, log *slog.Logger) *ReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ReviewStore{
		db:     db,
		logger: log.With(slog.String("component", "review_store")),
	}
}

// Ensure ReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*ReviewStore)(nil)

// CreateIfAbsent implements store.ReviewStore.CreateIfAbsent.
// The item_id unique constraint plus ON CONFLICT DO NOTHING gives the
// insert-if-absent semantics: a second call for the same item ID is a
// silent no-op with inserted=false, never an error.
func (s *ReviewStore) CreateIfAbsent(ctx context.Context, review *domain.PendingReview) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := review.Validate(); err != nil {
		log.Warn("pending review validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", review.ItemID))
		return false, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO pending_reviews (id, item_id, thread_ref, sender, subject, body, source_link, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (item_id) DO NOTHING
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.ItemID,
		review.ThreadRef,
		review.Sender,
		review.Subject,
		review.Body,
		review.SourceLink,
		review.Status,
		review.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create pending review",
			slog.String("error", err.Error()),
			slog.String("item_id", review.ItemID))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		log.Debug("pending review already exists, insert skipped",
			slog.String("item_id", review.ItemID))
		return false, nil
	}

	log.Info("pending review created",
		slog.String("item_id", review.ItemID),
		slog.String("subject", review.Subject))
	return true, nil
}

// ExistsPending implements store.ReviewStore.ExistsPending.
func (s *ReviewStore) ExistsPending(ctx context.Context, itemID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM pending_reviews WHERE item_id = $1 AND status = $2
		)
	`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, itemID, domain.ReviewStatusPending).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// GetByID implements store.ReviewStore.GetByID.
// Returns store.ErrReviewNotFound if the review does not exist.
func (s *ReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingReview, error) {
	query := `
		SELECT id, item_id, thread_ref, sender, subject, body, source_link, status, created_at, completed_at
		FROM pending_reviews
		WHERE id = $1
	`

	review, err := s.scanReview(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrReviewNotFound
		}
		return nil, MapError(err)
	}
	return review, nil
}

// ListPending implements store.ReviewStore.ListPending.
func (s *ReviewStore) ListPending(ctx context.Context) ([]*domain.PendingReview, error) {
	query := `
		SELECT id, item_id, thread_ref, sender, subject, body, source_link, status, created_at, completed_at
		FROM pending_reviews
		WHERE status = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, domain.ReviewStatusPending)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var reviews []*domain.PendingReview
	for rows.Next() {
		review, err := s.scanReview(rows)
		if err != nil {
			return nil, MapError(err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return reviews, nil
}

// CountPending implements store.ReviewStore.CountPending.
func (s *ReviewStore) CountPending(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM pending_reviews WHERE status = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, domain.ReviewStatusPending).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// Resolve implements store.ReviewStore.Resolve.
// The status = 'pending' guard in the WHERE clause makes resolution
// first-writer-wins: a concurrent second resolution affects zero rows and
// reports ErrReviewNotFound.
func (s *ReviewStore) Resolve(ctx context.Context, id uuid.UUID, status domain.ReviewStatus, completedAt time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if status != domain.ReviewStatusCompleted && status != domain.ReviewStatusSkipped {
		return fmt.Errorf("%w: cannot resolve to status %q", store.ErrInvalidEntity, status)
	}

	query := `
		UPDATE pending_reviews
		SET status = $1, completed_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := s.db.ExecContext(ctx, query, status, completedAt, id, domain.ReviewStatusPending)
	if err != nil {
		log.Error("failed to resolve pending review",
			slog.String("error", err.Error()),
			slog.String("review_id", id.String()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrReviewNotFound
	}

	log.Info("pending review resolved",
		slog.String("review_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// rowScanner matches both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *ReviewStore) scanReview(row rowScanner) (*domain.PendingReview, error) {
	var review domain.PendingReview
	var status string
	var completedAt sql.NullTime

	err := row.Scan(
		&review.ID,
		&review.ItemID,
		&review.ThreadRef,
		&review.Sender,
		&review.Subject,
		&review.Body,
		&review.SourceLink,
		&status,
		&review.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	review.Status = domain.ReviewStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		review.CompletedAt = &t
	}

	return &review, nil
}
