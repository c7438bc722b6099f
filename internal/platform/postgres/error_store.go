package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"startask/internal/domain"
	"startask/internal/platform/logger"
	"startask/internal/store"
)

// ErrorStore implements the store.ErrorStore interface using a PostgreSQL
// database as the storage backend. The error log is append-only.
type ErrorStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewErrorStore creates a new PostgreSQL implementation of the
// store.ErrorStore interface.
func NewErrorStore(db store.DBTX, log *slog.Logger) *ErrorStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ErrorStore{
		db:     db,
		logger: log.With(slog.String("component", "error_store")),
	}
}

// Ensure ErrorStore implements store.ErrorStore interface
var _ store.ErrorStore = (*ErrorStore)(nil)

// Append implements store.ErrorStore.Append.
func (s *ErrorStore) Append(ctx context.Context, record *domain.ErrorRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO error_log (id, kind, message, item_id, trace, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.Kind,
		record.Message,
		record.ItemID,
		record.Trace,
		record.CreatedAt,
	)
	if err != nil {
		log.Error("failed to append error record",
			slog.String("error", err.Error()),
			slog.String("kind", string(record.Kind)))
		return MapError(err)
	}

	return nil
}

// ListRecent implements store.ErrorStore.ListRecent.
func (s *ErrorStore) ListRecent(ctx context.Context, limit int) ([]*domain.ErrorRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, kind, message, COALESCE(item_id, ''), COALESCE(trace, ''), created_at
		FROM error_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.ErrorRecord
	for rows.Next() {
		var record domain.ErrorRecord
		var kind string
		if err := rows.Scan(
			&record.ID,
			&kind,
			&record.Message,
			&record.ItemID,
			&record.Trace,
			&record.CreatedAt,
		); err != nil {
			return nil, MapError(err)
		}
		record.Kind = domain.ErrorKind(kind)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return records, nil
}
