package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"startask/internal/domain"
	"startask/internal/platform/logger"
	"startask/internal/store"
)

// ProcessedStore implements the store.ProcessedStore interface using a
// PostgreSQL database as the storage backend.
type ProcessedStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewProcessedStore creates a new PostgreSQL implementation of the
// store.ProcessedStore interface. It accepts a database connection or
// transaction managed by the caller. If logger is nil, a default logger
// will be used.
func NewProcessedStore(db store.DBTX, log *slog.Logger) *ProcessedStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &ProcessedStore{
		db:     db,
		logger: log.With(slog.String("component", "processed_store")),
	}
}

// Ensure ProcessedStore implements store.ProcessedStore interface
var _ store.ProcessedStore = (*ProcessedStore)(nil)

// Create implements store.ProcessedStore.Create.
// Returns store.ErrProcessedRecordExists on a duplicate item ID; that case
// indicates upstream filtering failed and is treated as an invariant
// violation by the caller.
func (s *ProcessedStore) Create(ctx context.Context, record *domain.ProcessedRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("processed record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	labelIDs, err := json.Marshal(record.LabelIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal label ids: %w", err)
	}

	query := `
		INSERT INTO processed_records (id, item_id, external_task_id, task_title, label_ids, mode, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.ItemID,
		record.ExternalTaskID,
		record.TaskTitle,
		labelIDs,
		record.Mode,
		record.ProcessedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate processed record insert",
				slog.String("item_id", record.ItemID))
			return fmt.Errorf("%w: item %s", store.ErrProcessedRecordExists, record.ItemID)
		}

		log.Error("failed to create processed record",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID))
		return MapError(err)
	}

	log.Info("processed record created",
		slog.String("item_id", record.ItemID),
		slog.String("external_task_id", record.ExternalTaskID),
		slog.String("mode", string(record.Mode)))
	return nil
}

// Exists implements store.ProcessedStore.Exists.
func (s *ProcessedStore) Exists(ctx context.Context, itemID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM processed_records WHERE item_id = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, itemID).Scan(&exists); err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// GetByItemID implements store.ProcessedStore.GetByItemID.
// Returns store.ErrNotFound if no record exists for the item ID.
func (s *ProcessedStore) GetByItemID(ctx context.Context, itemID string) (*domain.ProcessedRecord, error) {
	query := `
		SELECT id, item_id, external_task_id, task_title, label_ids, mode, processed_at
		FROM processed_records
		WHERE item_id = $1
	`

	var record domain.ProcessedRecord
	var labelIDs []byte
	var mode string

	err := s.db.QueryRowContext(ctx, query, itemID).Scan(
		&record.ID,
		&record.ItemID,
		&record.ExternalTaskID,
		&record.TaskTitle,
		&labelIDs,
		&mode,
		&record.ProcessedAt,
	)
	if err != nil {
		return nil, MapError(err)
	}

	if err := json.Unmarshal(labelIDs, &record.LabelIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal label ids: %w", err)
	}
	record.Mode = domain.ProcessMode(mode)

	return &record, nil
}

// CountAll implements store.ProcessedStore.CountAll.
func (s *ProcessedStore) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_records`).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}
