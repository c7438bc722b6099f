package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"startask/internal/platform/logger"
	"startask/internal/store"
)

// State keys used in the app_state table.
const (
	stateKeyRunning   = "running"
	stateKeyTrigger   = "trigger_requested"
	stateKeyLastRunAt = "last_run_at"
)

// StateStore implements the store.StateStore interface on the app_state
// key/value table plus the read-only credentials table.
type StateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewStateStore creates a new PostgreSQL implementation of the
// store.StateStore interface.
func NewStateStore(db store.DBTX, log *slog.Logger) *StateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &StateStore{
		db:     db,
		logger: log.With(slog.String("component", "state_store")),
	}
}

// Ensure StateStore implements store.StateStore interface
var _ store.StateStore = (*StateStore)(nil)

// Running implements store.StateStore.Running.
// A missing key reads as false, the documented first-startup default.
func (s *StateStore) Running(ctx context.Context) (bool, error) {
	value, err := s.get(ctx, stateKeyRunning)
	if err != nil {
		if errors.Is(err, store.ErrStateKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return value == "true", nil
}

// SetRunning implements store.StateStore.SetRunning.
func (s *StateStore) SetRunning(ctx context.Context, running bool) error {
	value := "false"
	if running {
		value = "true"
	}
	return s.set(ctx, stateKeyRunning, value)
}

// LastRunAt implements store.StateStore.LastRunAt.
// Returns the zero time if no cycle has run yet.
func (s *StateStore) LastRunAt(ctx context.Context) (time.Time, error) {
	value, err := s.get(ctx, stateKeyLastRunAt)
	if err != nil {
		if errors.Is(err, store.ErrStateKeyNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}

	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last_run_at value %q: %w", value, err)
	}
	return at, nil
}

// SetLastRunAt implements store.StateStore.SetLastRunAt.
func (s *StateStore) SetLastRunAt(ctx context.Context, at time.Time) error {
	return s.set(ctx, stateKeyLastRunAt, at.UTC().Format(time.RFC3339Nano))
}

// RequestTrigger implements store.StateStore.RequestTrigger.
func (s *StateStore) RequestTrigger(ctx context.Context) error {
	return s.set(ctx, stateKeyTrigger, "true")
}

// ConsumeTrigger implements store.StateStore.ConsumeTrigger.
// The value = 'true' guard makes the clear atomic: of two concurrent
// consumers only one observes an affected row.
func (s *StateStore) ConsumeTrigger(ctx context.Context) (bool, error) {
	query := `
		UPDATE app_state
		SET value = 'false', updated_at = NOW()
		WHERE key = $1 AND value = 'true'
	`
	result, err := s.db.ExecContext(ctx, query, stateKeyTrigger)
	if err != nil {
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// Credential implements store.StateStore.Credential.
// Credentials are written by the external OAuth flow; the pipeline only
// reads them. Returns store.ErrCredentialNotFound if no row exists.
func (s *StateStore) Credential(ctx context.Context, name string) (string, error) {
	query := `SELECT payload FROM credentials WHERE name = $1`

	var payload string
	err := s.db.QueryRowContext(ctx, query, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", store.ErrCredentialNotFound, name)
		}
		return "", MapError(err)
	}
	return payload, nil
}

func (s *StateStore) get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM app_state WHERE key = $1`

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", store.ErrStateKeyNotFound, key)
		}
		return "", MapError(err)
	}
	return value, nil
}

func (s *StateStore) set(ctx context.Context, key, value string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO app_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		log.Error("failed to set state key",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return MapError(err)
	}

	return nil
}
