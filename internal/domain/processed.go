package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProcessMode records whether a task was committed by the automated
// pipeline or by a human resolving a pending review.
type ProcessMode string

// Possible process mode values
const (
	ProcessModeAuto   ProcessMode = "auto"
	ProcessModeManual ProcessMode = "manual"
)

// Common validation errors for ProcessedRecord
var (
	ErrEmptyProcessedID         = errors.New("processed record ID cannot be empty")
	ErrEmptyProcessedItemID     = errors.New("processed record item ID cannot be empty")
	ErrEmptyExternalTaskID      = errors.New("processed record external task ID cannot be empty")
	ErrEmptyProcessedTaskTitle  = errors.New("processed record task title cannot be empty")
	ErrInvalidProcessMode       = errors.New("invalid process mode")
	ErrZeroProcessedAtTimestamp = errors.New("processed record timestamp cannot be zero")
)

// ProcessedRecord is the durable proof that an item was committed to the
// tracker. Exactly one row exists per item ID; it is created once, never
// updated, and acts as the dedup tombstone for successful processing.
type ProcessedRecord struct {
	ID             uuid.UUID   `json:"id"`
	ItemID         string      `json:"item_id"`
	ExternalTaskID string      `json:"external_task_id"`
	TaskTitle      string      `json:"task_title"`
	LabelIDs       []string    `json:"label_ids"`
	Mode           ProcessMode `json:"mode"`
	ProcessedAt    time.Time   `json:"processed_at"`
}

// NewProcessedRecord creates a ProcessedRecord for the given item with a
// fresh row ID and the current UTC timestamp.
// Returns an error if validation fails.
func NewProcessedRecord(
	itemID, externalTaskID, taskTitle string,
	labelIDs []string,
	mode ProcessMode,
) (*ProcessedRecord, error) {
	record := &ProcessedRecord{
		ID:             uuid.New(),
		ItemID:         itemID,
		ExternalTaskID: externalTaskID,
		TaskTitle:      taskTitle,
		LabelIDs:       append([]string(nil), labelIDs...),
		Mode:           mode,
		ProcessedAt:    time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the ProcessedRecord has valid data.
func (p *ProcessedRecord) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyProcessedID
	}
	if p.ItemID == "" {
		return ErrEmptyProcessedItemID
	}
	if p.ExternalTaskID == "" {
		return ErrEmptyExternalTaskID
	}
	if p.TaskTitle == "" {
		return ErrEmptyProcessedTaskTitle
	}
	if !isValidProcessMode(p.Mode) {
		return ErrInvalidProcessMode
	}
	if p.ProcessedAt.IsZero() {
		return ErrZeroProcessedAtTimestamp
	}
	return nil
}

// isValidProcessMode checks if the given mode is a valid ProcessMode.
func isValidProcessMode(mode ProcessMode) bool {
	switch mode {
	case ProcessModeAuto, ProcessModeManual:
		return true
	default:
		return false
	}
}
