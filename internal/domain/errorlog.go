package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrorKind classifies entries in the append-only error log. The kinds
// mirror the propagation policy: environment errors abort a cycle, commit
// errors are isolated per item, cycle errors cover failures of the outer
// orchestration (e.g. the fetch step).
type ErrorKind string

// Possible error kind values
const (
	ErrorKindEnvironment ErrorKind = "environment"
	ErrorKindCommit      ErrorKind = "commit"
	ErrorKindCycle       ErrorKind = "cycle"
)

// Common validation errors for ErrorRecord
var (
	ErrEmptyErrorRecordID      = errors.New("error record ID cannot be empty")
	ErrEmptyErrorRecordMessage = errors.New("error record message cannot be empty")
	ErrInvalidErrorKind        = errors.New("invalid error kind")
)

// ErrorRecord is one entry in the append-only error log. Records are never
// mutated or deleted by the pipeline; the review surface reads the most
// recent entries for diagnostics.
type ErrorRecord struct {
	ID        uuid.UUID `json:"id"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	ItemID    string    `json:"item_id,omitempty"`
	Trace     string    `json:"trace,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewErrorRecord creates an ErrorRecord of the given kind. itemID may be
// empty for errors not tied to a single item.
// Returns an error if validation fails.
func NewErrorRecord(kind ErrorKind, message, itemID string) (*ErrorRecord, error) {
	record := &ErrorRecord{
		ID:        uuid.New(),
		Kind:      kind,
		Message:   message,
		ItemID:    itemID,
		CreatedAt: time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the ErrorRecord has valid data.
func (e *ErrorRecord) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyErrorRecordID
	}
	if e.Message == "" {
		return ErrEmptyErrorRecordMessage
	}
	if !isValidErrorKind(e.Kind) {
		return ErrInvalidErrorKind
	}
	return nil
}

// isValidErrorKind checks if the given kind is a valid ErrorKind.
func isValidErrorKind(kind ErrorKind) bool {
	switch kind {
	case ErrorKindEnvironment, ErrorKindCommit, ErrorKindCycle:
		return true
	default:
		return false
	}
}
