package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g. a second processed record for one item).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific errors

	// ErrProcessedRecordExists indicates a processed record already exists
	// for the item. Upstream filtering should make this unreachable; hitting
	// it is a programming-invariant violation, not a user-facing condition.
	ErrProcessedRecordExists = fmt.Errorf("%w: processed record", ErrDuplicate)

	// ErrReviewNotFound indicates that the requested pending review does not exist.
	ErrReviewNotFound = fmt.Errorf("%w: pending review", ErrNotFound)

	// ErrStateKeyNotFound indicates that the requested state key has no value.
	ErrStateKeyNotFound = fmt.Errorf("%w: state key", ErrNotFound)

	// ErrCredentialNotFound indicates that no credential row exists under the name.
	ErrCredentialNotFound = fmt.Errorf("%w: credential", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
