package pipeline

import "errors"

// Common pipeline errors
var (
	// ErrCommitFailed wraps failures of the commit step. The item was not
	// marked handled and remains eligible for retry on a future cycle.
	ErrCommitFailed = errors.New("task commit failed")

	// ErrCycleFailed wraps failures of the cycle's outer orchestration,
	// e.g. the fetch step failing for a reason other than authentication.
	ErrCycleFailed = errors.New("processing cycle failed")

	// ErrCycleAborted is returned when a fatal environment error halts a
	// cycle before the batch completes.
	ErrCycleAborted = errors.New("processing cycle aborted")
)
