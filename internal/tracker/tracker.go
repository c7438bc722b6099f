// Package tracker defines the boundary to the external task tracker. The
// concrete REST client lives in internal/platform/todoist; the pipeline
// depends only on this interface.
package tracker

import (
	"context"
	"errors"
)

// Common tracker errors
var (
	// ErrRequestFailed is returned when the tracker API rejects or fails a request.
	ErrRequestFailed = errors.New("tracker request failed")

	// ErrInvalidConfig is returned when the tracker client configuration is invalid.
	ErrInvalidConfig = errors.New("invalid tracker configuration")
)

// NewTask is the payload for creating one task. Labels are the tracker's
// display strings; translating registry ids into them is the committer's
// job, not the client's.
type NewTask struct {
	Content     string
	Description string
	Labels      []string
	DueString   string
}

// Task is the tracker's view of a created task.
type Task struct {
	ID          string
	Content     string
	Description string
	Labels      []string
	URL         string
}

// Tracker creates tasks in the external tracker.
type Tracker interface {
	CreateTask(ctx context.Context, task NewTask) (*Task, error)
}
