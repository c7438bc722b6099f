package domain

import "errors"

// Common validation errors for ExtractionResult
var (
	ErrEmptyTaskTitle = errors.New("extraction result task title cannot be empty")
)

// ExtractionResult is the structured task proposal the extractor derived
// from one Item. It is transient: produced by the extraction gateway,
// consumed once by the committer, never persisted on its own.
//
// LabelIDs preserves the extractor's order and may contain ids that are not
// in the registry; the normalizer repairs the set downstream.
type ExtractionResult struct {
	TaskTitle string   `json:"task_title"`
	LabelIDs  []string `json:"label_ids"`
	Notes     string   `json:"notes,omitempty"`
	DueHint   string   `json:"due_hint,omitempty"`
}

// Validate checks if the ExtractionResult has valid data.
func (r *ExtractionResult) Validate() error {
	if r.TaskTitle == "" {
		return ErrEmptyTaskTitle
	}
	return nil
}
