package domain

// CycleResult summarizes one pass of the processing cycle. It is returned
// to the scheduler for logging and is not persisted.
type CycleResult struct {
	ProcessedCount int  `json:"processed_count"`
	PendingCount   int  `json:"pending_count"`
	ErrorCount     int  `json:"error_count"`
	Aborted        bool `json:"aborted"`
}
