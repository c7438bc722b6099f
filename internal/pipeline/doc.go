// Package pipeline contains the processing core: the task committer, the
// per-cycle orchestration, and the manual review-resolution service. One
// cycle fetches starred items, filters them against the dedup ledger, runs
// each new item through the extraction gateway, and either commits a task
// or enqueues the item for human review. Per-item failures are isolated;
// only a fatal environment error aborts a cycle.
package pipeline
