// Package store defines the persistence contracts of the pipeline: the
// dedup ledger (processed records and pending reviews), the append-only
// error log, and the key/value scheduler state. Implementations live in
// internal/platform/postgres.
//
// Per-item-ID unique keys are the sole cross-process concurrency control:
// the pipeline and the review surface both rely on insert-if-absent /
// unique-key-conflict semantics rather than explicit locking.
package store
