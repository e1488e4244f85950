// Package history defines the durable store of migration execution
// attempts: one row per (name, version), used both for resume logic
// and for audit.
package history

import (
	"context"
	"time"

	orchestrator "github.com/getpup/migration-orchestrator"
)

// Store provides persistence for migration history records.
// The engine is the only writer; reporting surfaces only read.
//
// A record is created in Running state the instant an attempt begins
// and transitions to exactly one terminal state. Completed and Skipped
// records are never mutated afterwards; Failed records are reused by a
// later re-attempt, which moves the same row back to Running.
type Store interface {
	// EnsureSchema creates the history table if it does not exist.
	// Safe to call on every run.
	EnsureSchema(ctx context.Context) error

	// Get returns the record for (name, version).
	// Returns ErrRecordNotFound if the migration has never been attempted.
	Get(ctx context.Context, name, version string) (orchestrator.HistoryRecord, error)

	// Begin records the start of an attempt, writing a Running record.
	// A prior Failed record is reused and moved back to Running.
	// Returns ErrAttemptInProgress if a Running record already exists,
	// which indicates a concurrent run violating the single-writer
	// precondition. Returns ErrAlreadyApplied if the record is already
	// Completed or Skipped.
	Begin(ctx context.Context, name, version string, executedAt time.Time) (orchestrator.HistoryRecord, error)

	// Complete transitions a Running record to Completed.
	// Returns ErrRecordNotFound if no record exists.
	Complete(ctx context.Context, name, version string, completedAt time.Time, durationMs int64) error

	// Fail transitions a Running record to Failed with the error detail.
	// Returns ErrRecordNotFound if no record exists.
	Fail(ctx context.Context, name, version, errorMessage string, completedAt time.Time, durationMs int64) error

	// Skip transitions a Running record to Skipped.
	// Returns ErrRecordNotFound if no record exists.
	Skip(ctx context.Context, name, version string, completedAt time.Time) error

	// ListAll returns every record ordered by version, then name.
	// Returns an empty slice on a fresh store.
	ListAll(ctx context.Context) ([]orchestrator.HistoryRecord, error)

	// ListByStatus returns records in the given status, ordered by
	// version, then name.
	ListByStatus(ctx context.Context, status orchestrator.Status) ([]orchestrator.HistoryRecord, error)

	// ListRecent returns up to limit records ordered most recently
	// executed first.
	ListRecent(ctx context.Context, limit int) ([]orchestrator.HistoryRecord, error)

	// Reset deletes every history record. It never touches migrated
	// schema or data.
	Reset(ctx context.Context) error
}
