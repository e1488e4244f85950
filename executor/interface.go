package executor

import (
	"context"
	"database/sql"
	"time"

	orchestrator "github.com/getpup/migration-orchestrator"
)

// Result is the structured outcome of one migration attempt. Callers
// always receive a Result, never a raised fault: the executor converts
// every action error and panic into a failed Result so the engine can
// decide to continue or abort deterministically.
type Result struct {
	// Success indicates the action applied without error.
	Success bool

	// AlreadyApplied indicates the action's probe reported the effect
	// present, so Apply was not invoked.
	AlreadyApplied bool

	// Err is the failure cause. Nil when Success or AlreadyApplied.
	Err error

	// ErrorDetail is the failure message persisted to history,
	// including the stack trace for panics.
	ErrorDetail string

	// StartedAt is when the attempt began.
	StartedAt time.Time

	// Duration is the attempt's wall-clock duration.
	Duration time.Duration
}

// DurationMs returns the attempt duration in whole milliseconds.
func (r Result) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// Runner executes a single migration against a database.
// This interface allows for mock implementations in tests.
type Runner interface {
	Run(ctx context.Context, def orchestrator.Definition, db *sql.DB) Result
}
