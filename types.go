package orchestrator

import (
	"context"
	"time"
)

// Status represents the lifecycle state of a single migration attempt.
type Status string

const (
	// StatusPending indicates the migration is known but has not been attempted.
	StatusPending Status = "PENDING"

	// StatusRunning indicates an attempt is currently in progress.
	// A record enters this state the instant the executor begins work.
	StatusRunning Status = "RUNNING"

	// StatusCompleted indicates the migration applied successfully.
	// Completed records are terminal and never mutated.
	StatusCompleted Status = "COMPLETED"

	// StatusFailed indicates the migration's action returned an error.
	// Failed migrations are re-attempted on the next run.
	StatusFailed Status = "FAILED"

	// StatusSkipped indicates the migration was intentionally bypassed,
	// for example because its probe reported the effect already present.
	// Skipped satisfies dependencies exactly like Completed.
	StatusSkipped Status = "SKIPPED"
)

// Terminal reports whether the status is one of the terminal states.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// Satisfied reports whether a dependency on a migration in this status
// is considered fulfilled.
func (s Status) Satisfied() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// RunState represents the overall state of an orchestration run.
type RunState string

const (
	// RunStateInitializing indicates definitions are being resolved and
	// the history schema is being prepared. No migrations have started.
	RunStateInitializing RunState = "INITIALIZING"

	// RunStateInProgress indicates migrations are executing.
	RunStateInProgress RunState = "IN_PROGRESS"

	// RunStateCompleted indicates the run processed every migration.
	// Optional migrations may still have failed; inspect the summary.
	RunStateCompleted RunState = "COMPLETED"

	// RunStateAborted indicates a critical migration failed, or a
	// configuration, persistence, or conflict error stopped the run.
	RunStateAborted RunState = "ABORTED"
)

// Definition is a single declarative migration. Definitions are static,
// compiled into the program, and never persisted.
type Definition struct {
	// Name uniquely identifies the migration, stable across runs.
	Name string

	// Version orders the migration within its phase. Unique per name.
	Version string

	// Phase is the coarse ordering bucket (1..N). Migrations in phase k
	// may only depend on migrations in phase <= k.
	Phase int

	// DependsOn lists names of migrations that must be Completed or
	// Skipped before this migration may run.
	DependsOn []string

	// Critical marks a migration whose failure aborts the entire run.
	// Non-critical failures are recorded and the run continues.
	Critical bool

	// Action performs the migration. Implementations must be idempotent.
	Action Action
}

// HistoryRecord is one persisted execution attempt of a migration.
type HistoryRecord struct {
	// Name and Version reference the Definition. Unique together.
	Name    string
	Version string

	// Status is the current state of the attempt.
	Status Status

	// ErrorMessage holds the failure detail. Set only when Status is Failed.
	ErrorMessage string

	// ExecutedAt is when the attempt began.
	ExecutedAt time.Time

	// CompletedAt is when the attempt reached a terminal state.
	// Nil while the attempt is running.
	CompletedAt *time.Time

	// DurationMs is the attempt duration in milliseconds, derived from
	// CompletedAt - ExecutedAt.
	DurationMs int64
}

// Outcome records what happened to one migration during a run.
type Outcome struct {
	// Name and Version identify the migration.
	Name    string
	Version string

	// Status is the terminal state the migration reached in this run.
	// Migrations found already satisfied in history are reported as
	// Skipped with AlreadyApplied set.
	Status Status

	// AlreadyApplied indicates the migration was satisfied by a prior
	// run and no action was invoked.
	AlreadyApplied bool

	// Critical mirrors the definition's criticality flag.
	Critical bool

	// Error is the failure detail when Status is Failed.
	Error string

	// Duration is how long the action ran. Zero when no action was invoked.
	Duration time.Duration
}

// RunSummary is the result of one orchestration run.
type RunSummary struct {
	// RunID uniquely identifies this run (UUID).
	RunID string

	// State is the final run state: Completed or Aborted.
	State RunState

	// Completed, Failed, and Skipped count migration outcomes.
	// Skipped includes migrations already satisfied by prior runs.
	Completed int
	Failed    int
	Skipped   int

	// FailedCritical and FailedOptional list names of failed migrations
	// split by criticality. A non-empty FailedCritical implies Aborted.
	FailedCritical []string
	FailedOptional []string

	// Outcomes lists per-migration results in execution order.
	// Migrations never reached because of an abort do not appear.
	Outcomes []Outcome

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is the total wall-clock time of the run.
	Duration time.Duration
}

// Orchestrator drives migration runs against a single database.
// It assumes it is the sole writer of migration history for the
// duration of a run; acquiring any external advisory lock is the
// caller's responsibility.
type Orchestrator interface {
	// Run executes all pending migrations in resolved order and returns
	// a summary. A non-nil error accompanies an Aborted summary.
	// Optional failures do not produce an error; inspect the summary.
	Run(ctx context.Context) (RunSummary, error)

	// Status returns every history record for operational inspection.
	Status(ctx context.Context) ([]HistoryRecord, error)

	// Reset deletes all history records, forcing every migration to be
	// re-executed on the next run. It never touches migrated schema or
	// data. Intended for non-production environments only.
	Reset(ctx context.Context) error
}
