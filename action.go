package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
)

// Action is the executable side of a migration. Implementations are
// concrete types collected into a Registry at program start, one per
// migration, rather than loosely-typed closures keyed by name.
//
// Apply must be idempotent: it is invoked against databases where the
// target state may already partially or fully exist. Probe lets the
// engine skip Apply entirely when the effect is already present, so
// idempotency is enforced structurally rather than by convention
// inside every Apply.
type Action interface {
	// Probe reports whether the migration's effect is already present.
	// Returning (false, nil) means Apply should run. Probe must not
	// mutate the database.
	Probe(ctx context.Context, db *sql.DB) (bool, error)

	// Apply performs the migration against the database.
	Apply(ctx context.Context, db *sql.DB) error
}

// SQLAction is an Action that executes literal SQL statements in order.
// ProbeQuery, when set, must select a single value that scans to true
// when the migration has already been applied (for example an
// information_schema existence check).
type SQLAction struct {
	// ProbeQuery is an optional single-value query reporting whether
	// the migration is already applied. Empty means always apply.
	ProbeQuery string

	// Statements are executed sequentially. Each statement should be
	// individually idempotent (conditional DDL, existence-checked DML).
	Statements []string
}

// Probe runs ProbeQuery and scans its single result as a boolean.
// Returns false without querying when ProbeQuery is empty.
func (a SQLAction) Probe(ctx context.Context, db *sql.DB) (bool, error) {
	if a.ProbeQuery == "" {
		return false, nil
	}

	var applied bool
	if err := db.QueryRowContext(ctx, a.ProbeQuery).Scan(&applied); err != nil {
		return false, fmt.Errorf("probe query failed: %w", err)
	}

	return applied, nil
}

// Apply executes each statement in order, stopping at the first error.
func (a SQLAction) Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range a.Statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d failed: %w", i+1, err)
		}
	}

	return nil
}

// FuncAction adapts plain functions to the Action interface. Useful for
// data migrations and tests. A nil ProbeFunc reports not-applied, which
// defers all idempotency to ApplyFunc.
type FuncAction struct {
	ProbeFunc func(ctx context.Context, db *sql.DB) (bool, error)
	ApplyFunc func(ctx context.Context, db *sql.DB) error
}

// Probe invokes ProbeFunc, or reports not-applied when it is nil.
func (a FuncAction) Probe(ctx context.Context, db *sql.DB) (bool, error) {
	if a.ProbeFunc == nil {
		return false, nil
	}

	return a.ProbeFunc(ctx, db)
}

// Apply invokes ApplyFunc.
func (a FuncAction) Apply(ctx context.Context, db *sql.DB) error {
	if a.ApplyFunc == nil {
		return ErrNilAction
	}

	return a.ApplyFunc(ctx, db)
}
