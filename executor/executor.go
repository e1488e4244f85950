// Package executor runs a single migration's action and converts its
// outcome into a structured result. It does not consult history; the
// decision to skip already-completed migrations belongs to the engine.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	orchestrator "github.com/getpup/migration-orchestrator"
)

// Config configures the migration executor.
type Config struct {
	// Logger is an optional logger for per-attempt observability.
	Logger *zap.Logger

	// Now is the clock used to timestamp attempts. Defaults to
	// time.Now in UTC. Injectable for deterministic tests.
	Now func() time.Time
}

// Executor executes migration actions, probing first so actions whose
// effect is already present are skipped without running Apply.
type Executor struct {
	logger *zap.Logger
	now    func() time.Time
}

// Compile-time check that Executor implements Runner.
var _ Runner = (*Executor)(nil)

// New creates a new Executor with the given configuration.
// It applies defaults for Logger and Now if unset.
func New(cfg Config) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Executor{
		logger: cfg.Logger,
		now:    cfg.Now,
	}
}

// Run executes the definition's action exactly once. The probe runs
// first; when it reports the effect already present, Apply is skipped
// and the result carries AlreadyApplied. Errors and panics from the
// action are captured into the result, never re-raised.
func (e *Executor) Run(ctx context.Context, def orchestrator.Definition, db *sql.DB) (res Result) {
	res.StartedAt = e.now()

	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Err = fmt.Errorf("migration %s panicked: %v", def.Name, r)
			res.ErrorDetail = fmt.Sprintf("panic: %v\n%s", r, debug.Stack())
			res.Duration = e.now().Sub(res.StartedAt)

			e.logger.Error("migration panicked",
				zap.String("name", def.Name),
				zap.String("version", def.Version),
				zap.Any("panic", r))
		}
	}()

	if def.Action == nil {
		res.Err = orchestrator.ErrNilAction
		res.ErrorDetail = orchestrator.ErrNilAction.Error()
		res.Duration = e.now().Sub(res.StartedAt)
		return res
	}

	applied, err := def.Action.Probe(ctx, db)
	if err != nil {
		res.Err = fmt.Errorf("probe failed: %w", err)
		res.ErrorDetail = res.Err.Error()
		res.Duration = e.now().Sub(res.StartedAt)
		return res
	}

	if applied {
		res.AlreadyApplied = true
		res.Duration = e.now().Sub(res.StartedAt)

		e.logger.Info("migration effect already present, skipping apply",
			zap.String("name", def.Name),
			zap.String("version", def.Version))

		return res
	}

	if err := def.Action.Apply(ctx, db); err != nil {
		res.Err = err
		res.ErrorDetail = err.Error()
		res.Duration = e.now().Sub(res.StartedAt)
		return res
	}

	res.Success = true
	res.Duration = e.now().Sub(res.StartedAt)

	return res
}
