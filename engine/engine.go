// Package engine drives migration runs: it resolves execution order,
// consults history to skip completed work, invokes the executor per
// migration, applies the failure policy, and produces a run summary.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	orchestrator "github.com/getpup/migration-orchestrator"
	"github.com/getpup/migration-orchestrator/executor"
	"github.com/getpup/migration-orchestrator/history"
	"github.com/getpup/migration-orchestrator/metrics"
	"github.com/getpup/migration-orchestrator/resolver"
)

// Config holds configuration for the Engine.
type Config struct {
	// DB is the database connection migrations run against (required
	// unless every action ignores it, as in tests).
	DB *sql.DB

	// Store is the history store recording execution attempts (required).
	Store history.Store

	// Definitions is the full migration set for this program (required).
	Definitions []orchestrator.Definition

	// Executor is an optional custom executor for running actions.
	// If nil, a default executor is created.
	Executor executor.Runner

	// Logger is for observability (optional, defaults to no-op).
	Logger *zap.Logger

	// Collector is an optional metrics collector. Nil disables metrics.
	Collector *metrics.Collector

	// Now is the clock used for run and attempt timestamps.
	// Defaults to time.Now in UTC. Injectable for deterministic tests.
	Now func() time.Time
}

// Engine executes migration runs sequentially against one database.
// It is the exclusive writer of the history store for the duration of
// a run; callers racing two runs must hold an external advisory lock.
type Engine struct {
	config   Config
	executor executor.Runner
	logger   *zap.Logger
	now      func() time.Time
}

// Compile-time check that Engine implements Orchestrator.
var _ orchestrator.Orchestrator = (*Engine)(nil)

// New creates a new Engine with the given configuration.
// Applies defaults for Executor, Logger, and Now.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("history store is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Executor == nil {
		cfg.Executor = executor.New(executor.Config{
			Logger: cfg.Logger,
			Now:    cfg.Now,
		})
	}

	return &Engine{
		config:   cfg,
		executor: cfg.Executor,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}, nil
}

// Run executes all pending migrations in resolved order.
//
// Configuration errors abort before any history write. A critical
// migration failure aborts the run; migrations after it keep no
// record and are retried in full on the next run. Optional failures
// are recorded and the run continues. Persistence and conflict errors
// always abort: the engine will not continue without ground truth of
// what has executed.
//
// The returned error is non-nil exactly when the summary state is
// Aborted. A run that completed with optional failures returns a nil
// error and a non-empty FailedOptional list.
func (e *Engine) Run(ctx context.Context) (orchestrator.RunSummary, error) {
	summary := orchestrator.RunSummary{
		RunID:     uuid.New().String(),
		State:     orchestrator.RunStateInitializing,
		StartedAt: e.now(),
	}

	// 1. Resolve execution order. A configuration error aborts
	// immediately, before any database I/O.
	ordered, err := resolver.Resolve(e.config.Definitions)
	if err != nil {
		return e.finish(summary, orchestrator.RunStateAborted, err)
	}

	// 2. The history table must exist before anything can be recorded.
	if err := e.config.Store.EnsureSchema(ctx); err != nil {
		return e.finish(summary, orchestrator.RunStateAborted,
			fmt.Errorf("failed to ensure history schema: %w", err))
	}

	e.logger.Info("starting migration run",
		zap.String("run_id", summary.RunID),
		zap.Int("migrations", len(ordered)))

	summary.State = orchestrator.RunStateInProgress

	pending := 0
	for _, def := range ordered {
		// 3a. Skip migrations already satisfied by a prior run.
		existing, err := e.config.Store.Get(ctx, def.Name, def.Version)
		switch {
		case err == nil && existing.Status.Satisfied():
			summary.Skipped++
			summary.Outcomes = append(summary.Outcomes, orchestrator.Outcome{
				Name:           def.Name,
				Version:        def.Version,
				Status:         orchestrator.StatusSkipped,
				AlreadyApplied: true,
				Critical:       def.Critical,
			})
			if e.config.Collector != nil {
				e.config.Collector.IncSkipped(def.Name)
			}
			e.logger.Debug("migration already satisfied",
				zap.String("name", def.Name),
				zap.String("version", def.Version),
				zap.String("status", string(existing.Status)))
			continue
		case err != nil && err != history.ErrRecordNotFound:
			return e.finish(summary, orchestrator.RunStateAborted,
				fmt.Errorf("failed to query history for %s: %w", def.Name, err))
		}
		pending++

		// 3b. Record the attempt. A conflict here means another run is
		// mutating history and the single-writer precondition broke.
		startedAt := e.now()
		if _, err := e.config.Store.Begin(ctx, def.Name, def.Version, startedAt); err != nil {
			return e.finish(summary, orchestrator.RunStateAborted,
				fmt.Errorf("failed to begin attempt for %s: %w", def.Name, err))
		}

		res := e.executor.Run(ctx, def, e.config.DB)
		completedAt := startedAt.Add(res.Duration)

		switch {
		case res.AlreadyApplied:
			// 3c. The probe found the effect present: record Skipped.
			if err := e.config.Store.Skip(ctx, def.Name, def.Version, completedAt); err != nil {
				return e.finish(summary, orchestrator.RunStateAborted,
					fmt.Errorf("failed to record skip for %s: %w", def.Name, err))
			}
			summary.Skipped++
			summary.Outcomes = append(summary.Outcomes, outcome(def, orchestrator.StatusSkipped, res))
			if e.config.Collector != nil {
				e.config.Collector.IncSkipped(def.Name)
			}
			e.logger.Info("migration skipped",
				zap.String("name", def.Name),
				zap.String("version", def.Version))

		case res.Success:
			// 3c. Success: terminal Completed record.
			if err := e.config.Store.Complete(ctx, def.Name, def.Version, completedAt, res.DurationMs()); err != nil {
				return e.finish(summary, orchestrator.RunStateAborted,
					fmt.Errorf("failed to record completion for %s: %w", def.Name, err))
			}
			summary.Completed++
			summary.Outcomes = append(summary.Outcomes, outcome(def, orchestrator.StatusCompleted, res))
			if e.config.Collector != nil {
				e.config.Collector.IncCompleted(def.Name)
				e.config.Collector.ObserveMigrationDuration(def.Name, res.Duration.Seconds())
			}
			e.logger.Info("migration completed",
				zap.String("name", def.Name),
				zap.String("version", def.Version),
				zap.Duration("duration", res.Duration))

		default:
			// 3d. Failure: terminal Failed record, then the policy check.
			if err := e.config.Store.Fail(ctx, def.Name, def.Version, res.ErrorDetail, completedAt, res.DurationMs()); err != nil {
				return e.finish(summary, orchestrator.RunStateAborted,
					fmt.Errorf("failed to record failure for %s: %w", def.Name, err))
			}
			summary.Failed++
			summary.Outcomes = append(summary.Outcomes, outcome(def, orchestrator.StatusFailed, res))
			if e.config.Collector != nil {
				e.config.Collector.IncFailed(def.Name, def.Critical)
			}

			if def.Critical {
				summary.FailedCritical = append(summary.FailedCritical, def.Name)
				e.logger.Error("critical migration failed, aborting run",
					zap.String("name", def.Name),
					zap.String("version", def.Version),
					zap.Error(res.Err))
				return e.finish(summary, orchestrator.RunStateAborted,
					fmt.Errorf("critical migration %s failed: %v: %w", def.Name, res.Err, orchestrator.ErrRunAborted))
			}

			summary.FailedOptional = append(summary.FailedOptional, def.Name)
			e.logger.Warn("optional migration failed, continuing",
				zap.String("name", def.Name),
				zap.String("version", def.Version),
				zap.Error(res.Err))
		}
	}

	if e.config.Collector != nil {
		e.config.Collector.SetPendingMigrations(pending)
	}

	// 4. Every migration was processed; optional failures, if any, are
	// itemized in the summary rather than hidden behind an error.
	return e.finish(summary, orchestrator.RunStateCompleted, nil)
}

func (e *Engine) finish(summary orchestrator.RunSummary, state orchestrator.RunState, err error) (orchestrator.RunSummary, error) {
	summary.State = state
	summary.Duration = e.now().Sub(summary.StartedAt)

	if e.config.Collector != nil {
		e.config.Collector.IncRun(string(state))
		e.config.Collector.ObserveRunDuration(string(state), summary.Duration.Seconds())
	}

	fields := []zap.Field{
		zap.String("run_id", summary.RunID),
		zap.String("state", string(state)),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", summary.Duration),
	}
	if len(summary.FailedCritical) > 0 {
		fields = append(fields, zap.Strings("failed_critical", summary.FailedCritical))
	}
	if len(summary.FailedOptional) > 0 {
		fields = append(fields, zap.Strings("failed_optional", summary.FailedOptional))
	}

	if state == orchestrator.RunStateAborted {
		fields = append(fields, zap.Error(err))
		e.logger.Error("migration run aborted", fields...)
	} else {
		e.logger.Info("migration run completed", fields...)
	}

	return summary, err
}

func outcome(def orchestrator.Definition, status orchestrator.Status, res executor.Result) orchestrator.Outcome {
	return orchestrator.Outcome{
		Name:     def.Name,
		Version:  def.Version,
		Status:   status,
		Critical: def.Critical,
		Error:    res.ErrorDetail,
		Duration: res.Duration,
	}
}

// Status returns every history record for operational inspection.
// An empty history yields an empty slice.
func (e *Engine) Status(ctx context.Context) ([]orchestrator.HistoryRecord, error) {
	return e.config.Store.ListAll(ctx)
}

// Reset deletes all history records, forcing every migration to be
// re-executed on the next run. It never touches migrated schema or
// data. Intended for non-production environments only.
func (e *Engine) Reset(ctx context.Context) error {
	e.logger.Warn("resetting migration history, all migrations will re-run")

	if err := e.config.Store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure history schema: %w", err)
	}

	return e.config.Store.Reset(ctx)
}
