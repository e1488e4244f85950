// Package orchestrator is the public entry point for embedding the
// migration orchestrator in an application. It wires the engine,
// history store, executor, and metrics behind a functional-options
// constructor and re-exports the core types.
package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	rootpkg "github.com/getpup/migration-orchestrator"
	"github.com/getpup/migration-orchestrator/engine"
	"github.com/getpup/migration-orchestrator/executor"
	"github.com/getpup/migration-orchestrator/history"
	"github.com/getpup/migration-orchestrator/history/sqlstore"
	"github.com/getpup/migration-orchestrator/metrics"
)

// Re-export core types from root package
type (
	// Definition declares a single migration: identity, ordering
	// constraints, failure policy, and the action to execute.
	Definition = rootpkg.Definition

	// Registry collects definitions and rejects duplicates.
	Registry = rootpkg.Registry

	// Action is the executable side of a migration.
	Action = rootpkg.Action

	// SQLAction executes literal SQL statements in order.
	SQLAction = rootpkg.SQLAction

	// FuncAction adapts plain functions to the Action interface.
	FuncAction = rootpkg.FuncAction

	// Status is the lifecycle state of a migration attempt.
	Status = rootpkg.Status

	// HistoryRecord is one row of the migration history table.
	HistoryRecord = rootpkg.HistoryRecord

	// RunSummary describes the outcome of a migration run.
	RunSummary = rootpkg.RunSummary

	// Orchestrator runs migrations and reports on history.
	Orchestrator = rootpkg.Orchestrator
)

// NewRegistry creates an empty migration registry.
func NewRegistry() *Registry {
	return rootpkg.NewRegistry()
}

// Option configures an Orchestrator.
type Option func(*config)

// config holds the internal configuration for creating an Orchestrator.
type config struct {
	db             *sql.DB
	definitions    []Definition
	store          history.Store
	dialect        string
	tableName      string
	executor       executor.Runner
	logger         *zap.Logger
	metricsEnabled *bool
	now            func() time.Time
}

// New creates a new Orchestrator with the given options.
//
// Required options:
//   - WithDatabase: database connection (unless WithHistoryStore is
//     given and no action touches the database)
//   - WithDefinitions or WithRegistry: the migration set
//
// Optional configuration (with defaults):
//   - WithDialect: SQL dialect of the history store (default: "postgres")
//   - WithTableName: history table name (default: "migration_history")
//   - WithHistoryStore: custom history store (default: SQL store on DB)
//   - WithExecutor: custom executor for running actions (default: executor.New)
//   - WithLogger: zap logger for observability (default: no-op)
//   - WithMetricsEnabled: enable Prometheus metrics (default: true)
//   - WithClock: clock for timestamps (default: time.Now in UTC)
//
// Example:
//
//	orch, err := orchestrator.New(
//	    orchestrator.WithDatabase(db),
//	    orchestrator.WithDialect("postgres"),
//	    orchestrator.WithRegistry(registry),
//	)
//
// Returns an error if any required option is missing.
func New(opts ...Option) (Orchestrator, error) {
	// Apply defaults
	cfg := &config{
		dialect:   string(sqlstore.DialectPostgres),
		tableName: sqlstore.DefaultTableConfig().HistoryTable,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	// Validate required fields
	if cfg.db == nil && cfg.store == nil {
		return nil, fmt.Errorf("database is required: use WithDatabase option")
	}
	if len(cfg.definitions) == 0 {
		return nil, fmt.Errorf("migration definitions are required: use WithDefinitions or WithRegistry option")
	}

	// Create history store if not provided
	if cfg.store == nil {
		dialect, err := sqlstore.ParseDialect(cfg.dialect)
		if err != nil {
			return nil, err
		}

		cfg.store, err = sqlstore.NewWithConfig(cfg.db, dialect, sqlstore.TableConfig{
			HistoryTable: cfg.tableName,
		})
		if err != nil {
			return nil, err
		}
	}

	var collector *metrics.Collector
	if cfg.metricsEnabled == nil || *cfg.metricsEnabled {
		collector = metrics.NewCollector()
	}

	return engine.New(engine.Config{
		DB:          cfg.db,
		Store:       cfg.store,
		Definitions: cfg.definitions,
		Executor:    cfg.executor,
		Logger:      cfg.logger,
		Collector:   collector,
		Now:         cfg.now,
	})
}

// WithDatabase sets the database connection migrations run against and,
// unless WithHistoryStore is given, the connection hosting the history
// table.
func WithDatabase(db *sql.DB) Option {
	return func(c *config) {
		c.db = db
	}
}

// WithDefinitions sets the migration set to run.
func WithDefinitions(defs []Definition) Option {
	return func(c *config) {
		c.definitions = defs
	}
}

// WithRegistry sets the migration set from a Registry.
func WithRegistry(registry *Registry) Option {
	return func(c *config) {
		if registry != nil {
			c.definitions = registry.Definitions()
		}
	}
}

// WithDialect sets the SQL dialect used for the history table.
// Supported values: "postgres", "mysql", "sqlite".
func WithDialect(dialect string) Option {
	return func(c *config) {
		c.dialect = dialect
	}
}

// WithTableName sets a custom history table name instead of the
// default "migration_history".
func WithTableName(name string) Option {
	return func(c *config) {
		c.tableName = name
	}
}

// WithHistoryStore sets a custom history store.
// Use this if you want to provide your own implementation of history.Store.
func WithHistoryStore(store history.Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithExecutor sets a custom executor for running migration actions.
// Use this if you want to provide your own implementation of executor.Runner.
func WithExecutor(exec executor.Runner) Option {
	return func(c *config) {
		c.executor = exec
	}
}

// WithLogger sets the logger for observability.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMetricsEnabled enables or disables Prometheus metrics collection.
func WithMetricsEnabled(enabled bool) Option {
	return func(c *config) {
		c.metricsEnabled = &enabled
	}
}

// WithClock sets the clock used for run and attempt timestamps.
// Intended for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// EnsureHistorySchema creates the history table if it does not exist.
// Engine runs do this automatically; this helper is for deployments
// that provision schema separately from running migrations.
func EnsureHistorySchema(db *sql.DB, dialect string) error {
	return EnsureHistorySchemaWithTableName(db, dialect, sqlstore.DefaultTableConfig().HistoryTable)
}

// EnsureHistorySchemaWithTableName is EnsureHistorySchema with a custom
// history table name.
func EnsureHistorySchemaWithTableName(db *sql.DB, dialect, tableName string) error {
	d, err := sqlstore.ParseDialect(dialect)
	if err != nil {
		return err
	}

	store, err := sqlstore.NewWithConfig(db, d, sqlstore.TableConfig{HistoryTable: tableName})
	if err != nil {
		return err
	}

	return store.EnsureSchema(context.Background())
}
