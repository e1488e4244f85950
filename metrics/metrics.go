package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RunsTotal tracks the total number of migration runs by final state.
var RunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_orchestrator_runs_total",
		Help: "Total migration runs by final state",
	},
	[]string{"state"},
)

// MigrationsCompletedTotal tracks the total number of completed migrations.
var MigrationsCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_orchestrator_migrations_completed_total",
		Help: "Total migrations completed",
	},
	[]string{"name"},
)

// MigrationsFailedTotal tracks the total number of failed migrations.
var MigrationsFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_orchestrator_migrations_failed_total",
		Help: "Total migrations failed",
	},
	[]string{"name", "criticality"},
)

// MigrationsSkippedTotal tracks the total number of skipped migrations,
// including ones already satisfied by prior runs.
var MigrationsSkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_orchestrator_migrations_skipped_total",
		Help: "Total migrations skipped",
	},
	[]string{"name"},
)

// MigrationDuration tracks per-migration execution time.
var MigrationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "migration_orchestrator_migration_duration_seconds",
		Help:    "Time spent executing one migration",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"name"},
)

// RunDuration tracks total run time.
var RunDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "migration_orchestrator_run_duration_seconds",
		Help:    "Total wall-clock time of a migration run",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"state"},
)

// PendingMigrations tracks the number of migrations not yet satisfied
// at the start of the most recent run.
var PendingMigrations = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "migration_orchestrator_pending_migrations",
		Help: "Migrations not yet satisfied at the start of the last run",
	},
)
