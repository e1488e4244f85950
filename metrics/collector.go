package metrics

// Collector wraps metrics and provides helper methods for the engine.
type Collector struct{}

// NewCollector creates a new Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// IncRun increments the runs counter for a final state.
func (c *Collector) IncRun(state string) {
	RunsTotal.WithLabelValues(state).Inc()
}

// IncCompleted increments the completed counter for a migration.
func (c *Collector) IncCompleted(name string) {
	MigrationsCompletedTotal.WithLabelValues(name).Inc()
}

// IncFailed increments the failed counter for a migration.
func (c *Collector) IncFailed(name string, critical bool) {
	criticality := "optional"
	if critical {
		criticality = "critical"
	}
	MigrationsFailedTotal.WithLabelValues(name, criticality).Inc()
}

// IncSkipped increments the skipped counter for a migration.
func (c *Collector) IncSkipped(name string) {
	MigrationsSkippedTotal.WithLabelValues(name).Inc()
}

// ObserveMigrationDuration records one migration's execution time.
func (c *Collector) ObserveMigrationDuration(name string, seconds float64) {
	MigrationDuration.WithLabelValues(name).Observe(seconds)
}

// ObserveRunDuration records a run's total duration.
func (c *Collector) ObserveRunDuration(state string, seconds float64) {
	RunDuration.WithLabelValues(state).Observe(seconds)
}

// SetPendingMigrations sets the pending migrations gauge.
func (c *Collector) SetPendingMigrations(count int) {
	PendingMigrations.Set(float64(count))
}
