package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncRun(t *testing.T) {
	c := NewCollector()

	before := testutil.ToFloat64(RunsTotal.WithLabelValues("COMPLETED"))
	c.IncRun("COMPLETED")
	after := testutil.ToFloat64(RunsTotal.WithLabelValues("COMPLETED"))

	assert.Equal(t, before+1, after)
}

func TestIncCompleted(t *testing.T) {
	c := NewCollector()

	before := testutil.ToFloat64(MigrationsCompletedTotal.WithLabelValues("create_tables"))
	c.IncCompleted("create_tables")
	after := testutil.ToFloat64(MigrationsCompletedTotal.WithLabelValues("create_tables"))

	assert.Equal(t, before+1, after)
}

func TestIncFailed_CriticalityLabel(t *testing.T) {
	c := NewCollector()

	c.IncFailed("seed_data", true)
	c.IncFailed("backfill", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(MigrationsFailedTotal.WithLabelValues("seed_data", "critical")))
	assert.Equal(t, float64(1), testutil.ToFloat64(MigrationsFailedTotal.WithLabelValues("backfill", "optional")))
}

func TestIncSkipped(t *testing.T) {
	c := NewCollector()

	before := testutil.ToFloat64(MigrationsSkippedTotal.WithLabelValues("add_index"))
	c.IncSkipped("add_index")
	after := testutil.ToFloat64(MigrationsSkippedTotal.WithLabelValues("add_index"))

	assert.Equal(t, before+1, after)
}

func TestObserveDurations(t *testing.T) {
	c := NewCollector()

	c.ObserveMigrationDuration("create_tables", 0.25)
	c.ObserveRunDuration("COMPLETED", 1.5)

	assert.Greater(t, testutil.CollectAndCount(MigrationDuration), 0)
	assert.Greater(t, testutil.CollectAndCount(RunDuration), 0)
}

func TestSetPendingMigrations(t *testing.T) {
	c := NewCollector()

	c.SetPendingMigrations(4)

	assert.Equal(t, float64(4), testutil.ToFloat64(PendingMigrations))
}
