package orchestrator

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rootpkg "github.com/getpup/migration-orchestrator"
	"github.com/getpup/migration-orchestrator/history/memory"
)

func noopDefinition(name, version string) Definition {
	return Definition{
		Name:    name,
		Version: version,
		Phase:   1,
		Action: FuncAction{
			ApplyFunc: func(ctx context.Context, db *sql.DB) error { return nil },
		},
	}
}

func TestNew_RequiresDatabaseOrStore(t *testing.T) {
	_, err := New(WithDefinitions([]Definition{noopDefinition("a", "v000")}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WithDatabase")
}

func TestNew_RequiresDefinitions(t *testing.T) {
	_, err := New(WithHistoryStore(memory.New()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WithDefinitions")
}

func TestNew_RejectsUnknownDialect(t *testing.T) {
	_, err := New(
		WithDatabase(&sql.DB{}),
		WithDefinitions([]Definition{noopDefinition("a", "v000")}),
		WithDialect("oracle"),
	)
	assert.Error(t, err)
}

func TestNew_WithCustomStore(t *testing.T) {
	store := memory.New()
	orch, err := New(
		WithHistoryStore(store),
		WithDefinitions([]Definition{noopDefinition("a", "v000")}),
		WithMetricsEnabled(false),
	)
	require.NoError(t, err)

	summary, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)

	rec, err := store.Get(context.Background(), "a", "v000")
	require.NoError(t, err)
	assert.Equal(t, rootpkg.StatusCompleted, rec.Status)
}

func TestNew_WithRegistry(t *testing.T) {
	registry := rootpkg.NewRegistry()
	require.NoError(t, registry.Register(noopDefinition("a", "v000")))
	require.NoError(t, registry.Register(noopDefinition("b", "v001")))

	orch, err := New(
		WithHistoryStore(memory.New()),
		WithRegistry(registry),
		WithMetricsEnabled(false),
	)
	require.NoError(t, err)

	summary, err := orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Completed)
}

func TestStatusAndReset(t *testing.T) {
	orch, err := New(
		WithHistoryStore(memory.New()),
		WithDefinitions([]Definition{noopDefinition("a", "v000")}),
		WithMetricsEnabled(false),
	)
	require.NoError(t, err)

	_, err = orch.Run(context.Background())
	require.NoError(t, err)

	records, err := orch.Status(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, orch.Reset(context.Background()))

	records, err = orch.Status(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}
