package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orchestrator "github.com/getpup/migration-orchestrator"
)

func def(name, version string, phase int, deps ...string) orchestrator.Definition {
	return orchestrator.Definition{
		Name:      name,
		Version:   version,
		Phase:     phase,
		DependsOn: deps,
	}
}

func names(defs []orchestrator.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

func TestResolve_OrdersByPhaseThenVersion(t *testing.T) {
	defs := []orchestrator.Definition{
		def("add_index", "v003", 2),
		def("create_tables", "v000", 1),
		def("seed_data", "v002", 2),
		def("add_columns", "v001", 1),
	}

	ordered, err := Resolve(defs)
	require.NoError(t, err)
	assert.Equal(t, []string{"create_tables", "add_columns", "seed_data", "add_index"}, names(ordered))
}

func TestResolve_DependencyBeforeDependent(t *testing.T) {
	defs := []orchestrator.Definition{
		def("normalize_names", "v001", 1, "create_suppliers"),
		def("create_suppliers", "v002", 1),
	}

	ordered, err := Resolve(defs)
	require.NoError(t, err)
	assert.Equal(t, []string{"create_suppliers", "normalize_names"}, names(ordered))
}

func TestResolve_AllDependenciesStrictlyEarlier(t *testing.T) {
	defs := []orchestrator.Definition{
		def("a", "v000", 1),
		def("b", "v001", 1, "a"),
		def("c", "v002", 2, "a", "b"),
		def("d", "v003", 2, "c"),
		def("e", "v004", 3, "b", "d"),
	}

	ordered, err := Resolve(defs)
	require.NoError(t, err)

	position := make(map[string]int)
	for i, d := range ordered {
		position[d.Name] = i
	}
	for _, d := range defs {
		for _, dep := range d.DependsOn {
			assert.Less(t, position[dep], position[d.Name],
				"%s must come before %s", dep, d.Name)
		}
	}
}

func TestResolve_PhaseBoundaryHolds(t *testing.T) {
	defs := []orchestrator.Definition{
		def("p2a", "v000", 2),
		def("p1a", "v005", 1),
		def("p2b", "v001", 2),
		def("p1b", "v006", 1),
	}

	ordered, err := Resolve(defs)
	require.NoError(t, err)

	lastPhase := 0
	for _, d := range ordered {
		assert.GreaterOrEqual(t, d.Phase, lastPhase)
		lastPhase = d.Phase
	}
}

func TestResolve_NoDependencies(t *testing.T) {
	ordered, err := Resolve([]orchestrator.Definition{def("only", "v000", 1)})
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, "only", ordered[0].Name)
}

func TestResolve_EmptySet(t *testing.T) {
	ordered, err := Resolve(nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)
}

func TestResolve_UnknownDependency(t *testing.T) {
	_, err := Resolve([]orchestrator.Definition{
		def("a", "v000", 1, "missing"),
	})
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "missing")
	assert.Contains(t, err.Error(), "a")
}

func TestResolve_ReportsAllFindingsAtOnce(t *testing.T) {
	_, err := Resolve([]orchestrator.Definition{
		def("a", "v000", 1, "ghost1"),
		def("b", "v001", 1, "ghost2"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost1")
	assert.Contains(t, err.Error(), "ghost2")
}

func TestResolve_LaterPhaseDependency(t *testing.T) {
	_, err := Resolve([]orchestrator.Definition{
		def("early", "v000", 1, "late"),
		def("late", "v001", 2),
	})
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "later phase")
}

func TestResolve_CycleDetected(t *testing.T) {
	_, err := Resolve([]orchestrator.Definition{
		def("a", "v000", 1, "b"),
		def("b", "v001", 1, "a"),
	})
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "cycle")
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestResolve_SelfCycleDetected(t *testing.T) {
	_, err := Resolve([]orchestrator.Definition{
		def("a", "v000", 1, "a"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestResolve_DuplicateName(t *testing.T) {
	_, err := Resolve([]orchestrator.Definition{
		def("a", "v000", 1),
		def("a", "v001", 1),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, orchestrator.ErrDuplicateDefinition))
}

func TestResolve_Deterministic(t *testing.T) {
	defs := []orchestrator.Definition{
		def("c", "v002", 1),
		def("a", "v000", 1),
		def("b", "v001", 1, "a"),
		def("d", "v003", 2, "b"),
	}

	first, err := Resolve(defs)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Resolve(defs)
		require.NoError(t, err)
		assert.Equal(t, names(first), names(again))
	}
}
