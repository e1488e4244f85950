// Package resolver validates migration definitions and produces the
// single total order in which they execute: phase-major, version
// ascending within a phase, with every dependency strictly earlier.
package resolver

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	orchestrator "github.com/getpup/migration-orchestrator"
)

// ConfigError indicates the migration set itself is invalid: a cycle,
// an unknown or later-phase dependency, or a duplicate definition.
// Configuration errors are detected before any database I/O.
type ConfigError struct {
	Reason error
}

// Error returns the aggregated validation findings.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid migration configuration: %v", e.Reason)
}

// Unwrap returns the underlying findings.
func (e *ConfigError) Unwrap() error {
	return e.Reason
}

// visit states for cycle detection.
const (
	white = iota // not visited
	gray         // on the current DFS path
	black        // fully explored
)

// Resolve orders the definitions for execution. The returned order
// guarantees:
//
//  1. All entries of phase k precede all entries of phase k+1.
//  2. Within a phase, entries are ordered ascending by version, except
//     where a declared dependency forces an entry later.
//  3. Every entry of DependsOn appears strictly earlier in the order.
//
// A dependency cycle, a DependsOn reference to an unknown name, or a
// dependency on a strictly later phase returns a *ConfigError naming
// every offending migration. Definitions with no dependencies are
// ordered solely by phase and version.
func Resolve(defs []orchestrator.Definition) ([]orchestrator.Definition, error) {
	byName := make(map[string]orchestrator.Definition, len(defs))

	var findings *multierror.Error
	for _, def := range defs {
		if _, ok := byName[def.Name]; ok {
			findings = multierror.Append(findings, fmt.Errorf("migration %s: %w", def.Name, orchestrator.ErrDuplicateDefinition))
			continue
		}
		byName[def.Name] = def
	}

	for _, def := range defs {
		for _, dep := range def.DependsOn {
			target, ok := byName[dep]
			if !ok {
				findings = multierror.Append(findings, fmt.Errorf("migration %s depends on unknown migration %s", def.Name, dep))
				continue
			}
			if target.Phase > def.Phase {
				findings = multierror.Append(findings, fmt.Errorf("migration %s (phase %d) depends on %s in later phase %d", def.Name, def.Phase, dep, target.Phase))
			}
		}
	}

	if err := findings.ErrorOrNil(); err != nil {
		return nil, &ConfigError{Reason: err}
	}

	if cycle := detectCycle(defs, byName); len(cycle) > 0 {
		return nil, &ConfigError{Reason: fmt.Errorf("dependency cycle: %s", joinCycle(cycle))}
	}

	return order(defs, byName), nil
}

// detectCycle runs a coloring DFS over the dependency graph and
// returns the names forming the first cycle found, or nil.
func detectCycle(defs []orchestrator.Definition, byName map[string]orchestrator.Definition) []string {
	color := make(map[string]int, len(defs))

	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		path = append(path, name)

		for _, dep := range byName[name].DependsOn {
			switch color[dep] {
			case gray:
				// Found a back edge; slice the path from the first
				// occurrence of dep to close the loop.
				for i, n := range path {
					if n == dep {
						cycle = append(append([]string{}, path[i:]...), dep)
						return true
					}
				}
			case white:
				if visit(dep) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		color[name] = black
		return false
	}

	// Visit in a deterministic order so the reported cycle is stable.
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	sort.Strings(names)

	for _, name := range names {
		if color[name] == white {
			if visit(name) {
				return cycle
			}
		}
	}

	return nil
}

func joinCycle(cycle []string) string {
	out := ""
	for i, name := range cycle {
		if i > 0 {
			out += " -> "
		}
		out += name
	}
	return out
}

// order performs a stable topological sort. Ready migrations are drawn
// lowest (phase, version, name) first, so the result is phase-major
// with version order inside each phase wherever dependencies allow.
func order(defs []orchestrator.Definition, byName map[string]orchestrator.Definition) []orchestrator.Definition {
	indegree := make(map[string]int, len(defs))
	dependents := make(map[string][]string, len(defs))

	for _, def := range defs {
		indegree[def.Name] += 0
		for _, dep := range def.DependsOn {
			indegree[def.Name]++
			dependents[dep] = append(dependents[dep], def.Name)
		}
	}

	var ready []orchestrator.Definition
	for _, def := range defs {
		if indegree[def.Name] == 0 {
			ready = append(ready, def)
		}
	}

	less := func(a, b orchestrator.Definition) bool {
		if a.Phase != b.Phase {
			return a.Phase < b.Phase
		}
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		return a.Name < b.Name
	}

	ordered := make([]orchestrator.Definition, 0, len(defs))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })

		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)

		for _, dependent := range dependents[next.Name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, byName[dependent])
			}
		}
	}

	return ordered
}
