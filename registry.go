package orchestrator

import "fmt"

// Registry is an ordered collection of migration definitions built at
// program start. Registration order is preserved but carries no
// semantic weight; execution order is decided by the resolver.
type Registry struct {
	defs []Definition
	keys map[string]bool // "name@version" pairs already registered
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		keys: make(map[string]bool),
	}
}

// Register adds a definition to the registry.
// Returns ErrDuplicateDefinition if the (name, version) pair is already
// registered, and ErrNilAction if the definition has no action.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("migration name cannot be empty")
	}
	if def.Version == "" {
		return fmt.Errorf("migration %s: version cannot be empty", def.Name)
	}
	if def.Phase < 1 {
		return fmt.Errorf("migration %s: phase must be >= 1 (got %d)", def.Name, def.Phase)
	}
	if def.Action == nil {
		return fmt.Errorf("migration %s: %w", def.Name, ErrNilAction)
	}

	key := def.Name + "@" + def.Version
	if r.keys[key] {
		return fmt.Errorf("migration %s version %s: %w", def.Name, def.Version, ErrDuplicateDefinition)
	}

	r.keys[key] = true
	r.defs = append(r.defs, def)

	return nil
}

// MustRegister registers a definition and panics on error.
// Intended for package-level registries built in init or main.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Definitions returns a copy of all registered definitions.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}
