package orchestrator

import "errors"

var (
	// ErrDuplicateDefinition indicates two definitions share the same
	// (name, version) pair.
	ErrDuplicateDefinition = errors.New("duplicate migration definition")

	// ErrNilAction indicates a definition was registered without an action.
	ErrNilAction = errors.New("migration action is nil")

	// ErrRunAborted indicates the run stopped before processing every
	// migration. The accompanying RunSummary names the cause.
	ErrRunAborted = errors.New("migration run aborted")
)
