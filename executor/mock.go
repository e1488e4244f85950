package executor

import (
	"context"
	"database/sql"
	"sync"

	orchestrator "github.com/getpup/migration-orchestrator"
)

// MockRunner is a mock implementation of Runner for testing.
type MockRunner struct {
	mu       sync.Mutex
	RunFunc  func(ctx context.Context, def orchestrator.Definition, db *sql.DB) Result
	RunCalls []RunCall
}

// RunCall records the parameters of a single Run call.
type RunCall struct {
	Name    string
	Version string
}

// NewMockRunner creates a new MockRunner with an empty call history.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		RunCalls: make([]RunCall, 0),
	}
}

// Run implements the Runner interface.
// It records the call parameters, then calls RunFunc if set; otherwise
// it reports success.
func (m *MockRunner) Run(ctx context.Context, def orchestrator.Definition, db *sql.DB) Result {
	m.mu.Lock()
	m.RunCalls = append(m.RunCalls, RunCall{Name: def.Name, Version: def.Version})
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, def, db)
	}

	return Result{Success: true}
}

// Calls returns a copy of the call history.
func (m *MockRunner) Calls() []RunCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]RunCall, len(m.RunCalls))
	copy(out, m.RunCalls)
	return out
}

// Reset clears the call history.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunCalls = make([]RunCall, 0)
}

// Compile-time check that MockRunner implements Runner.
var _ Runner = (*MockRunner)(nil)
