package history

import (
	"context"
	"sync"
	"time"

	orchestrator "github.com/getpup/migration-orchestrator"
)

// MockStore is a configurable mock implementation of Store for use in
// tests. It allows setting up return values per method, tracking calls,
// and injecting errors for persistence-failure paths. Methods without a
// configured func return zero values.
type MockStore struct {
	mu sync.Mutex

	// EnsureSchemaFunc is called by EnsureSchema if set.
	EnsureSchemaFunc func(ctx context.Context) error

	// GetFunc is called by Get if set. Defaults to ErrRecordNotFound.
	GetFunc func(ctx context.Context, name, version string) (orchestrator.HistoryRecord, error)

	// BeginFunc is called by Begin if set.
	BeginFunc func(ctx context.Context, name, version string, executedAt time.Time) (orchestrator.HistoryRecord, error)

	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, name, version string, completedAt time.Time, durationMs int64) error

	// FailFunc is called by Fail if set.
	FailFunc func(ctx context.Context, name, version, errorMessage string, completedAt time.Time, durationMs int64) error

	// SkipFunc is called by Skip if set.
	SkipFunc func(ctx context.Context, name, version string, completedAt time.Time) error

	// ListAllFunc is called by ListAll if set.
	ListAllFunc func(ctx context.Context) ([]orchestrator.HistoryRecord, error)

	// ListByStatusFunc is called by ListByStatus if set.
	ListByStatusFunc func(ctx context.Context, status orchestrator.Status) ([]orchestrator.HistoryRecord, error)

	// ListRecentFunc is called by ListRecent if set.
	ListRecentFunc func(ctx context.Context, limit int) ([]orchestrator.HistoryRecord, error)

	// ResetFunc is called by Reset if set.
	ResetFunc func(ctx context.Context) error

	// Call tracking
	EnsureSchemaCalls int
	GetCalls          []RecordCall
	BeginCalls        []RecordCall
	CompleteCalls     []RecordCall
	FailCalls         []FailCall
	SkipCalls         []RecordCall
	ResetCalls        int
}

// RecordCall identifies the migration a store method was called with.
type RecordCall struct {
	Name    string
	Version string
}

// FailCall captures the arguments of a Fail invocation.
type FailCall struct {
	Name         string
	Version      string
	ErrorMessage string
}

// NewMockStore creates a new mock history store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// EnsureSchema implements Store.
func (m *MockStore) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	m.EnsureSchemaCalls++
	m.mu.Unlock()

	if m.EnsureSchemaFunc != nil {
		return m.EnsureSchemaFunc(ctx)
	}
	return nil
}

// Get implements Store.
func (m *MockStore) Get(ctx context.Context, name, version string) (orchestrator.HistoryRecord, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, RecordCall{Name: name, Version: version})
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, name, version)
	}
	return orchestrator.HistoryRecord{}, ErrRecordNotFound
}

// Begin implements Store.
func (m *MockStore) Begin(ctx context.Context, name, version string, executedAt time.Time) (orchestrator.HistoryRecord, error) {
	m.mu.Lock()
	m.BeginCalls = append(m.BeginCalls, RecordCall{Name: name, Version: version})
	m.mu.Unlock()

	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, name, version, executedAt)
	}
	return orchestrator.HistoryRecord{
		Name:       name,
		Version:    version,
		Status:     orchestrator.StatusRunning,
		ExecutedAt: executedAt,
	}, nil
}

// Complete implements Store.
func (m *MockStore) Complete(ctx context.Context, name, version string, completedAt time.Time, durationMs int64) error {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, RecordCall{Name: name, Version: version})
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, name, version, completedAt, durationMs)
	}
	return nil
}

// Fail implements Store.
func (m *MockStore) Fail(ctx context.Context, name, version, errorMessage string, completedAt time.Time, durationMs int64) error {
	m.mu.Lock()
	m.FailCalls = append(m.FailCalls, FailCall{Name: name, Version: version, ErrorMessage: errorMessage})
	m.mu.Unlock()

	if m.FailFunc != nil {
		return m.FailFunc(ctx, name, version, errorMessage, completedAt, durationMs)
	}
	return nil
}

// Skip implements Store.
func (m *MockStore) Skip(ctx context.Context, name, version string, completedAt time.Time) error {
	m.mu.Lock()
	m.SkipCalls = append(m.SkipCalls, RecordCall{Name: name, Version: version})
	m.mu.Unlock()

	if m.SkipFunc != nil {
		return m.SkipFunc(ctx, name, version, completedAt)
	}
	return nil
}

// ListAll implements Store.
func (m *MockStore) ListAll(ctx context.Context) ([]orchestrator.HistoryRecord, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return []orchestrator.HistoryRecord{}, nil
}

// ListByStatus implements Store.
func (m *MockStore) ListByStatus(ctx context.Context, status orchestrator.Status) ([]orchestrator.HistoryRecord, error) {
	if m.ListByStatusFunc != nil {
		return m.ListByStatusFunc(ctx, status)
	}
	return []orchestrator.HistoryRecord{}, nil
}

// ListRecent implements Store.
func (m *MockStore) ListRecent(ctx context.Context, limit int) ([]orchestrator.HistoryRecord, error) {
	if m.ListRecentFunc != nil {
		return m.ListRecentFunc(ctx, limit)
	}
	return []orchestrator.HistoryRecord{}, nil
}

// Reset implements Store.
func (m *MockStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	m.ResetCalls++
	m.mu.Unlock()

	if m.ResetFunc != nil {
		return m.ResetFunc(ctx)
	}
	return nil
}

// Compile-time check that MockStore implements Store.
var _ Store = (*MockStore)(nil)
