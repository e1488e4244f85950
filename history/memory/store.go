// Package memory provides an in-memory history store for testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	orchestrator "github.com/getpup/migration-orchestrator"
	"github.com/getpup/migration-orchestrator/history"
)

// Store is an in-memory implementation of history.Store for testing.
// It provides thread-safe access to history records using a sync.RWMutex.
type Store struct {
	mu      sync.RWMutex
	records map[recordKey]orchestrator.HistoryRecord
	seq     map[recordKey]int // insertion order for ListRecent ties
	nextSeq int
}

type recordKey struct {
	name    string
	version string
}

// New creates a new in-memory store with initialized maps.
func New() *Store {
	return &Store{
		records: make(map[recordKey]orchestrator.HistoryRecord),
		seq:     make(map[recordKey]int),
	}
}

// Compile-time check that Store implements history.Store.
var _ history.Store = (*Store)(nil)

// EnsureSchema is a no-op for the in-memory store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return nil
}

// Get returns the record for (name, version).
// Returns history.ErrRecordNotFound if the migration has never been attempted.
func (s *Store) Get(ctx context.Context, name, version string) (orchestrator.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey{name, version}]
	if !ok {
		return orchestrator.HistoryRecord{}, history.ErrRecordNotFound
	}

	return rec, nil
}

// Begin records the start of an attempt, writing a Running record.
// A prior Failed record is reused and moved back to Running.
func (s *Store) Begin(ctx context.Context, name, version string, executedAt time.Time) (orchestrator.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{name, version}
	if existing, ok := s.records[key]; ok {
		switch {
		case existing.Status == orchestrator.StatusRunning:
			return orchestrator.HistoryRecord{}, history.ErrAttemptInProgress
		case existing.Status.Satisfied():
			return orchestrator.HistoryRecord{}, history.ErrAlreadyApplied
		}
	}

	rec := orchestrator.HistoryRecord{
		Name:       name,
		Version:    version,
		Status:     orchestrator.StatusRunning,
		ExecutedAt: executedAt,
	}

	s.records[key] = rec
	s.seq[key] = s.nextSeq
	s.nextSeq++

	return rec, nil
}

// Complete transitions a Running record to Completed.
func (s *Store) Complete(ctx context.Context, name, version string, completedAt time.Time, durationMs int64) error {
	return s.finish(name, version, func(rec *orchestrator.HistoryRecord) {
		rec.Status = orchestrator.StatusCompleted
		rec.ErrorMessage = ""
		rec.CompletedAt = &completedAt
		rec.DurationMs = durationMs
	})
}

// Fail transitions a Running record to Failed with the error detail.
func (s *Store) Fail(ctx context.Context, name, version, errorMessage string, completedAt time.Time, durationMs int64) error {
	return s.finish(name, version, func(rec *orchestrator.HistoryRecord) {
		rec.Status = orchestrator.StatusFailed
		rec.ErrorMessage = errorMessage
		rec.CompletedAt = &completedAt
		rec.DurationMs = durationMs
	})
}

// Skip transitions a Running record to Skipped.
func (s *Store) Skip(ctx context.Context, name, version string, completedAt time.Time) error {
	return s.finish(name, version, func(rec *orchestrator.HistoryRecord) {
		rec.Status = orchestrator.StatusSkipped
		rec.ErrorMessage = ""
		rec.CompletedAt = &completedAt
		rec.DurationMs = completedAt.Sub(rec.ExecutedAt).Milliseconds()
	})
}

func (s *Store) finish(name, version string, update func(*orchestrator.HistoryRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{name, version}
	rec, ok := s.records[key]
	if !ok {
		return history.ErrRecordNotFound
	}

	update(&rec)
	s.records[key] = rec

	return nil
}

// ListAll returns every record ordered by version, then name.
// Returns an empty slice on a fresh store.
func (s *Store) ListAll(ctx context.Context) ([]orchestrator.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]orchestrator.HistoryRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sortByVersion(out)

	return out, nil
}

// ListByStatus returns records in the given status, ordered by version,
// then name.
func (s *Store) ListByStatus(ctx context.Context, status orchestrator.Status) ([]orchestrator.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]orchestrator.HistoryRecord, 0)
	for _, rec := range s.records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	sortByVersion(out)

	return out, nil
}

// ListRecent returns up to limit records, most recently executed first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]orchestrator.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]orchestrator.HistoryRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ExecutedAt.Equal(b.ExecutedAt) {
			return a.ExecutedAt.After(b.ExecutedAt)
		}
		return s.seq[recordKey{a.Name, a.Version}] > s.seq[recordKey{b.Name, b.Version}]
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// Reset deletes every history record.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[recordKey]orchestrator.HistoryRecord)
	s.seq = make(map[recordKey]int)
	s.nextSeq = 0

	return nil
}

func sortByVersion(records []orchestrator.HistoryRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Version != records[j].Version {
			return records[i].Version < records[j].Version
		}
		return records[i].Name < records[j].Name
	})
}
