// Package sqlstore provides a database/sql implementation of the
// history store for PostgreSQL, MySQL, and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	orchestrator "github.com/getpup/migration-orchestrator"
	"github.com/getpup/migration-orchestrator/history"
)

// TableConfig configures the table name used by the history store.
type TableConfig struct {
	// HistoryTable is the name of the table storing history records.
	HistoryTable string
}

// DefaultTableConfig returns the default table configuration.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		HistoryTable: "migration_history",
	}
}

// Store is a SQL implementation of history.Store.
// It issues only sequential queries; the single-writer assumption of
// the engine makes internal locking unnecessary.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// Compile-time check that Store implements history.Store.
var _ history.Store = (*Store)(nil)

// New creates a new SQL store with the default table name.
// Returns an error if the dialect is unknown.
func New(db *sql.DB, dialect Dialect) (*Store, error) {
	return NewWithConfig(db, dialect, DefaultTableConfig())
}

// NewWithConfig creates a new SQL store with a custom table name.
// The table name is validated to prevent SQL injection.
func NewWithConfig(db *sql.DB, dialect Dialect, config TableConfig) (*Store, error) {
	switch dialect {
	case DialectPostgres, DialectMySQL, DialectSQLite:
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	if err := validateIdentifier(config.HistoryTable); err != nil {
		return nil, err
	}

	return &Store{
		db:      db,
		dialect: dialect,
		table:   config.HistoryTable,
	}, nil
}

// EnsureSchema creates the history table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl, err := SchemaSQL(s.dialect, s.table)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure history schema: %w", err)
	}

	return nil
}

const recordColumns = "name, version, status, error_message, executed_at, completed_at, duration_ms"

// Get returns the record for (name, version).
// Returns history.ErrRecordNotFound if the migration has never been attempted.
func (s *Store) Get(ctx context.Context, name, version string) (orchestrator.HistoryRecord, error) {
	query := s.dialect.rebind(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE name = ? AND version = ?
	`, recordColumns, s.table))

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, name, version))
	if err == sql.ErrNoRows {
		return orchestrator.HistoryRecord{}, history.ErrRecordNotFound
	}
	if err != nil {
		return orchestrator.HistoryRecord{}, fmt.Errorf("failed to get history record: %w", err)
	}

	return rec, nil
}

// Begin records the start of an attempt, writing a Running record.
// A prior Failed record is reused and moved back to Running. A unique
// constraint violation on insert, or an update that matches no rows,
// means another run got there first and is surfaced as
// history.ErrAttemptInProgress.
func (s *Store) Begin(ctx context.Context, name, version string, executedAt time.Time) (orchestrator.HistoryRecord, error) {
	existing, err := s.Get(ctx, name, version)
	switch {
	case err == history.ErrRecordNotFound:
		return s.insertRunning(ctx, name, version, executedAt)
	case err != nil:
		return orchestrator.HistoryRecord{}, err
	}

	switch {
	case existing.Status == orchestrator.StatusRunning:
		return orchestrator.HistoryRecord{}, history.ErrAttemptInProgress
	case existing.Status.Satisfied():
		return orchestrator.HistoryRecord{}, history.ErrAlreadyApplied
	}

	// Failed (or stale Pending) row: reclaim it for the new attempt.
	query := s.dialect.rebind(fmt.Sprintf(`
		UPDATE %s
		SET status = ?, error_message = NULL, executed_at = ?, completed_at = NULL, duration_ms = NULL
		WHERE name = ? AND version = ? AND status IN ('FAILED', 'PENDING')
	`, s.table))

	result, err := s.db.ExecContext(ctx, query, string(orchestrator.StatusRunning), executedAt, name, version)
	if err != nil {
		return orchestrator.HistoryRecord{}, fmt.Errorf("failed to begin attempt: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return orchestrator.HistoryRecord{}, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return orchestrator.HistoryRecord{}, history.ErrAttemptInProgress
	}

	return orchestrator.HistoryRecord{
		Name:       name,
		Version:    version,
		Status:     orchestrator.StatusRunning,
		ExecutedAt: executedAt,
	}, nil
}

func (s *Store) insertRunning(ctx context.Context, name, version string, executedAt time.Time) (orchestrator.HistoryRecord, error) {
	query := s.dialect.rebind(fmt.Sprintf(`
		INSERT INTO %s (name, version, status, executed_at)
		VALUES (?, ?, ?, ?)
	`, s.table))

	if _, err := s.db.ExecContext(ctx, query, name, version, string(orchestrator.StatusRunning), executedAt); err != nil {
		if s.dialect.isUniqueViolation(err) {
			return orchestrator.HistoryRecord{}, history.ErrAttemptInProgress
		}
		return orchestrator.HistoryRecord{}, fmt.Errorf("failed to insert running record: %w", err)
	}

	return orchestrator.HistoryRecord{
		Name:       name,
		Version:    version,
		Status:     orchestrator.StatusRunning,
		ExecutedAt: executedAt,
	}, nil
}

// Complete transitions a Running record to Completed.
func (s *Store) Complete(ctx context.Context, name, version string, completedAt time.Time, durationMs int64) error {
	query := s.dialect.rebind(fmt.Sprintf(`
		UPDATE %s
		SET status = ?, error_message = NULL, completed_at = ?, duration_ms = ?
		WHERE name = ? AND version = ?
	`, s.table))

	return s.execExpectingRow(ctx, "complete", query,
		string(orchestrator.StatusCompleted), completedAt, durationMs, name, version)
}

// Fail transitions a Running record to Failed with the error detail.
func (s *Store) Fail(ctx context.Context, name, version, errorMessage string, completedAt time.Time, durationMs int64) error {
	query := s.dialect.rebind(fmt.Sprintf(`
		UPDATE %s
		SET status = ?, error_message = ?, completed_at = ?, duration_ms = ?
		WHERE name = ? AND version = ?
	`, s.table))

	return s.execExpectingRow(ctx, "fail", query,
		string(orchestrator.StatusFailed), errorMessage, completedAt, durationMs, name, version)
}

// Skip transitions a Running record to Skipped.
func (s *Store) Skip(ctx context.Context, name, version string, completedAt time.Time) error {
	query := s.dialect.rebind(fmt.Sprintf(`
		UPDATE %s
		SET status = ?, error_message = NULL, completed_at = ?, duration_ms = 0
		WHERE name = ? AND version = ?
	`, s.table))

	return s.execExpectingRow(ctx, "skip", query,
		string(orchestrator.StatusSkipped), completedAt, name, version)
}

func (s *Store) execExpectingRow(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s record: %w", op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return history.ErrRecordNotFound
	}

	return nil
}

// ListAll returns every record ordered by version, then name.
// Returns an empty slice on a fresh store.
func (s *Store) ListAll(ctx context.Context) ([]orchestrator.HistoryRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY version, name
	`, recordColumns, s.table)

	return s.queryRecords(ctx, query)
}

// ListByStatus returns records in the given status, ordered by version,
// then name.
func (s *Store) ListByStatus(ctx context.Context, status orchestrator.Status) ([]orchestrator.HistoryRecord, error) {
	query := s.dialect.rebind(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE status = ?
		ORDER BY version, name
	`, recordColumns, s.table))

	return s.queryRecords(ctx, query, string(status))
}

// ListRecent returns up to limit records, most recently executed first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]orchestrator.HistoryRecord, error) {
	query := s.dialect.rebind(fmt.Sprintf(`
		SELECT %s
		FROM %s
		ORDER BY executed_at DESC
		LIMIT ?
	`, recordColumns, s.table))

	return s.queryRecords(ctx, query, limit)
}

// Reset deletes every history record. It never touches migrated schema
// or data.
func (s *Store) Reset(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}

	return nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]orchestrator.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history records: %w", err)
	}
	defer rows.Close()

	records := []orchestrator.HistoryRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history records: %w", err)
	}

	return records, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (orchestrator.HistoryRecord, error) {
	var (
		rec         orchestrator.HistoryRecord
		status      string
		errMsg      sql.NullString
		executedAt  sql.NullTime
		completedAt sql.NullTime
		durationMs  sql.NullInt64
	)

	if err := row.Scan(&rec.Name, &rec.Version, &status, &errMsg, &executedAt, &completedAt, &durationMs); err != nil {
		return orchestrator.HistoryRecord{}, err
	}

	rec.Status = orchestrator.Status(status)
	rec.ErrorMessage = errMsg.String
	if executedAt.Valid {
		rec.ExecutedAt = executedAt.Time
	}
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	rec.DurationMs = durationMs.Int64

	return rec, nil
}
