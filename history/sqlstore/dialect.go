package sqlstore

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Dialect selects the SQL flavor for the history store.
type Dialect string

const (
	// DialectPostgres targets PostgreSQL via github.com/lib/pq.
	DialectPostgres Dialect = "postgres"

	// DialectMySQL targets MySQL/MariaDB via github.com/go-sql-driver/mysql.
	// The connection must be opened with parseTime=true.
	DialectMySQL Dialect = "mysql"

	// DialectSQLite targets SQLite via github.com/mattn/go-sqlite3.
	DialectSQLite Dialect = "sqlite"
)

// ParseDialect maps a driver name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported dialect %q (supported: postgres, mysql, sqlite)", name)
	}
}

// rebind converts ? placeholders to the dialect's positional form.
// Queries in this package are written with ? and rebound for Postgres.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// isUniqueViolation reports whether err is the driver's unique
// constraint violation. Used to detect two runs racing to begin the
// same migration.
func (d Dialect) isUniqueViolation(err error) bool {
	switch d {
	case DialectPostgres:
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505"
	case DialectMySQL:
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == 1062
	case DialectSQLite:
		var sqErr sqlite3.Error
		return errors.As(err, &sqErr) &&
			(sqErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
				sqErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	default:
		return false
	}
}

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// validateIdentifier ensures a table name contains only safe characters
// for interpolation into DDL and queries.
func validateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("table name must start with a letter and contain only letters, numbers, and underscores (got: %s)", name)
	}
	return nil
}

// SchemaSQL returns the DDL creating the history table for the dialect.
/// The DDL is idempotent: safe to execute on every run.
func SchemaSQL(dialect Dialect, table string) (string, error) {
	if err := validateIdentifier(table); err != nil {
		return "", err
	}

	switch dialect {
	case DialectPostgres:
		return fmt.Sprintf(`-- Migration history: one row per (name, version) execution attempt
CREATE TABLE IF NOT EXISTS %s (
    name            TEXT NOT NULL,
    version         TEXT NOT NULL,
    status          TEXT NOT NULL CHECK (status IN ('PENDING', 'RUNNING', 'COMPLETED', 'FAILED', 'SKIPPED')),
    error_message   TEXT,
    executed_at     TIMESTAMPTZ,
    completed_at    TIMESTAMPTZ,
    duration_ms     INTEGER,
    UNIQUE (name, version)
);

-- Index for status queries from the reporter
CREATE INDEX IF NOT EXISTS idx_%s_status ON %s (status);
`, table, table, table), nil

	case DialectMySQL:
		return fmt.Sprintf(`-- Migration history: one row per (name, version) execution attempt
CREATE TABLE IF NOT EXISTS %s (
    name            VARCHAR(255) NOT NULL,
    version         VARCHAR(255) NOT NULL,
    status          VARCHAR(16) NOT NULL,
    error_message   TEXT,
    executed_at     TIMESTAMP(6) NULL,
    completed_at    TIMESTAMP(6) NULL,
    duration_ms     INT,
    UNIQUE KEY uniq_%s_name_version (name, version),
    INDEX idx_%s_status (status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`, table, table, table), nil

	case DialectSQLite:
		return fmt.Sprintf(`-- Migration history: one row per (name, version) execution attempt
CREATE TABLE IF NOT EXISTS %s (
    name            TEXT NOT NULL,
    version         TEXT NOT NULL,
    status          TEXT NOT NULL CHECK (status IN ('PENDING', 'RUNNING', 'COMPLETED', 'FAILED', 'SKIPPED')),
    error_message   TEXT,
    executed_at     TIMESTAMP,
    completed_at    TIMESTAMP,
    duration_ms     INTEGER,
    UNIQUE (name, version)
);

-- Index for status queries from the reporter
CREATE INDEX IF NOT EXISTS idx_%s_status ON %s (status);
`, table, table, table), nil

	default:
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
}
