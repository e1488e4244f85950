// Command migrate-orchestrator runs, inspects, and resets database
// migrations defined as .sql files.
//
// Usage:
//
//	migrate-orchestrator run --driver postgres --dsn "$DATABASE_URL" ./migrations
//	migrate-orchestrator status --driver postgres --dsn "$DATABASE_URL"
//	migrate-orchestrator reset --driver postgres --dsn "$DATABASE_URL" --force
//	migrate-orchestrator schema --driver mysql
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/getpup/migration-orchestrator/history/sqlstore"
	"github.com/getpup/migration-orchestrator/pkg/version"
)

// rootOptions holds global flags shared by all subcommands.
type rootOptions struct {
	Driver  string
	DSN     string
	Table   string
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "migrate-orchestrator",
		Short:         "Orchestrate ordered, tracked database migrations",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "postgres", "database driver (postgres|mysql|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "database connection string")
	cmd.PersistentFlags().StringVar(&opts.Table, "table", sqlstore.DefaultTableConfig().HistoryTable, "history table name")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newResetCommand(opts))
	cmd.AddCommand(newSchemaCommand(opts))

	return cmd
}

func (o *rootOptions) dialect() (sqlstore.Dialect, error) {
	return sqlstore.ParseDialect(o.Driver)
}

// openDB opens the connection and verifies the driver flag maps to a
// registered driver.
func (o *rootOptions) openDB() (*sql.DB, error) {
	if o.DSN == "" {
		return nil, fmt.Errorf("--dsn is required")
	}

	dialect, err := o.dialect()
	if err != nil {
		return nil, err
	}

	driverName := map[sqlstore.Dialect]string{
		sqlstore.DialectPostgres: "postgres",
		sqlstore.DialectMySQL:    "mysql",
		sqlstore.DialectSQLite:   "sqlite3",
	}[dialect]

	db, err := sql.Open(driverName, o.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

func (o *rootOptions) newLogger() (*zap.Logger, error) {
	if o.Verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true

	return cfg.Build()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
