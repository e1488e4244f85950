package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	rootpkg "github.com/getpup/migration-orchestrator"
	"github.com/getpup/migration-orchestrator/metrics"
	"github.com/getpup/migration-orchestrator/pkg/orchestrator"
	"github.com/getpup/migration-orchestrator/sqlsource"
)

// runOptions holds flags for the run command.
type runOptions struct {
	*rootOptions
	MetricsAddr string
}

func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <migrations-dir>",
		Short: "Execute all pending migrations",
		Long: `Execute all pending migrations from a directory of .sql files.

Each file is one migration named vNNN_name.sql, with optional leading
directives (-- phase: N, -- depends_on: a, b, -- critical, -- probe: <query>).
Completed migrations are skipped. A critical failure aborts the run
with a non-zero exit; optional failures are recorded and the run
continues.

Example:
  migrate-orchestrator run --driver postgres --dsn "$DATABASE_URL" ./migrations`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on during the run (e.g. :9090)")

	return cmd
}

func runMigrations(ctx context.Context, opts *runOptions, dir string) error {
	logger, err := opts.newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	defs, err := sqlsource.LoadDir(os.DirFS(dir), ".")
	if err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}
	if len(defs) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}

	db, err := opts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if opts.MetricsAddr != "" {
		server := metrics.NewServer(opts.MetricsAddr)
		server.Start()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	orch, err := orchestrator.New(
		orchestrator.WithDatabase(db),
		orchestrator.WithDefinitions(defs),
		orchestrator.WithDialect(opts.Driver),
		orchestrator.WithTableName(opts.Table),
		orchestrator.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	summary, err := orch.Run(ctx)
	if err != nil {
		if errors.Is(err, rootpkg.ErrRunAborted) {
			return fmt.Errorf("run %s aborted after %d completed, %d failed: %w",
				summary.RunID, summary.Completed, summary.Failed, err)
		}
		return err
	}

	fmt.Printf("run %s completed: %d applied, %d skipped, %d failed\n",
		summary.RunID, summary.Completed, summary.Skipped, summary.Failed)
	for _, name := range summary.FailedOptional {
		fmt.Printf("  optional migration failed: %s\n", name)
	}

	return nil
}
