package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	rootpkg "github.com/getpup/migration-orchestrator"
	"github.com/getpup/migration-orchestrator/history/sqlstore"
	"github.com/getpup/migration-orchestrator/report"
)

// statusOptions holds flags for the status command.
type statusOptions struct {
	*rootOptions
	Status string
	Recent int
}

func newStatusCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &statusOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration history",
		Long: `Show the migration history table as an aligned text listing.

Example:
  migrate-orchestrator status --driver postgres --dsn "$DATABASE_URL"
  migrate-orchestrator status --dsn "$DATABASE_URL" --filter FAILED
  migrate-orchestrator status --dsn "$DATABASE_URL" --recent 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStatus(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "filter", "", "only show records with this status (PENDING|RUNNING|COMPLETED|FAILED|SKIPPED)")
	cmd.Flags().IntVar(&opts.Recent, "recent", 0, "only show the N most recently executed records")

	return cmd
}

func showStatus(cmd *cobra.Command, opts *statusOptions) error {
	if opts.Status != "" && opts.Recent > 0 {
		return fmt.Errorf("--filter and --recent are mutually exclusive")
	}

	db, err := opts.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	dialect, err := opts.dialect()
	if err != nil {
		return err
	}

	store, err := sqlstore.NewWithConfig(db, dialect, sqlstore.TableConfig{HistoryTable: opts.Table})
	if err != nil {
		return err
	}
	if err := store.EnsureSchema(cmd.Context()); err != nil {
		return err
	}

	reporter, err := report.New(report.Config{Store: store})
	if err != nil {
		return err
	}

	var records []rootpkg.HistoryRecord
	switch {
	case opts.Status != "":
		records, err = reporter.ByStatus(cmd.Context(), rootpkg.Status(strings.ToUpper(opts.Status)))
	case opts.Recent > 0:
		records, err = reporter.Recent(cmd.Context(), opts.Recent)
	default:
		records, err = reporter.All(cmd.Context())
	}
	if err != nil {
		return err
	}

	fmt.Print(report.Format(records))

	summary, err := reporter.Summarize(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Print(report.FormatSummary(summary))

	return nil
}
