package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getpup/migration-orchestrator/history/sqlstore"
)

// resetOptions holds flags for the reset command.
type resetOptions struct {
	*rootOptions
	Force bool
}

func newResetCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &resetOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all migration history",
		Long: `Delete every record from the history table, forcing all migrations
to re-execute on the next run. Migrated schema and data are not
touched. Intended for development and test databases.

Example:
  migrate-orchestrator reset --driver sqlite --dsn ./dev.db --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetHistory(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "confirm deletion of all history records")

	return cmd
}

func resetHistory(cmd *cobra.Command, opts *resetOptions) error {
	if !opts.Force {
		return fmt.Errorf("reset deletes all migration history; re-run with --force to confirm")
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

	if err := store.Reset(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("migration history cleared from %s\n", opts.Table)

	return nil
}
