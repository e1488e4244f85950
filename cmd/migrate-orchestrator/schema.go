package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getpup/migration-orchestrator/history/sqlstore"
)

func newSchemaCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the history table DDL",
		Long: `Print the CREATE TABLE statement for the history table without
connecting to a database. Useful for deployments that provision
schema through a separate migration pipeline.

Example:
  migrate-orchestrator schema --driver mysql --table app_migrations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect, err := rootOpts.dialect()
			if err != nil {
				return err
			}

			ddl, err := sqlstore.SchemaSQL(dialect, rootOpts.Table)
			if err != nil {
				return err
			}

			fmt.Println(ddl)
			return nil
		},
	}

	return cmd
}
