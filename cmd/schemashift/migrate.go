package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemashift"
	"github.com/tordrt/schemashift/internal/formatter"
)

var migrateDryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Long: `Apply every pending migration in dependency order. The run is a single
transaction: if one migration fails, none of the run is recorded.`,
	Example: `  # Apply pending migrations
  schemashift migrate --db postgres://localhost/mydb

  # Preview the SQL without applying
  schemashift migrate --db postgres://localhost/mydb --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx, true)
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if migrateDryRun {
			scripts, err := eng.Scripts(ctx, schemashift.ScriptOptions{})
			if err != nil {
				return classify("rendering migrations", err)
			}
			return formatter.NewSQLFormatter(cmd.OutOrStdout()).Format(scripts)
		}

		applied, err := eng.Migrate(ctx)
		if err != nil {
			return classify("migration failed", err)
		}
		if quiet {
			return nil
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
			return nil
		}
		for _, name := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "output pending migration SQL without applying")
}
