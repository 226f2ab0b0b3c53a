package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemashift"
)

var makeMigrationName string

var makeMigrationCmd = &cobra.Command{
	Use:   "makemigration",
	Short: "Generate the next migration from the model",
	Long: `Compare the model with the schema built by replaying every existing
migration and write the difference as a new migration file.`,
	Example: `  # Generate with a timestamped name
  schemashift makemigration

  # Generate with an explicit name
  schemashift makemigration --name 0002_add_orders`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx, false)
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		m, err := eng.MakeMigration(ctx, makeMigrationName)
		if errors.Is(err, schemashift.ErrNoChanges) {
			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes detected.")
			}
			return nil
		}
		if err != nil {
			return classify("generating migration", err)
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Created migration %s (%d steps)\n", m.Name, len(m.Upgrade))
		}
		return nil
	},
}

func init() {
	makeMigrationCmd.Flags().StringVar(&makeMigrationName, "name", "", "migration name (default: timestamp_auto)")
}
