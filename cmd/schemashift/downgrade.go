package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var downgradeCmd = &cobra.Command{
	Use:   "downgrade [migration...]",
	Short: "Revert applied migrations",
	Long: `Revert the named migrations together with every applied migration that
depends on them. With no names, the last applied migration is reverted.`,
	Example: `  # Revert the last applied migration
  schemashift downgrade

  # Revert a migration and its dependents
  schemashift downgrade 20240102030405_auto`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx, true)
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		reverted, err := eng.Downgrade(ctx, args...)
		if err != nil {
			return classify("downgrade failed", err)
		}
		if quiet {
			return nil
		}
		if len(reverted) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to downgrade.")
			return nil
		}
		for _, name := range reverted {
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted %s\n", name)
		}
		return nil
	},
}
