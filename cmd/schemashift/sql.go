package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemashift"
	"github.com/tordrt/schemashift/internal/formatter"
)

var (
	sqlDown      bool
	sqlAll       bool
	sqlOutput    string
	sqlOutputDir string
)

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Render migrations as SQL",
	Long: `Render migrations as SQL without executing them. With a database, only
pending migrations are rendered (or applied ones with --down). Without a
database every migration is rendered for --dialect.`,
	Example: `  # Pending upgrade SQL
  schemashift sql --db postgres://localhost/mydb

  # Every migration for MySQL, one file per migration
  schemashift sql --dialect mysql --output-dir build/sql`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sqlOutput != "" && sqlOutputDir != "" {
			return ConfigError("cannot use both --output-dir and --output flags", nil)
		}

		ctx := cmd.Context()
		eng, err := openEngine(ctx, false)
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		scripts, err := eng.Scripts(ctx, schemashift.ScriptOptions{Down: sqlDown, All: sqlAll})
		if err != nil {
			return classify("rendering migrations", err)
		}

		if sqlOutputDir != "" {
			files, err := formatter.NewMultiFileFormatter(sqlOutputDir).Format(scripts)
			if err != nil {
				return GeneralError("failed to write output", err)
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", len(files), sqlOutputDir)
			}
			return nil
		}

		w, done, err := outputWriter(cmd, sqlOutput)
		if err != nil {
			return err
		}
		defer done()
		if err := formatter.NewSQLFormatter(w).Format(scripts); err != nil {
			return GeneralError("failed to format output", err)
		}
		return nil
	},
}

func init() {
	f := sqlCmd.Flags()
	f.BoolVar(&sqlDown, "down", false, "render downgrade SQL, newest first")
	f.BoolVar(&sqlAll, "all", false, "render every migration, not only pending ones")
	f.StringVarP(&sqlOutput, "output", "o", "", "output file (default: stdout)")
	f.StringVarP(&sqlOutputDir, "output-dir", "d", "", "write one file per migration to this directory")
}
