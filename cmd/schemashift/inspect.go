package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemashift"
	"github.com/tordrt/schemashift/internal/formatter"
)

var (
	inspectFormat  string
	inspectTables  string
	inspectExclude string
	inspectOutput  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the live database schema",
	Long: `Read the schema from the database. The yaml format writes a model file,
which is how an existing database is brought under schemashift.`,
	Example: `  # Compact text overview
  schemashift inspect --db sqlite://app.db

  # Bootstrap a model from an existing database
  schemashift inspect --db postgres://localhost/mydb --format yaml -o schema.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx, true)
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		s, err := eng.Inspect(ctx, splitList(inspectTables))
		if err != nil {
			return classify("failed to extract schema", err)
		}
		s.Exclude(splitList(inspectExclude))

		w, done, err := outputWriter(cmd, inspectOutput)
		if err != nil {
			return err
		}
		defer done()

		switch inspectFormat {
		case "text":
			err = formatter.NewTextFormatter(w).Format(s)
		case "markdown":
			err = formatter.NewMarkdownFormatter(w).Format(s)
		case "json":
			err = formatter.NewJSONFormatter(w).Format(s)
		case "yaml":
			var data []byte
			if data, err = schemashift.MarshalModel(s); err == nil {
				_, err = w.Write(data)
			}
		default:
			return ConfigError(fmt.Sprintf("invalid format: %s (must be 'text', 'markdown', 'json' or 'yaml')", inspectFormat), nil)
		}
		if err != nil {
			return GeneralError("failed to format output", err)
		}
		return nil
	},
}

func init() {
	f := inspectCmd.Flags()
	f.StringVarP(&inspectFormat, "format", "f", "text", "output format: text, markdown, json or yaml")
	f.StringVarP(&inspectTables, "tables", "t", "", "specific tables (comma-separated, optional)")
	f.StringVar(&inspectExclude, "exclude", "", "tables to leave out (comma-separated)")
	f.StringVarP(&inspectOutput, "output", "o", "", "output file (default: stdout)")
}
