package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemashift/internal/formatter"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Example: `  # Check status
  schemashift status --db postgres://localhost/mydb

  # Machine-readable
  schemashift status --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		eng, err := openEngine(ctx, true)
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		statuses, err := eng.Status(ctx)
		if err != nil {
			return classify("getting status", err)
		}

		switch statusFormat {
		case "text":
			return formatter.NewTextFormatter(cmd.OutOrStdout()).FormatStatus(statuses)
		case "json":
			return formatter.NewJSONFormatter(cmd.OutOrStdout()).Format(statuses)
		default:
			return ConfigError(fmt.Sprintf("invalid format: %s (must be 'text' or 'json')", statusFormat), nil)
		}
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "text", "output format: text or json")
}
