package main

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tordrt/schemashift"
	"github.com/tordrt/schemashift/internal/config"
	"github.com/tordrt/schemashift/internal/dialect"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *config.Config
	configPath string
	logger     = zerolog.Nop()

	// Persistent flags
	cfgFile       string
	verbose       int
	quiet         bool
	dbURL         string
	dialectName   string
	migrationsDir string
	modelPath     string
	logFormat     string
)

var rootCmd = &cobra.Command{
	Use:   "schemashift",
	Short: "Declarative schema migrations",
	Long: `schemashift - Declarative schema migrations

schemashift keeps a YAML model of your database schema, generates migrations
from changes to it, and applies them to PostgreSQL, MySQL or SQLite.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = config.Load(cfgFile)
		if err != nil {
			return ConfigError("loading configuration", err)
		}

		logger, err = newLogger(cmd.ErrOrStderr(), cfg.Log.Level, config.Resolve(logFormat, cfg.Log.Format))
		if err != nil {
			return ConfigError("configuring logger", err)
		}
		if configPath != "" {
			logger.Debug().Str("path", configPath).Msg("loaded config")
		}
		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupMigrations = "migrations"
	groupDatabase   = "database"
	groupUtility    = "utility"
)

func init() {
	// Persistent flags (available to all commands)
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default: auto-discover schemashift.yaml)")
	f.CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	f.BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	f.StringVar(&dbURL, "db", "", "database URL (postgres://, mysql:// or sqlite://)")
	f.StringVar(&dialectName, "dialect", "", "SQL dialect override: "+strings.Join(dialect.Names(), ", "))
	f.StringVar(&migrationsDir, "migrations-dir", "", "directory holding migration files")
	f.StringVar(&modelPath, "model", "", "model file migrations are generated from")
	f.StringVar(&logFormat, "log-format", "", "log output: console or json")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupMigrations, Title: "Migrations:"},
		&cobra.Group{ID: groupDatabase, Title: "Database:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	makeMigrationCmd.GroupID = groupMigrations
	sqlCmd.GroupID = groupMigrations
	rootCmd.AddCommand(makeMigrationCmd)
	rootCmd.AddCommand(sqlCmd)

	migrateCmd.GroupID = groupDatabase
	downgradeCmd.GroupID = groupDatabase
	statusCmd.GroupID = groupDatabase
	inspectCmd.GroupID = groupDatabase
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(downgradeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(inspectCmd)

	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ExitWithError(err)
	}
}

// newLogger builds the process logger. -v and -q override the configured level.
func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		if lvl, err = zerolog.ParseLevel(level); err != nil {
			return zerolog.Nop(), err
		}
	}
	switch {
	case quiet:
		lvl = zerolog.ErrorLevel
	case verbose == 1:
		lvl = zerolog.DebugLevel
	case verbose > 1:
		lvl = zerolog.TraceLevel
	}

	switch format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w}
	case "json":
	default:
		return zerolog.Nop(), errors.New("log format must be console or json, got " + format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// openEngine resolves flags over config and opens the engine. requireDB
// makes a missing database URL a config error.
func openEngine(ctx context.Context, requireDB bool) (*schemashift.Engine, error) {
	url := config.Resolve(dbURL, cfg.Database.URL)
	if requireDB && url == "" {
		return nil, ConfigError("database URL is required (use --db or set database.url in config)", nil)
	}

	eng, err := schemashift.Open(ctx, schemashift.Options{
		DatabaseURL:   url,
		Dialect:       config.Resolve(dialectName, cfg.Dialect),
		MigrationsDir: config.Resolve(migrationsDir, cfg.MigrationsDir),
		ModelPath:     config.Resolve(modelPath, cfg.Model),
		RecorderTable: cfg.RecorderTable,
		ExcludeTables: cfg.ExcludeTables,
		Logger:        &logger,
	})
	if err != nil {
		if errors.Is(err, dialect.ErrUnknownDialect) {
			return nil, ConfigError("dialect", err)
		}
		return nil, DBConnectError("connecting to database", err)
	}
	return eng, nil
}

func closeEngine(eng *schemashift.Engine) {
	if err := eng.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close database connection")
	}
}

// splitList parses a comma-separated flag value
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// outputWriter returns the file named by path, or the command's stdout
func outputWriter(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, GeneralError("failed to create output file", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close output file")
		}
	}, nil
}
