// Package config discovers and loads schemashift configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25

	envPrefix = "SCHEMASHIFT"
)

var configNames = []string{"schemashift.yaml", "schemashift.yml"}

// Config represents the schemashift configuration from schemashift.yaml.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`

	// Dialect overrides the dialect inferred from the database URL. It is
	// also what `sql` renders for when no database is configured.
	Dialect string `mapstructure:"dialect"`

	MigrationsDir string   `mapstructure:"migrations_dir"`
	Model         string   `mapstructure:"model"`
	RecorderTable string   `mapstructure:"recorder_table"`
	ExcludeTables []string `mapstructure:"exclude_tables"`

	Log LogConfig `mapstructure:"log"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load discovers and loads configuration with proper precedence:
// env > config file > defaults. Flags are applied on top by the caller.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func Load(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.url", "")
	v.SetDefault("dialect", "")
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("model", "schema.yaml")
	v.SetDefault("recorder_table", "schemashift_migrations")
	v.SetDefault("exclude_tables", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for schemashift.yaml or
// schemashift.yml, stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}

// Resolve returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func Resolve(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
