package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemashift/internal/migration"
	"github.com/tordrt/schemashift/internal/model"
	"github.com/tordrt/schemashift/internal/runner"
)

func resetFlags() {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		reset(c.Flags())
	}
}

func execute(args ...string) (string, error) {
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

const usersModel = `
tables:
  - name: users
    fields:
      - {name: id, type: integer, primary_key: true}
      - {name: email, type: varchar, size: [255]}
`

// project writes a model and a config file into a temp dir and returns the
// config path
func project(t *testing.T, withDB bool) string {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(modelPath, []byte(usersModel), 0o644))

	cfg := fmt.Sprintf("migrations_dir: %s\nmodel: %s\n", filepath.Join(dir, "migrations"), modelPath)
	if withDB {
		cfg += fmt.Sprintf("database:\n  url: sqlite://%s\n", filepath.Join(dir, "app.db"))
	}
	cfgPath := filepath.Join(dir, "schemashift.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath
}

func TestWorkflow(t *testing.T) {
	cfgPath := project(t, true)

	out, err := execute("--config", cfgPath, "makemigration", "--name", "0001_initial")
	require.NoError(t, err)
	assert.Contains(t, out, "Created migration 0001_initial")

	out, err = execute("--config", cfgPath, "makemigration", "--name", "0001_again")
	require.NoError(t, err)
	assert.Equal(t, "No changes detected.\n", out)

	out, err = execute("--config", cfgPath, "sql")
	require.NoError(t, err)
	assert.Contains(t, out, "-- 0001_initial (up)")
	assert.Contains(t, out, "CREATE TABLE users")

	out, err = execute("--config", cfgPath, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "Applied 0001_initial\n", out)

	out, err = execute("--config", cfgPath, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to migrate.\n", out)

	out, err = execute("--config", cfgPath, "status", "--format", "json")
	require.NoError(t, err)
	var statuses []struct {
		Name    string `json:"name"`
		Applied bool   `json:"applied"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, "0001_initial", statuses[0].Name)
	assert.True(t, statuses[0].Applied)

	out, err = execute("--config", cfgPath, "inspect", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: users")
	assert.NotContains(t, out, "schemashift_migrations")

	out, err = execute("--config", cfgPath, "inspect", "--exclude", "users")
	require.NoError(t, err)
	assert.NotContains(t, out, "users")

	out, err = execute("--config", cfgPath, "downgrade")
	require.NoError(t, err)
	assert.Equal(t, "Reverted 0001_initial\n", out)

	out, err = execute("--config", cfgPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] 0001_initial")
}

func TestOfflineSQL(t *testing.T) {
	cfgPath := project(t, false)

	_, err := execute("--config", cfgPath, "makemigration", "--name", "0001_initial")
	require.NoError(t, err)

	_, err = execute("--config", cfgPath, "sql")
	assertExitCode(t, err, ExitConfig)

	out, err := execute("--config", cfgPath, "--dialect", "postgres", "sql", "--down")
	require.NoError(t, err)
	assert.Contains(t, out, "-- 0001_initial (down)")
	assert.Contains(t, out, "DROP TABLE users;")

	dir := filepath.Join(t.TempDir(), "sql")
	_, err = execute("--config", cfgPath, "--dialect", "mysql", "sql", "--output-dir", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "0001_initial.up.sql"))

	_, err = execute("--config", cfgPath, "sql", "-o", "a.sql", "-d", dir)
	assertExitCode(t, err, ExitConfig)

	_, err = execute("--config", cfgPath, "--dialect", "oracle", "sql")
	assertExitCode(t, err, ExitConfig)
}

func TestCommandErrors(t *testing.T) {
	offline := project(t, false)
	_, err := execute("--config", offline, "migrate")
	assertExitCode(t, err, ExitConfig)

	_, err = execute("--config", filepath.Join(t.TempDir(), "missing.yaml"), "status")
	assertExitCode(t, err, ExitConfig)

	online := project(t, true)
	_, err = execute("--config", online, "status", "--format", "xml")
	assertExitCode(t, err, ExitConfig)

	_, err = execute("--config", online, "inspect", "--format", "xml")
	assertExitCode(t, err, ExitConfig)

	_, err = execute("--config", online, "downgrade", "0009_missing")
	assertExitCode(t, err, ExitGeneral)
	assert.ErrorIs(t, err, migration.ErrNotFound)

	_, err = execute("--config", online, "--log-format", "xml", "status")
	assertExitCode(t, err, ExitConfig)
}

func TestVersion(t *testing.T) {
	out, err := execute("version")
	require.NoError(t, err)
	assert.Contains(t, out, "schemashift ")
	assert.Contains(t, out, runtime.Version())

	out, err = execute("version", "--format", "json")
	require.NoError(t, err)
	var b buildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.NotEmpty(t, b.Version)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, b.Platform)

	_, err = execute("version", "--format", "xml")
	assertExitCode(t, err, ExitConfig)
}

func TestBuildInfoString(t *testing.T) {
	tests := []struct {
		name string
		b    buildInfo
		want string
	}{
		{
			name: "release",
			b:    buildInfo{Version: "v1.2.0", GoVersion: "go1.24.4", Platform: "linux/amd64"},
			want: "schemashift v1.2.0 go1.24.4 linux/amd64",
		},
		{
			name: "dirty checkout",
			b:    buildInfo{Version: "devel", Revision: "0123456789abcdef", Modified: true, GoVersion: "go1.24.4", Platform: "darwin/arm64"},
			want: "schemashift devel (0123456789ab-dirty) go1.24.4 darwin/arm64",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.b.String())
		})
	}
}

func assertExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
	assert.Equal(t, code, exitErr.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{runner.ErrNoDatabase, ExitConfig},
		{runner.ErrNoModel, ExitConfig},
		{fmt.Errorf("load: %w", model.ErrInvalid), ExitSchemaParse},
		{fmt.Errorf("graph: %w", migration.ErrCycle), ExitSchemaParse},
		{migration.ErrUnknownDependency, ExitSchemaParse},
		{runner.ErrNotApplied, ExitGeneral},
		{errors.New("boom"), ExitGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := classify("op", tt.err)
			assert.Equal(t, tt.want, got.Code)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, ExitDBConnect, reportError(&buf, DBConnectError("connecting to database", errors.New("refused"))))
	assert.Equal(t, "Error: connecting to database: refused\n", buf.String())

	buf.Reset()
	assert.Equal(t, ExitGeneral, reportError(&buf, errors.New("plain")))
	assert.Equal(t, "Error: plain\n", buf.String())
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "blank", in: "  ", want: nil},
		{name: "single table", in: "users", want: []string{"users"}},
		{name: "trims spaces", in: "users, posts ,comments", want: []string{"users", "posts", "comments"}},
		{name: "drops empty entries", in: "users,,posts,", want: []string{"users", "posts"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.in))
		})
	}
}
