//go:build integration
// +build integration

package integration

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tordrt/schemashift"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// postgresAdminDSN returns POSTGRES_TEST_URL or starts a container once
func postgresAdminDSN() (string, error) {
	pgOnce.Do(func() {
		if dsn := os.Getenv("POSTGRES_TEST_URL"); dsn != "" {
			pgDSN = dsn
			return
		}

		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			pgErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx)
		if err != nil {
			_ = container.Terminate(ctx)
			pgErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}
		pgDSN = dsn + "sslmode=disable"
	})
	return pgDSN, pgErr
}

// postgresDB creates an empty database for one test and returns its URL
func postgresDB(t *testing.T) string {
	t.Helper()
	admin, err := postgresAdminDSN()
	if err != nil {
		t.Skipf("PostgreSQL unavailable: %v", err)
	}

	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	name := "schemashift_" + hex.EncodeToString(buf)

	adminDB, err := sql.Open("postgres", admin)
	require.NoError(t, err)
	defer adminDB.Close()
	_, err = adminDB.Exec("CREATE DATABASE " + name)
	require.NoError(t, err)
	t.Cleanup(func() {
		db, err := sql.Open("postgres", admin)
		if err != nil {
			return
		}
		defer db.Close()
		_, _ = db.Exec("DROP DATABASE IF EXISTS " + name + " WITH (FORCE)")
	})

	u, err := url.Parse(admin)
	require.NoError(t, err)
	u.Path = "/" + name
	return u.String()
}

func TestPostgresLifecycle(t *testing.T) {
	runLifecycle(t, postgresDB(t))
}

func TestPostgresFailedRunRollsBack(t *testing.T) {
	ctx := context.Background()
	dsn := postgresDB(t)
	p := newProject(t, shopModel)
	eng := p.open(t, dsn)

	_, err := eng.MakeMigration(ctx, "0001_shop")
	require.NoError(t, err)
	p.saveBroken(t, "0002_broken", "0001_shop")

	_, err = eng.Migrate(ctx)
	require.Error(t, err)

	status, err := eng.Status(ctx)
	require.NoError(t, err)
	for _, st := range status {
		assert.False(t, st.Applied, st.Name)
	}

	// transactional DDL: the tables of 0001 are gone too
	check, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer check.Close()
	var n int
	err = check.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name IN ('customers', 'orders')").Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostgresScripts(t *testing.T) {
	ctx := context.Background()
	p := newProject(t, shopModel)
	eng := p.open(t, postgresDB(t))

	_, err := eng.MakeMigration(ctx, "0001_shop")
	require.NoError(t, err)

	pending, err := eng.Scripts(ctx, schemashift.ScriptOptions{})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = eng.Migrate(ctx)
	require.NoError(t, err)

	pending, err = eng.Scripts(ctx, schemashift.ScriptOptions{})
	require.NoError(t, err)
	assert.Empty(t, pending)
}
