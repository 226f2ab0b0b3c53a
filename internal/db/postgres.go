package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/tordrt/schemashift/internal/dialect"
)

// NewPostgresClient connects to PostgreSQL through pgx, exposed as a
// database/sql pool so transactions and the recorder share one code path
func NewPostgresClient(ctx context.Context, connString string) (*Client, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	return open(ctx, stdlib.OpenDB(*cfg), dialect.Postgres{})
}
