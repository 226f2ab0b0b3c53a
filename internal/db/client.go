package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tordrt/schemashift/internal/dialect"
)

// Client pairs an open connection pool with the dialect used to talk to it
type Client struct {
	db      *sql.DB
	dialect dialect.Dialect
}

// NewClient wraps an already-open pool, e.g. one owned by the embedding program
func NewClient(sqlDB *sql.DB, d dialect.Dialect) *Client {
	return &Client{db: sqlDB, dialect: d}
}

func open(ctx context.Context, sqlDB *sql.DB, d dialect.Dialect) (*Client, error) {
	// Test the connection
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Client{db: sqlDB, dialect: d}, nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// DB returns the underlying connection pool
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the SQL dialect of the connected database
func (c *Client) Dialect() dialect.Dialect {
	return c.dialect
}
