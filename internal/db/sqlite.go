package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/schemashift/internal/dialect"
)

// NewSQLiteClient opens a SQLite database file. The pool is limited to one
// connection since each connection to ":memory:" is a separate database.
func NewSQLiteClient(ctx context.Context, path string) (*Client, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return open(ctx, sqlDB, dialect.SQLite{})
}
