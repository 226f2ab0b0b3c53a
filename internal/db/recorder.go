package db

import (
	"context"
	"fmt"
	"time"

	"github.com/tordrt/schemashift/internal/dialect"
)

// DefaultRecorderTable holds the names of applied migrations
const DefaultRecorderTable = "schemashift_migrations"

// Recorder tracks applied migrations by name in a dedicated table. Every
// method takes the Execer to run on so that recording joins the same
// transaction as the migration SQL.
type Recorder struct {
	dialect dialect.Dialect
	table   string
}

// NewRecorder creates a recorder; an empty table name uses DefaultRecorderTable
func NewRecorder(d dialect.Dialect, table string) *Recorder {
	if table == "" {
		table = DefaultRecorderTable
	}
	return &Recorder{dialect: d, table: table}
}

// Table returns the recorder table name
func (r *Recorder) Table() string {
	return r.table
}

// Ensure creates the recorder table if it does not exist. On MySQL this
// commits implicitly, so call it outside the run transaction.
func (r *Recorder) Ensure(ctx context.Context, ex Execer) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name varchar(255) NOT NULL PRIMARY KEY,
		applied_at timestamp NOT NULL
	)`, r.dialect.QuoteIdent(r.table))
	if _, err := ex.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", r.table, err)
	}
	return nil
}

// IsApplied reports whether a migration has been recorded
func (r *Recorder) IsApplied(ctx context.Context, ex Execer, name string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE name = %s", r.dialect.QuoteIdent(r.table), r.dialect.Placeholder(1))
	var n int
	if err := ex.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	return n > 0, nil
}

// MarkApplied records a migration as applied
func (r *Recorder) MarkApplied(ctx context.Context, ex Execer, name string, at time.Time) error {
	query := fmt.Sprintf("INSERT INTO %s (name, applied_at) VALUES (%s, %s)",
		r.dialect.QuoteIdent(r.table), r.dialect.Placeholder(1), r.dialect.Placeholder(2))
	if _, err := ex.ExecContext(ctx, query, name, at.UTC()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	return nil
}

// UnmarkApplied removes a migration's record
func (r *Recorder) UnmarkApplied(ctx context.Context, ex Execer, name string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE name = %s", r.dialect.QuoteIdent(r.table), r.dialect.Placeholder(1))
	if _, err := ex.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("failed to remove migration record %s: %w", name, err)
	}
	return nil
}

// Applied returns every recorded migration with the time it was applied
func (r *Recorder) Applied(ctx context.Context, ex Execer) (map[string]time.Time, error) {
	query := fmt.Sprintf("SELECT name, applied_at FROM %s", r.dialect.QuoteIdent(r.table))
	rows, err := ex.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var name string
		var at time.Time
		if err := rows.Scan(&name, &at); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.table, err)
		}
		applied[name] = at
	}
	return applied, rows.Err()
}
