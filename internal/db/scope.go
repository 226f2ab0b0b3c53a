package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Execer is the minimal interface needed to apply migrations and record them.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scope is the run-level transaction. Work done through Nested is only
// durable once the Scope itself commits.
type Scope struct {
	tx       *sql.Tx
	nestable bool
	depth    int
	done     bool
}

// Begin opens the outer transaction scope on the client
func (c *Client) Begin(ctx context.Context) (*Scope, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Scope{tx: tx, nestable: c.dialect.TransactionalDDL()}, nil
}

// Execer returns the transaction all statements of the run go through
func (s *Scope) Execer() Execer {
	return s.tx
}

// Nestable reports whether Nested uses savepoints. Without transactional
// DDL a savepoint cannot undo a schema change, so none is taken.
func (s *Scope) Nestable() bool {
	return s.nestable
}

// Nested runs fn in an inner scope. On success the savepoint is released,
// which is a provisional commit; on failure the inner work is rolled back
// to the savepoint and the error is returned.
func (s *Scope) Nested(ctx context.Context, fn func(Execer) error) error {
	if s.done {
		return sql.ErrTxDone
	}
	if !s.nestable {
		return fn(s.tx)
	}

	s.depth++
	name := fmt.Sprintf("schemashift_sp%d", s.depth)
	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	if err := fn(s.tx); err != nil {
		if _, rbErr := s.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back to savepoint: %w", rbErr))
		}
		return err
	}
	if _, err := s.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

// Commit makes every released inner scope durable
func (s *Scope) Commit() error {
	if s.done {
		return sql.ErrTxDone
	}
	s.done = true
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback discards the whole run, including released inner scopes. It is
// a no-op after Commit so it can be deferred.
func (s *Scope) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.tx.Rollback()
}
