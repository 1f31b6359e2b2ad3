package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql operations shared by *sql.DB and
// *sql.Tx.  Repository methods resolve their executor through it so the
// same method works standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Store owns the database handle and runs functions inside transactions
// carried on the context.  Every repository is bound to a Store; when a
// caller wraps repository calls in WithTx, those calls automatically
// share the same transaction.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the provided database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the raw handle for callers that need it (health checks).
func (s *Store) DB() *sql.DB { return s.db }

// WithTx begins a transaction, stores it on the context and invokes fn.
// The transaction commits when fn returns nil and rolls back otherwise.
// Nested calls reuse the transaction already on the context.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// conn returns the transaction on the context when present, otherwise
// the plain database handle.
func (s *Store) conn(ctx context.Context) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}
