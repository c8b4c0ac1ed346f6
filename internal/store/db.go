package store

import (
	"context"
	"database/sql"
)

// DBTX is the minimal database surface the card store issues queries
// against. Both *sql.DB and *sql.Tx satisfy it, so the same query code
// serves plain calls and the transactional paths opened by WithTx and
// RunInTransaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
