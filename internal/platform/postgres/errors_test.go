package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Rrock-k/interval-learn-bot/internal/store"
)

// timeoutErr implements net.Error.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestMapError(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "nil passes through",
			err:  nil,
			want: nil,
		},
		{
			name: "no rows becomes not found",
			err:  sql.ErrNoRows,
			want: store.ErrNotFound,
		},
		{
			name: "unique violation becomes duplicate",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "cards_pkey"},
			want: store.ErrDuplicate,
		},
		{
			name: "foreign key violation becomes invalid entity",
			err:  &pgconn.PgError{Code: "23503", ConstraintName: "notification_log_card_id_fkey"},
			want: store.ErrInvalidEntity,
		},
		{
			name: "check violation becomes invalid entity",
			err:  &pgconn.PgError{Code: "23514", ConstraintName: "cards_easiness_check"},
			want: store.ErrInvalidEntity,
		},
		{
			name: "not null violation becomes invalid entity",
			err:  &pgconn.PgError{Code: "23502", ColumnName: "user_id"},
			want: store.ErrInvalidEntity,
		},
		{
			name: "bad connection is transient",
			err:  driver.ErrBadConn,
			want: store.ErrTransient,
		},
		{
			name: "deadline exceeded is transient",
			err:  fmt.Errorf("query: %w", context.DeadlineExceeded),
			want: store.ErrTransient,
		},
		{
			name: "network timeout is transient",
			err:  fmt.Errorf("dial: %w", timeoutErr{}),
			want: store.ErrTransient,
		},
		{
			name: "connection exception class is transient",
			err:  &pgconn.PgError{Code: "08006"},
			want: store.ErrTransient,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError(tc.err)
			if tc.want == nil {
				if got != nil {
					t.Errorf("Expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMapErrorUnknownErrorsPassThrough(t *testing.T) {
	t.Parallel()

	original := errors.New("something domain specific")
	if got := MapError(original); got != original {
		t.Errorf("Expected the original error back, got %v", got)
	}

	// Serialization failures are not connection-class; they surface as-is so
	// the transaction layer can decide what to do.
	serialization := &pgconn.PgError{Code: "40001"}
	if got := MapError(serialization); errors.Is(got, store.ErrTransient) {
		t.Errorf("serialization failure should not be tagged transient, got %v", got)
	}
}

// fakeResult implements sql.Result for CheckRowsAffected.
type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	if err := CheckRowsAffected(fakeResult{rows: 1}, "card"); err != nil {
		t.Errorf("Expected no error for affected rows, got %v", err)
	}

	err := CheckRowsAffected(fakeResult{rows: 0}, "card")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for zero rows, got %v", err)
	}

	err = CheckRowsAffected(fakeResult{err: errors.New("driver broke")}, "card")
	if err == nil || errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected a wrapped driver error, got %v", err)
	}

	if err := CheckRowsAffected(nil, "card"); err == nil {
		t.Error("Expected an error for nil result")
	}
}
