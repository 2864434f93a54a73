package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/pgfixture/internal/platform/postgres"
)

// newPgError builds a server error with the given SQLSTATE.
func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Severity: "ERROR",
		Code:     code,
		Message:  "error message",
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"missing database", newPgError(pgerrcode.InvalidCatalogName), postgres.ErrDatabaseNotFound},
		{"duplicate database", newPgError(pgerrcode.DuplicateDatabase), postgres.ErrDatabaseExists},
		{"insufficient privilege", newPgError(pgerrcode.InsufficientPrivilege), postgres.ErrPermissionDenied},
		{"bad password", newPgError(pgerrcode.InvalidPassword), postgres.ErrAuthentication},
		{"object in use", newPgError(pgerrcode.ObjectInUse), postgres.ErrDatabaseInUse},
		{"cannot connect now", newPgError(pgerrcode.CannotConnectNow), postgres.ErrUnreachable},
		{"too many connections", newPgError(pgerrcode.TooManyConnections), postgres.ErrUnreachable},
		{"connection failure", newPgError(pgerrcode.ConnectionFailure), postgres.ErrUnreachable},
		{"deadline", context.DeadlineExceeded, postgres.ErrUnreachable},
		{"wrapped missing database", fmt.Errorf("outer: %w", newPgError(pgerrcode.InvalidCatalogName)), postgres.ErrDatabaseNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mapped := postgres.MapError(tc.err)
			assert.ErrorIs(t, mapped, tc.sentinel)
			assert.ErrorIs(t, mapped, tc.err, "original error should stay in the chain")
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.MapError(nil))

	plain := errors.New("something else")
	assert.Same(t, plain, postgres.MapError(plain))

	syntax := newPgError(pgerrcode.SyntaxError)
	mapped := postgres.MapError(syntax)
	var pgErr *pgconn.PgError
	assert.ErrorAs(t, mapped, &pgErr)
	assert.Equal(t, pgerrcode.SyntaxError, pgErr.Code)
	assert.NotErrorIs(t, mapped, postgres.ErrUnreachable)
}

func TestIsConnectionError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"sentinel", postgres.ErrUnreachable, true},
		{"deadline", context.DeadlineExceeded, true},
		{"connection exception", newPgError(pgerrcode.ConnectionDoesNotExist), true},
		{"too many connections", newPgError(pgerrcode.TooManyConnections), true},
		{"duplicate database", newPgError(pgerrcode.DuplicateDatabase), false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, postgres.IsConnectionError(tc.err))
		})
	}
}

func TestIsDatabaseNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsDatabaseNotFound(newPgError(pgerrcode.InvalidCatalogName)))
	assert.True(t, postgres.IsDatabaseNotFound(postgres.MapError(newPgError(pgerrcode.InvalidCatalogName))))
	assert.False(t, postgres.IsDatabaseNotFound(newPgError(pgerrcode.DuplicateDatabase)))
	assert.False(t, postgres.IsDatabaseNotFound(errors.New("database does not exist")))
}
