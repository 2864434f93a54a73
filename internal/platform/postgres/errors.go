package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned (wrapped) by MapError.
var (
	// ErrDatabaseNotFound is returned when the target database does not exist.
	ErrDatabaseNotFound = errors.New("database does not exist")

	// ErrDatabaseExists is returned when CREATE DATABASE names an existing database.
	ErrDatabaseExists = errors.New("database already exists")

	// ErrPermissionDenied is returned when the role lacks a required privilege.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAuthentication is returned when the server rejects the credentials.
	ErrAuthentication = errors.New("authentication failed")

	// ErrDatabaseInUse is returned when a database cannot be dropped because
	// other sessions are still connected to it.
	ErrDatabaseInUse = errors.New("database is being accessed by other users")

	// ErrUnreachable is returned when the server cannot be reached at all.
	ErrUnreachable = errors.New("database server unreachable")
)

// MapError maps a driver error to one of the sentinel errors above.
// Both the sentinel and the original error remain reachable through errors.Is/As.
// Errors that have no specific mapping are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.InvalidCatalogName:
			return fmt.Errorf("%w: %w", ErrDatabaseNotFound, err)
		case pgErr.Code == pgerrcode.DuplicateDatabase:
			return fmt.Errorf("%w: %w", ErrDatabaseExists, err)
		case pgErr.Code == pgerrcode.InsufficientPrivilege:
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		case pgErr.Code == pgerrcode.InvalidPassword,
			pgErr.Code == pgerrcode.InvalidAuthorizationSpecification:
			return fmt.Errorf("%w: %w", ErrAuthentication, err)
		case pgErr.Code == pgerrcode.ObjectInUse:
			return fmt.Errorf("%w: %w", ErrDatabaseInUse, err)
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgErr.Code == pgerrcode.CannotConnectNow,
			pgErr.Code == pgerrcode.TooManyConnections:
			return fmt.Errorf("%w: %w", ErrUnreachable, err)
		}
		return err
	}

	if IsConnectionError(err) {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	return err
}

// IsConnectionError reports whether err stems from failing to reach or stay
// connected to the server, as opposed to a statement the server rejected.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrUnreachable) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.CannotConnectNow ||
			pgErr.Code == pgerrcode.TooManyConnections
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)
}

// IsDatabaseNotFound reports whether err means the named database does not exist.
func IsDatabaseNotFound(err error) bool {
	if errors.Is(err, ErrDatabaseNotFound) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidCatalogName
}

// isRetryable reports whether a failed connection attempt is worth repeating.
// Credential and catalog errors will not change between attempts.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.CannotConnectNow ||
			pgErr.Code == pgerrcode.TooManyConnections ||
			pgerrcode.IsConnectionException(pgErr.Code)
	}
	return IsConnectionError(err)
}
