package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jpillora/backoff"
)

const (
	terminateBackendsSQL = `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE pid <> pg_backend_pid() AND datname = $1`
	databaseExistsSQL    = `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	listDatabasesSQL     = `SELECT datname FROM pg_database WHERE left(datname, length($1)) = $1 ORDER BY datname`
)

// Admin is an administrative session against a server's system database.
// It is not safe for concurrent use; each lifecycle phase opens its own.
type Admin struct {
	conn   *pgx.Conn
	logger *slog.Logger
}

// ConnectAdmin opens an administrative connection to url.
// When attempts is greater than one, transient connection failures are retried
// with jittered exponential backoff. Authentication and catalog errors are
// returned immediately.
func ConnectAdmin(ctx context.Context, url string, attempts int, logger *slog.Logger) (*Admin, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if attempts < 1 {
		attempts = 1
	}

	b := &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    2 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := pgx.Connect(ctx, url)
		if err == nil {
			return &Admin{conn: conn, logger: logger}, nil
		}
		lastErr = err

		if attempt == attempts || !isRetryable(err) {
			break
		}

		delay := b.Duration()
		logger.Debug("admin connection failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"retry_in", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, MapError(errors.Join(lastErr, ctx.Err()))
		case <-time.After(delay):
		}
	}

	return nil, MapError(lastErr)
}

// CreateDatabase issues CREATE DATABASE with the name quoted as an identifier.
func (a *Admin) CreateDatabase(ctx context.Context, name string) error {
	sql := "CREATE DATABASE " + pgx.Identifier{name}.Sanitize()
	if _, err := a.conn.Exec(ctx, sql); err != nil {
		return MapError(err)
	}
	a.logger.Debug("database created", "database", name)
	return nil
}

// TerminateBackends ends every session connected to name except this one and
// returns how many sessions were signalled.
func (a *Admin) TerminateBackends(ctx context.Context, name string) (int, error) {
	rows, err := a.conn.Query(ctx, terminateBackendsSQL, name)
	if err != nil {
		return 0, MapError(err)
	}
	results, err := pgx.CollectRows(rows, pgx.RowTo[bool])
	if err != nil {
		return 0, MapError(err)
	}

	terminated := 0
	for _, ok := range results {
		if ok {
			terminated++
		}
	}
	if terminated > 0 {
		a.logger.Debug("terminated backends", "database", name, "count", terminated)
	}
	return terminated, nil
}

// DropDatabase issues DROP DATABASE for name.
func (a *Admin) DropDatabase(ctx context.Context, name string) error {
	sql := "DROP DATABASE " + pgx.Identifier{name}.Sanitize()
	if _, err := a.conn.Exec(ctx, sql); err != nil {
		return MapError(err)
	}
	a.logger.Debug("database dropped", "database", name)
	return nil
}

// DatabaseExists reports whether a database called name is present in pg_database.
func (a *Admin) DatabaseExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := a.conn.QueryRow(ctx, databaseExistsSQL, name).Scan(&exists); err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// ListDatabases returns the names of all databases starting with prefix, sorted.
func (a *Admin) ListDatabases(ctx context.Context, prefix string) ([]string, error) {
	rows, err := a.conn.Query(ctx, listDatabasesSQL, prefix)
	if err != nil {
		return nil, MapError(err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, MapError(err)
	}
	return names, nil
}

// Close ends the administrative session.
func (a *Admin) Close(ctx context.Context) error {
	if err := a.conn.Close(ctx); err != nil {
		return fmt.Errorf("failed to close admin connection: %w", err)
	}
	return nil
}
