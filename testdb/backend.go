package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/pgfixture/internal/migrate"
	"github.com/phrazzld/pgfixture/internal/platform/postgres"
)

// adminSession is the administrative surface the lifecycle needs.
// *postgres.Admin implements it.
type adminSession interface {
	CreateDatabase(ctx context.Context, name string) error
	TerminateBackends(ctx context.Context, name string) (int, error)
	DropDatabase(ctx context.Context, name string) error
	DatabaseExists(ctx context.Context, name string) (bool, error)
	ListDatabases(ctx context.Context, prefix string) ([]string, error)
	Close(ctx context.Context) error
}

// backend groups the operations that touch the server so the lifecycle can be
// exercised without one.
type backend struct {
	connectAdmin func(ctx context.Context, url string, attempts int, logger *slog.Logger) (adminSession, error)
	openTarget   func(ctx context.Context, url string) (*sql.DB, error)
	migrate      func(ctx context.Context, db *sql.DB, dir, table string) ([]int64, error)
}

var defaultBackend = backend{
	connectAdmin: func(ctx context.Context, url string, attempts int, logger *slog.Logger) (adminSession, error) {
		admin, err := postgres.ConnectAdmin(ctx, url, attempts, logger)
		if err != nil {
			return nil, err
		}
		return admin, nil
	},
	openTarget: openDB,
	migrate: func(ctx context.Context, db *sql.DB, dir, table string) ([]int64, error) {
		set, err := migrate.Load(dir)
		if err != nil {
			return nil, err
		}
		return set.Apply(ctx, db, table)
	},
}

// openDB opens a single-connection database/sql handle on url and verifies it.
func openDB(ctx context.Context, url string) (*sql.DB, error) {
	return openDBWithLimit(ctx, url, 1)
}

func openDBWithLimit(ctx context.Context, url string, maxOpen int) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	db := stdlib.OpenDB(*connConfig)
	db.SetMaxOpenConns(maxOpen)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, postgres.MapError(err)
	}
	return db, nil
}
