package testdb

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phrazzld/pgfixture/internal/platform/postgres"
)

// Pool returns a new connection pool bound to the fixture database. Each call
// builds an independent pool holding at most the configured number of
// connections; the caller closes it. A warm-up ping is made before returning.
func (f *Fixture) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(f.URL())
	if err != nil {
		return nil, f.connectError("parse_config", err)
	}
	cfg.MaxConns = f.settings.maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, f.connectError("create_pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, f.connectError("ping", postgres.MapError(err))
	}
	return pool, nil
}

// DB returns a database/sql handle on the fixture database through the pgx
// driver, bounded like Pool. The caller closes it.
func (f *Fixture) DB(ctx context.Context) (*sql.DB, error) {
	db, err := openDBWithLimit(ctx, f.URL(), int(f.settings.maxConns))
	if err != nil {
		return nil, f.connectError("open_db", err)
	}
	return db, nil
}

func (f *Fixture) connectError(step string, err error) *Error {
	return &Error{
		Phase:    PhaseConnect,
		Step:     step,
		Database: f.name,
		Kind:     ErrConnectivity,
		Err:      err,
	}
}
