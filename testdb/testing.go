package testdb

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Setup creates a fixture for t and registers its teardown with t.Cleanup.
// Construction failures fail the test immediately. A teardown failure is
// handled by the fixture's TeardownPolicy: TeardownPanic aborts the test
// binary, TeardownLog marks the test failed and carries on.
func Setup(t testing.TB, adminEndpoint, migrationsDir string, opts ...Option) *Fixture {
	t.Helper()

	f, err := New(adminEndpoint, migrationsDir, opts...)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
		return nil
	}

	t.Cleanup(func() {
		err := f.Close()
		if err == nil {
			return
		}
		if f.settings.teardownPolicy == TeardownPanic {
			panic(err)
		}
		f.logTeardownFailure(err)
		t.Errorf("failed to tear down test database %s: %v", f.Name(), err)
	})

	return f
}

// SetupPool is Setup followed by Pool. The pool is closed before the database
// is dropped.
func SetupPool(t testing.TB, adminEndpoint, migrationsDir string, opts ...Option) *pgxpool.Pool {
	t.Helper()

	f := Setup(t, adminEndpoint, migrationsDir, opts...)
	if f == nil {
		return nil
	}

	pool, err := f.Pool(context.Background())
	if err != nil {
		t.Fatalf("failed to open pool on test database: %v", err)
		return nil
	}
	t.Cleanup(pool.Close)

	return pool
}
