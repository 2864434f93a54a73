package testdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/pgfixture/internal/platform/postgres"
)

var errEmptyPrefix = errors.New("refusing to sweep with an empty name prefix")

// DatabaseExists reports whether a database called name exists on the server
// at adminEndpoint. WithAdminDatabase, WithConnectAttempts and WithLogger apply.
func DatabaseExists(ctx context.Context, adminEndpoint, name string, opts ...Option) (bool, error) {
	s := newSettings(opts)

	admin, err := s.backend.connectAdmin(ctx, databaseURL(adminEndpoint, s.adminDatabase), s.connectAttempts, s.logger)
	if err != nil {
		return false, &Error{Phase: PhaseConnect, Step: "connect_admin", Database: name, Kind: ErrConnectivity, Err: err}
	}
	defer closeAdmin(ctx, admin, s)

	exists, err := admin.DatabaseExists(ctx, name)
	if err != nil {
		return false, &Error{Phase: PhaseConnect, Step: "database_exists", Database: name, Kind: classify(err, ErrProvisioning), Err: err}
	}
	return exists, nil
}

// Sweep drops every database on the server whose name starts with the fixture
// name prefix, terminating their sessions first, and returns the names it
// dropped. It removes databases left behind by processes that died before
// teardown, so it must not run while fixtures with the same prefix are in use.
// Failures on individual databases do not stop the sweep; they are joined
// into the returned error.
func Sweep(ctx context.Context, adminEndpoint string, opts ...Option) ([]string, error) {
	s := newSettings(opts)
	if err := validatePrefix(s.namePrefix); err != nil {
		return nil, &Error{Phase: PhaseSweep, Step: "configure", Kind: ErrTeardown, Err: err}
	}
	if s.namePrefix == "" {
		return nil, &Error{Phase: PhaseSweep, Step: "configure", Kind: ErrTeardown, Err: errEmptyPrefix}
	}

	admin, err := s.backend.connectAdmin(ctx, databaseURL(adminEndpoint, s.adminDatabase), s.connectAttempts, s.logger)
	if err != nil {
		return nil, &Error{Phase: PhaseSweep, Step: "connect_admin", Kind: ErrConnectivity, Err: err}
	}
	defer closeAdmin(ctx, admin, s)

	names, err := admin.ListDatabases(ctx, s.namePrefix)
	if err != nil {
		return nil, &Error{Phase: PhaseSweep, Step: "list_databases", Kind: classify(err, ErrTeardown), Err: err}
	}

	var (
		dropped []string
		errs    []error
	)
	for _, name := range names {
		if name == s.adminDatabase {
			continue
		}
		if _, err := admin.TerminateBackends(ctx, name); err != nil {
			errs = append(errs, &Error{Phase: PhaseSweep, Step: "terminate_backends", Database: name, Kind: ErrTeardown, Err: err})
			continue
		}
		if err := admin.DropDatabase(ctx, name); err != nil {
			if postgres.IsDatabaseNotFound(err) {
				continue
			}
			errs = append(errs, &Error{Phase: PhaseSweep, Step: "drop_database", Database: name, Kind: ErrTeardown, Err: err})
			continue
		}
		s.logger.Info("dropped orphaned fixture database", "database", name)
		dropped = append(dropped, name)
	}

	if len(errs) > 0 {
		return dropped, fmt.Errorf("sweep dropped %d of %d databases: %w", len(dropped), len(names), errors.Join(errs...))
	}
	return dropped, nil
}

func closeAdmin(ctx context.Context, admin adminSession, s settings) {
	if err := admin.Close(ctx); err != nil {
		s.logger.Warn("failed to close admin connection", "error", err)
	}
}
