package testdb

import (
	"log/slog"
	"time"

	"github.com/phrazzld/pgfixture/internal/config"
)

// TeardownPolicy decides what happens when implicit teardown fails.
type TeardownPolicy int

const (
	// TeardownPanic aborts the test process with the teardown error.
	TeardownPanic TeardownPolicy = iota
	// TeardownLog logs the teardown error and fails the test without aborting.
	TeardownLog
)

// String returns the configuration name of the policy.
func (p TeardownPolicy) String() string {
	switch p {
	case TeardownPanic:
		return "panic"
	case TeardownLog:
		return "log"
	default:
		return "unknown"
	}
}

// ParseTeardownPolicy maps a configuration name to a policy. Unknown names
// yield TeardownPanic.
func ParseTeardownPolicy(name string) TeardownPolicy {
	if name == "log" {
		return TeardownLog
	}
	return TeardownPanic
}

// Option configures a Fixture.
type Option func(*settings)

type settings struct {
	namePrefix      string
	adminDatabase   string
	maxConns        int32
	logger          *slog.Logger
	migrationTable  string
	dropOnFailure   bool
	teardownPolicy  TeardownPolicy
	connectAttempts int
	timeout         time.Duration
	backend         backend
}

func defaultSettings() settings {
	return settings{
		namePrefix:      DefaultNamePrefix,
		adminDatabase:   config.DefaultAdminDatabase,
		maxConns:        config.DefaultMaxConns,
		migrationTable:  config.DefaultMigrationTable,
		dropOnFailure:   true,
		teardownPolicy:  TeardownPanic,
		connectAttempts: config.DefaultConnectAttempts,
		backend:         defaultBackend,
	}
}

func newSettings(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// WithNamePrefix replaces the "test_db_" prefix of generated database names.
func WithNamePrefix(prefix string) Option {
	return func(s *settings) { s.namePrefix = prefix }
}

// WithAdminDatabase sets the system database used for administrative sessions.
func WithAdminDatabase(name string) Option {
	return func(s *settings) { s.adminDatabase = name }
}

// WithMaxConns bounds every pool handed out by the fixture.
func WithMaxConns(n int32) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxConns = n
		}
	}
}

// WithLogger sets the logger for lifecycle events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithMigrationTable sets the table goose records applied versions in.
func WithMigrationTable(table string) Option {
	return func(s *settings) { s.migrationTable = table }
}

// WithDropOnFailure controls whether a database created during a failed
// construction is dropped before New returns. Enabled by default.
func WithDropOnFailure(drop bool) Option {
	return func(s *settings) { s.dropOnFailure = drop }
}

// WithTeardownPolicy sets how Setup and MustClose react to teardown failures.
func WithTeardownPolicy(p TeardownPolicy) Option {
	return func(s *settings) { s.teardownPolicy = p }
}

// WithConnectAttempts retries the administrative connection up to n times.
func WithConnectAttempts(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.connectAttempts = n
		}
	}
}

// WithTimeout bounds each lifecycle phase. Zero, the default, means no limit.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithConfig applies loaded configuration. Options given after it override it.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		if cfg == nil {
			return
		}
		s.adminDatabase = cfg.Database.AdminDatabase
		s.maxConns = cfg.Database.MaxConns
		s.connectAttempts = cfg.Database.ConnectAttempts
		s.namePrefix = cfg.Fixture.NamePrefix
		s.migrationTable = cfg.Fixture.MigrationTable
		s.dropOnFailure = cfg.Fixture.DropOnFailure
		s.teardownPolicy = ParseTeardownPolicy(cfg.Fixture.TeardownPolicy)
		s.timeout = cfg.Fixture.Timeout
	}
}

// withBackend swaps the database operations; used by tests.
func withBackend(b backend) Option {
	return func(s *settings) { s.backend = b }
}
