package config

import "time"

// Config holds all fixture tooling configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Fixture  FixtureConfig  `mapstructure:"fixture" validate:"required"`
	Log      LogConfig      `mapstructure:"log" validate:"required"`
}

// DatabaseConfig contains the server endpoint and connection settings.
type DatabaseConfig struct {
	// AdminURL is the server base address without a database selected.
	AdminURL string `mapstructure:"admin_url" validate:"required,url"`
	// AdminDatabase is the system database used for create/drop/terminate.
	AdminDatabase string `mapstructure:"admin_database" validate:"required,identifier"`
	// MaxConns bounds every pool handed out by a fixture.
	MaxConns int32 `mapstructure:"max_conns" validate:"gt=0,lte=100"`
	// ConnectAttempts is the number of tries for the administrative connection.
	ConnectAttempts int `mapstructure:"connect_attempts" validate:"gte=1,lte=60"`
}

// FixtureConfig contains the per-fixture lifecycle settings.
type FixtureConfig struct {
	MigrationsDir  string        `mapstructure:"migrations_dir"`
	NamePrefix     string        `mapstructure:"name_prefix" validate:"required,max=27,identifier"`
	MigrationTable string        `mapstructure:"migration_table" validate:"required,identifier"`
	DropOnFailure  bool          `mapstructure:"drop_on_failure"`
	TeardownPolicy string        `mapstructure:"teardown_policy" validate:"required,oneof=panic log"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// Defaults used when neither the environment nor a config file set a value.
const (
	DefaultAdminDatabase   = "postgres"
	DefaultMaxConns        = 5
	DefaultConnectAttempts = 1
	DefaultNamePrefix      = "test_db_"
	DefaultMigrationTable  = "schema_migrations"
	DefaultTeardownPolicy  = "panic"
	DefaultLogLevel        = "info"
)
