package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/phrazzld/pgfixture/internal/ciutil"
)

// EnvPrefix is prepended to every configuration key read from the environment,
// e.g. PGFIXTURE_DATABASE_ADMIN_URL.
const EnvPrefix = "PGFIXTURE"

// ConfigName is the base name of the optional config file (pgfixture.yaml, .toml, ...).
const ConfigName = "pgfixture"

var identifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// keys lists every configuration key so that environment variables are bound
// even when no default or config file mentions them.
var keys = []string{
	"database.admin_url",
	"database.admin_database",
	"database.max_conns",
	"database.connect_attempts",
	"fixture.migrations_dir",
	"fixture.name_prefix",
	"fixture.migration_table",
	"fixture.drop_on_failure",
	"fixture.teardown_policy",
	"fixture.timeout",
	"log.level",
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from config files.
// When no admin URL is configured, PGFIXTURE_ADMIN_URL and DATABASE_URL are consulted.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOverrides(nil)
}

// LoadWithOverrides is Load with explicit values, keyed like "database.admin_url",
// that take precedence over every other source. Empty strings are ignored so
// unset command-line flags can be passed through unchanged.
func LoadWithOverrides(overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	for key, value := range overrides {
		if str, ok := value.(string); ok && str == "" {
			continue
		}
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.AdminURL == "" {
		cfg.Database.AdminURL = ciutil.GetAdminDatabaseURL(slog.Default())
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks a Config against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("identifier", validateIdentifier); err != nil {
		return fmt.Errorf("failed to register identifier validation: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.admin_database", DefaultAdminDatabase)
	v.SetDefault("database.max_conns", DefaultMaxConns)
	v.SetDefault("database.connect_attempts", DefaultConnectAttempts)
	v.SetDefault("fixture.name_prefix", DefaultNamePrefix)
	v.SetDefault("fixture.migration_table", DefaultMigrationTable)
	v.SetDefault("fixture.drop_on_failure", true)
	v.SetDefault("fixture.teardown_policy", DefaultTeardownPolicy)
	v.SetDefault("fixture.timeout", "0s")
	v.SetDefault("log.level", DefaultLogLevel)
}

// readConfigFile loads $PGFIXTURE_CONFIG when set, otherwise pgfixture.* from the
// working directory if present. A missing default file is not an error.
func readConfigFile(v *viper.Viper) error {
	if path := os.Getenv(ciutil.EnvConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName(ConfigName)
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// validateIdentifier accepts lower-case unquoted PostgreSQL identifier fragments.
func validateIdentifier(fl validator.FieldLevel) bool {
	return identifierRegex.MatchString(fl.Field().String())
}
