package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/phrazzld/pgfixture/internal/config"
	"github.com/phrazzld/pgfixture/internal/platform/logger"
)

// Version information (set at build time via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	adminURL      string
	migrationsDir string
	namePrefix    string
	logLevel      string
	jsonOut       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "fixturectl",
		Short: "Manage disposable PostgreSQL test databases",
		Long: `fixturectl provisions and removes the throwaway databases used by the
testdb package.

Use "fixturectl verify" to check that a migration set applies to a fresh database.
Use "fixturectl sweep" to drop fixture databases left behind by crashed test runs.

Settings are read from PGFIXTURE_* environment variables and an optional
pgfixture.yaml; flags take precedence over both.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&opts.adminURL, "admin-url", "", "Server base URL without a database (default from PGFIXTURE_ADMIN_URL or DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.migrationsDir, "migrations", "", "Directory of goose migrations")
	cmd.PersistentFlags().StringVar(&opts.namePrefix, "prefix", "", "Fixture database name prefix (default test_db_)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().BoolVarP(&opts.jsonOut, "json", "j", false, "Output in JSON format")

	cmd.SetVersionTemplate(fmt.Sprintf("fixturectl %s (%s, %s)\n", Version, shortCommit(), shortDate()))

	cmd.AddCommand(
		newVerifyCmd(opts),
		newSweepCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// load reads configuration with the flags applied on top and sets up logging.
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithOverrides(map[string]any{
		"database.admin_url":     o.adminURL,
		"fixture.migrations_dir": o.migrationsDir,
		"fixture.name_prefix":    o.namePrefix,
		"log.level":              o.logLevel,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}

// print writes v as indented JSON when --json is set, otherwise calls text.
func (o *rootOptions) print(out io.Writer, v any, text func(io.Writer)) error {
	if !o.jsonOut {
		text(out)
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// shortCommit returns the first 7 characters of the git commit hash
func shortCommit() string {
	if len(GitCommit) >= 7 {
		return GitCommit[:7]
	}
	return GitCommit
}

// shortDate returns just the date portion of BuildDate (YYYY-MM-DD)
func shortDate() string {
	if len(BuildDate) >= 10 {
		return BuildDate[:10]
	}
	return BuildDate
}
