package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/phrazzld/pgfixture/internal/ciutil"
	"github.com/phrazzld/pgfixture/testdb"
)

type verifyResult struct {
	CorrelationID string  `json:"correlation_id"`
	Database      string  `json:"database"`
	MigrationsDir string  `json:"migrations_dir"`
	Versions      []int64 `json:"versions"`
	DurationMS    int64   `json:"duration_ms"`
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Apply the migration set to a throwaway database, then drop it",
		Long: `Create a uniquely named database, apply every migration to it, and tear it
down again. Exits non-zero if any step fails, which makes it a cheap CI check
that a migration set applies to an empty database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, opts)
		},
	}
}

func runVerify(cmd *cobra.Command, opts *rootOptions) error {
	cfg, log, err := opts.load()
	if err != nil {
		return err
	}

	correlationID := uuid.New().String()
	log = log.With("correlation_id", correlationID, "component", "verify")

	dir, err := ciutil.ResolveMigrationsDir(cfg.Fixture.MigrationsDir, log)
	if err != nil {
		return fmt.Errorf("failed to resolve migrations directory: %w", err)
	}

	start := time.Now()
	fixture, err := testdb.New(cfg.Database.AdminURL, dir,
		testdb.WithConfig(cfg),
		testdb.WithLogger(log),
	)
	if err != nil {
		return err
	}

	result := verifyResult{
		CorrelationID: correlationID,
		Database:      fixture.Name(),
		MigrationsDir: dir,
		Versions:      fixture.AppliedVersions(),
	}

	if err := fixture.Close(); err != nil {
		return err
	}
	result.DurationMS = time.Since(start).Milliseconds()

	return opts.print(cmd.OutOrStdout(), result, func(w io.Writer) {
		fmt.Fprintf(w, "Applied %d migrations from %s to %s\n", len(result.Versions), dir, result.Database)
		for _, v := range result.Versions {
			fmt.Fprintf(w, "  version %d\n", v)
		}
		fmt.Fprintf(w, "Dropped %s (%dms)\n", result.Database, result.DurationMS)
	})
}
