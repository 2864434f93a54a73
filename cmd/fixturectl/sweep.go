package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/pgfixture/testdb"
)

type sweepResult struct {
	Prefix  string   `json:"prefix"`
	Dropped []string `json:"dropped"`
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Drop fixture databases left behind by crashed test runs",
		Long: `Terminate sessions on, and drop, every database whose name starts with the
fixture prefix. Do not run this while tests using the same prefix are running.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			dropped, err := testdb.Sweep(ctx, cfg.Database.AdminURL,
				testdb.WithConfig(cfg),
				testdb.WithLogger(log.With("component", "sweep")),
			)
			result := sweepResult{Prefix: cfg.Fixture.NamePrefix, Dropped: dropped}
			if result.Dropped == nil {
				result.Dropped = []string{}
			}

			if printErr := opts.print(cmd.OutOrStdout(), result, func(w io.Writer) {
				if len(result.Dropped) == 0 {
					fmt.Fprintf(w, "No databases matching %s* to drop\n", result.Prefix)
					return
				}
				for _, name := range result.Dropped {
					fmt.Fprintf(w, "Dropped %s\n", name)
				}
			}); printErr != nil {
				return printErr
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Give up after this long (0 for no limit)")
	return cmd
}
