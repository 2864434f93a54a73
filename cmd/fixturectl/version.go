package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{
				Version:   Version,
				GitCommit: GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
				Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
			}
			return opts.print(cmd.OutOrStdout(), info, func(w io.Writer) {
				fmt.Fprintf(w, "fixturectl %s (%s, %s)\n", info.Version, shortCommit(), shortDate())
				fmt.Fprintf(w, "Go: %s\n", info.GoVersion)
				fmt.Fprintf(w, "Platform: %s\n", info.Platform)
			})
		},
	}
}
