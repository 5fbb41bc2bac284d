package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Set by ldflags during release builds.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func newVersionCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(out, "pyversion-gate version %s\n", Version)
			if detailed, _ := cmd.Flags().GetBool("detailed"); detailed {
				fmt.Fprintf(out, "Git commit:  %s\n", GitCommit)
				fmt.Fprintf(out, "Go version:  %s\n", runtime.Version())
				fmt.Fprintf(out, "OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("detailed", "d", false, "Show detailed version information")
	return cmd
}
