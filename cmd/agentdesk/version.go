package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Aliases: []string{"v"},
		Short:   "Show version information",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "agentdesk %s\n", formatVersion())
	if buildTime != "" {
		fmt.Fprintf(w, "  Build: %s\n", buildTime)
	}
	fmt.Fprintf(w, "  Go: %s\n", runtime.Version())
}
