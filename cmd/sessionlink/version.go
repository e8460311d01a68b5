package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/sessionlink/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sessionlink %s\n", version.String())
			fmt.Fprintf(cmd.OutOrStdout(), "built with %s\n", version.GoVersion())
		},
	}
}
