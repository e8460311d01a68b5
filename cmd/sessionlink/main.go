// sessionlink watches agent sessions over one shared realtime connection and
// alerts when a session starts waiting for input.
//
// Usage:
//
//	sessionlink watch --config sessionlink.yaml
//	sessionlink tail
//	sessionlink send --session ID "text"
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rickgao/sessionlink/internal/version"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	token      string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:           "sessionlink",
		Short:         "Realtime session watcher and waiting-input notifier",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to config file (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.token, "token", "", "override auth token")

	cmd.AddCommand(watchCmd(flags))
	cmd.AddCommand(tailCmd(flags))
	cmd.AddCommand(sendCmd(flags))
	cmd.AddCommand(versionCmd())

	return cmd
}
