package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/relay/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "relay-cli",
	Short: "Relay CLI tool",
	Long: `Relay CLI is a command-line companion for the chat relay.

Available commands:
  chat       Join a relay as a named user and chat from the terminal
  topics     Explore the bus topics the relay publishes
  version    Print the CLI version

Use "relay-cli [command] --help" for more information about a specific command.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.NewWithWriter(os.Stderr, "text", logLevel)
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level (debug, info, warn, error)")
}
