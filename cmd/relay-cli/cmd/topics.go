package cmd

import (
	"github.com/spf13/cobra"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore relay bus topics",
	Long: `The topics command lists and inspects the topics the relay publishes on its
in-process bus: connection lifecycle (ws.*) and session and message events (relay.*).

Examples:
  # List all topics
  relay-cli topics list

  # List topics for the relay module
  relay-cli topics list --module=relay

  # Show one topic
  relay-cli topics get relay.message.direct

Use "relay-cli topics [command] --help" for more information about a specific command.`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
