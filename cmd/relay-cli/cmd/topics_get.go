package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/relay/cmd/relay-cli/internal/topics"
)

var getOutputFormat string

// topicsGetCmd represents the topics get command
var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a specific topic",
	Long: `Show name, scope, module, description, pattern and metadata for one topic.

Examples:
  relay-cli topics get relay.message.direct
  relay-cli topics get ws.client.ready --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := topics.Initialize()
		if err != nil {
			return fmt.Errorf("failed to initialize topics: %w", err)
		}

		topic, found := manager.Get(args[0])
		if !found {
			return fmt.Errorf("topic '%s' not found; use 'relay-cli topics list' to see all available topics", args[0])
		}
		return topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, getOutputFormat)
	},
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)
	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
