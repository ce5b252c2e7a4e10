package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/relay/internal/client"
)

var (
	chatURL        string
	chatName       string
	chatTranscript string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Join a relay and chat from the terminal",
	Long: `Connect to a relay, register a name and chat.

Lines typed are broadcast to everyone. Commands:
  /to <name> <text>   Send a private message to one user
  /who                Show who is online
  /quit               Leave

Examples:
  relay-cli chat --name alice
  relay-cli chat --name bob --url ws://relay.example.com/ws --transcript ~/chat.log`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	opts := []client.Option{client.WithRenderer(client.NewTerminalRenderer(out))}
	if chatTranscript != "" {
		tr, err := client.NewTranscript(afero.NewOsFs(), chatTranscript)
		if err != nil {
			return err
		}
		opts = append(opts, client.WithTranscript(tr))
	}

	c, err := client.Dial(ctx, chatURL, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Register(chatName); err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- c.Run(ctx) }()

	lines := make(chan string)
	go readLines(cmd.InOrStdin(), lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handleLine(out, c, line)
			if err != nil {
				fmt.Fprintln(out, color.Red.Sprint(err.Error()))
			}
			if quit {
				return nil
			}
		}
	}
}

// handleLine runs one line of user input and reports whether to quit.
func handleLine(out io.Writer, c *client.Client, line string) (bool, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false, nil
	case line == "/quit":
		return true, nil
	case line == "/who":
		fmt.Fprintln(out, color.Gray.Sprintf("%d online: %s", c.State().Count(), strings.Join(c.State().People(), ", ")))
		return false, nil
	case strings.HasPrefix(line, "/to "):
		to, text, _ := strings.Cut(strings.TrimPrefix(line, "/to "), " ")
		_, err := c.SendTo(to, text)
		return false, err
	default:
		_, err := c.SendAll(line)
		return false, err
	}
}

func readLines(r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&chatURL, "url", "u", "ws://localhost:8080/ws", "Relay WebSocket URL")
	chatCmd.Flags().StringVarP(&chatName, "name", "n", "", "Display name to register")
	chatCmd.Flags().StringVarP(&chatTranscript, "transcript", "t", "", "Append shown messages to this file")
	_ = chatCmd.MarkFlagRequired("name")
}
