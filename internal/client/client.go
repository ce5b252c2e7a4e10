package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nfrund/relay/internal/protocol"
)

// Renderer displays state changes to the user.
type Renderer interface {
	Render(u Update)
}

// Client is a connected chat shell.
type Client struct {
	conn       *websocket.Conn
	state      *State
	renderer   Renderer
	transcript *Transcript
	logger     *slog.Logger

	writeMu sync.Mutex
	name    string
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithRenderer sets where updates are displayed.
func WithRenderer(r Renderer) Option {
	return func(c *Client) {
		c.renderer = r
	}
}

// WithTranscript appends every shown message to t.
func WithTranscript(t *Transcript) Option {
	return func(c *Client) {
		c.transcript = t
	}
}

// Dial connects to the relay WebSocket endpoint at url.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	c := &Client{
		conn:   conn,
		state:  NewState(),
		logger: slog.Default().With("component", "chat_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the shell state.
func (c *Client) State() *State {
	return c.state
}

// Name returns the name passed to Register.
func (c *Client) Name() string {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.name
}

// Register sends connectName. The relay answers with enableOnline.
func (c *Client) Register(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	c.writeMu.Lock()
	c.name = name
	c.writeMu.Unlock()

	return c.send(protocol.EventConnectName, name)
}

// SendAll broadcasts text. The message is shown locally right away and its
// echo from the relay is skipped by id.
func (c *Client) SendAll(text string) (protocol.Message, error) {
	return c.sendMessage(protocol.EventMessageToAll, "", text)
}

// SendTo sends text to one named user. The relay never echoes directed
// messages, so the shell shows its own copy.
func (c *Client) SendTo(to, text string) (protocol.Message, error) {
	if strings.TrimSpace(to) == "" {
		return protocol.Message{}, ErrEmptyName
	}
	return c.sendMessage(protocol.EventMessageTo, to, text)
}

func (c *Client) sendMessage(event, to, text string) (protocol.Message, error) {
	if strings.TrimSpace(text) == "" {
		return protocol.Message{}, ErrEmptyText
	}

	msg := protocol.Message{
		ID:        uuid.NewString(),
		NameFrom:  c.Name(),
		NameTo:    to,
		Text:      text,
		IsPrivate: to != "",
	}
	if err := c.send(event, msg); err != nil {
		return protocol.Message{}, err
	}

	c.state.RecordOwn(msg)
	c.show(Update{Event: event, Message: msg})
	return msg, nil
}

func (c *Client) send(event string, data any) error {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}
	return nil
}

// Run reads pushed frames until the connection closes or ctx is done.
func (c *Client) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		var env protocol.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.logger.Warn("Ignoring malformed frame", "error", err)
			continue
		}

		u, err := c.state.Apply(env)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownEvent) {
				c.logger.Debug("Ignoring unknown event", "event", env.Event)
			} else {
				c.logger.Warn("Ignoring invalid frame", "event", env.Event, "error", err)
			}
			continue
		}
		if !u.Duplicate {
			c.show(u)
		}
	}
}

func (c *Client) show(u Update) {
	if c.transcript != nil && u.Message.Text != "" {
		if err := c.transcript.Append(u.Event, u.Message); err != nil {
			c.logger.Error("Failed to write transcript", "error", err)
		}
	}
	if c.renderer != nil {
		c.renderer.Render(u)
	}
}

// Close sends a normal closure and closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}
