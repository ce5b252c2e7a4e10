package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/presence"
	"github.com/nfrund/relay/internal/protocol"
	"github.com/nfrund/relay/internal/pubsub"
)

// Router is the part of the presence registry the bridge drives.
type Router interface {
	Connect(ctx context.Context, id string, sink presence.Sink)
	Register(ctx context.Context, id, name string)
	BroadcastMessage(ctx context.Context, fromID string, msg protocol.Message)
	DirectMessage(ctx context.Context, fromID string, msg protocol.Message)
	Disconnect(ctx context.Context, id string)
}

// Options tunes accepted connections.
type Options struct {
	OriginPatterns []string
	SendBufferSize int
	WriteTimeout   time.Duration
	ReadLimit      int64
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		OriginPatterns: []string{"*"},
		SendBufferSize: 256,
		WriteTimeout:   10 * time.Second,
		ReadLimit:      32768,
	}
}

// OptionsFromProvider builds Options from application configuration.
func OptionsFromProvider(cfg config.Provider) Options {
	return Options{
		OriginPatterns: cfg.GetAllowedOrigins(),
		SendBufferSize: cfg.GetSendBufferSize(),
		WriteTimeout:   cfg.GetWriteTimeout(),
		ReadLimit:      cfg.GetReadLimit(),
	}
}

// Bridge accepts WebSocket connections and turns their frames into registry
// operations. One connection is one session.
type Bridge struct {
	router    Router
	publisher pubsub.Publisher
	whitelist *clientWhitelist
	opts      Options
	logger    *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBridge creates a bridge that dispatches to router. publisher may be nil.
func NewBridge(router Router, publisher pubsub.Publisher, opts Options) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		router:    router,
		publisher: publisher,
		whitelist: DefaultClientWhitelist(),
		opts:      opts,
		logger:    slog.Default().With("component", "websocket_bridge"),
		clients:   make(map[string]*Client),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Handler returns an echo.HandlerFunc that upgrades the request and serves
// the connection until it closes.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			OriginPatterns: b.opts.OriginPatterns,
		})
		if err != nil {
			b.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}
		if b.opts.ReadLimit > 0 {
			conn.SetReadLimit(b.opts.ReadLimit)
		}

		client := newClient(uuid.NewString(), c.RealIP(), conn, b.opts.SendBufferSize)
		if !b.admit(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return nil
		}
		b.serve(client)
		return nil
	}
}

// admit tracks the client unless Shutdown has begun. wg.Add happens under mu,
// and Shutdown cancels under mu, so no Add can race with Shutdown's Wait.
func (b *Bridge) admit(client *Client) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx.Err() != nil {
		return false
	}
	b.wg.Add(1)
	b.clients[client.ID] = client
	return true
}

// serve runs an admitted client until its connection closes.
func (b *Bridge) serve(client *Client) {
	defer b.wg.Done()

	go b.writePump(client)

	b.router.Connect(b.ctx, client.ID, client)
	b.publishLifecycle(TopicClientReady, ClientLifecycle{ConnectionID: client.ID, RemoteAddr: client.RemoteAddr})
	b.logger.Info("WebSocket client connected", "connection_id", client.ID, "remote_addr", client.RemoteAddr)

	reason := b.readPump(client)

	// Eviction must still reach the bus once the bridge context is cancelled.
	b.router.Disconnect(context.WithoutCancel(b.ctx), client.ID)
	client.Close()

	b.mu.Lock()
	delete(b.clients, client.ID)
	b.mu.Unlock()

	b.publishLifecycle(TopicClientDisconnected, ClientLifecycle{ConnectionID: client.ID, RemoteAddr: client.RemoteAddr, Reason: reason})
	b.logger.Info("WebSocket client disconnected", "connection_id", client.ID, "reason", reason)
}

// readPump reads frames until the connection fails and returns why it stopped.
func (b *Bridge) readPump(c *Client) string {
	for {
		_, frame, err := c.conn.Read(b.ctx)
		if err != nil {
			switch status := websocket.CloseStatus(err); {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				return "client_closed"
			case errors.Is(err, context.Canceled):
				c.conn.Close(websocket.StatusGoingAway, "server shutting down")
				return "server_shutdown"
			case status == websocket.StatusMessageTooBig:
				return "message_too_big"
			default:
				b.logger.Debug("WebSocket read error", "connection_id", c.ID, "error", err)
				c.conn.CloseNow()
				return "read_error"
			}
		}

		b.dispatch(c, frame)
	}
}

// dispatch decodes one frame and hands it to the router. Invalid frames are
// logged and dropped; the connection stays open.
func (b *Bridge) dispatch(c *Client, frame []byte) {
	in, err := protocol.Decode(frame)
	if err != nil {
		b.logger.Warn("Ignoring invalid frame", "connection_id", c.ID, "error", err)
		return
	}

	if !b.whitelist.IsAllowed(in.Event) {
		b.logger.Warn("Ignoring event not in whitelist", "connection_id", c.ID, "event", in.Event)
		return
	}

	switch in.Event {
	case protocol.EventConnectName:
		b.router.Register(b.ctx, c.ID, in.Name)
	case protocol.EventMessageToAll:
		b.router.BroadcastMessage(b.ctx, c.ID, in.Message)
	case protocol.EventMessageTo:
		b.router.DirectMessage(b.ctx, c.ID, in.Message)
	}
}

// writePump drains the client's send channel to the connection.
func (b *Bridge) writePump(c *Client) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for frame := range c.outbound() {
		ctx, cancel := context.WithTimeout(b.ctx, b.opts.WriteTimeout)
		err := c.conn.Write(ctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			b.logger.Debug("WebSocket write error", "connection_id", c.ID, "error", err)
			c.conn.CloseNow()
			return
		}
	}
}

func (b *Bridge) publishLifecycle(event pubsub.Event[ClientLifecycle], payload ClientLifecycle) {
	if b.publisher == nil {
		return
	}
	if err := pubsub.Publish(context.WithoutCancel(b.ctx), b.publisher, event, payload.ConnectionID, payload); err != nil {
		b.logger.Error("Failed to publish lifecycle event", "topic", event.Name(), "error", err)
	}
}

// ClientCount returns the number of open connections.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Shutdown closes every connection and waits for their sessions to be evicted.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.cancel()
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
