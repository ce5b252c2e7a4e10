package relay

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/relay/internal/module"
	"github.com/nfrund/relay/internal/presence"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/registry"
	"github.com/nfrund/relay/internal/websocket"
)

// RelayModule mounts the chat WebSocket endpoint and the presence API.
type RelayModule struct {
	module.BaseModule
	subscriber pubsub.Subscriber
	presence   *presence.Registry
	bridge     *websocket.Bridge
	journal    *Journal
}

// Dependencies holds all the services that the RelayModule requires to operate.
type Dependencies struct {
	Subscriber pubsub.Subscriber
	Presence   *presence.Registry
	Bridge     *websocket.Bridge
}

// New creates a new instance of the RelayModule.
func New(deps Dependencies) *RelayModule {
	return &RelayModule{
		subscriber: deps.Subscriber,
		presence:   deps.Presence,
		bridge:     deps.Bridge,
	}
}

// Name returns the module name.
func (m *RelayModule) Name() string {
	return "relay"
}

// Register shares the presence registry and bridge with other modules.
func (m *RelayModule) Register(reg *registry.Registry) error {
	registry.Set(reg, registry.PresenceKey, m.presence)
	registry.Set(reg, registry.BridgeKey, m.bridge)
	return nil
}

// Boot sets up the routes and starts the journal subscriber.
func (m *RelayModule) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	if m.subscriber != nil {
		m.journal = NewJournal(m.subscriber)
		if err := m.journal.Start(ctx); err != nil {
			return err
		}
	}

	slog.Info("Booting RelayModule: Setting up routes...")
	handler := NewHandler(m.presence)

	g.GET("/ws", m.bridge.Handler())
	g.GET("/api/presence", handler.GetPresence)

	return nil
}

// Journal returns the bus journal, or nil before Boot.
func (m *RelayModule) Journal() *Journal {
	return m.journal
}

// Shutdown closes every open connection.
func (m *RelayModule) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down RelayModule...")
	return m.bridge.Shutdown(ctx)
}
