package app

import (
	"github.com/nfrund/relay/internal/module"
	"github.com/nfrund/relay/internal/modules/relay"
	"github.com/nfrund/relay/internal/presence"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/websocket"
)

// Dependencies holds the core services required by the application's modules.
type Dependencies struct {
	Subscriber pubsub.Subscriber
	Presence   *presence.Registry
	Bridge     *websocket.Bridge
}

// NewModules returns the list of all active modules for the application.
// This is the single source of truth for which features are enabled.
func NewModules(deps Dependencies) []module.Module {
	return []module.Module{
		relay.New(relayDeps(deps)),
	}
}

// relayDeps creates the dependency struct for the relay module.
func relayDeps(deps Dependencies) relay.Dependencies {
	return relay.Dependencies{
		Subscriber: deps.Subscriber,
		Presence:   deps.Presence,
		Bridge:     deps.Bridge,
	}
}
