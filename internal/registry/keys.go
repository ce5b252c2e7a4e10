package registry

import (
	"github.com/nfrund/relay/internal/presence"
	"github.com/nfrund/relay/internal/websocket"
)

// Service keys shared between modules. Using typed keys prevents typos and
// type mismatches at lookup.
var (
	PresenceKey = Key[*presence.Registry]("relay.presence")
	BridgeKey   = Key[*websocket.Bridge]("relay.bridge")
)
