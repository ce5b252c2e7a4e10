package presence

import (
	"github.com/nfrund/relay/internal/protocol"
	"github.com/nfrund/relay/internal/pubsub"
)

// SessionEvent describes a change to the set of connected sessions.
type SessionEvent struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name,omitempty"`
	Online       int    `json:"online"`
}

// MessageEvent describes a routed chat message.
type MessageEvent struct {
	ConnectionID string           `json:"connectionId"`
	Message      protocol.Message `json:"message"`
	Recipients   int              `json:"recipients"`
	Policy       string           `json:"policy,omitempty"`
}

var (
	SessionConnected = pubsub.NewEvent[SessionEvent](
		"relay.session.connected",
		"A transport connection was admitted as an unnamed session",
	)
	SessionNamed = pubsub.NewEvent[SessionEvent](
		"relay.session.named",
		"A session registered a display name",
	)
	SessionRemoved = pubsub.NewEvent[SessionEvent](
		"relay.session.removed",
		"A session was evicted after its connection closed",
	)
	MessageBroadcast = pubsub.NewEvent[MessageEvent](
		"relay.message.broadcast",
		"A message was fanned out to every session",
	)
	MessageDirect = pubsub.NewEvent[MessageEvent](
		"relay.message.direct",
		"A message was delivered to a single named session",
	)
	MessageDropped = pubsub.NewEvent[MessageEvent](
		"relay.message.dropped",
		"A directed message had no matching recipient",
	)
)
