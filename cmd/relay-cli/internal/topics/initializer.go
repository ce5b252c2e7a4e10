package topics

import (
	"fmt"

	"github.com/nfrund/relay/internal/presence"
	"github.com/nfrund/relay/internal/topicmgr"
	"github.com/nfrund/relay/internal/websocket"
)

// Initialize registers every topic the relay publishes with the default
// manager and returns it. Presence topics register themselves when the
// package is loaded; websocket framework topics are registered here.
func Initialize() (*topicmgr.Manager, error) {
	manager := topicmgr.Default()
	if err := websocket.RegisterTopicsWithManager(manager); err != nil {
		return nil, fmt.Errorf("failed to register websocket topics: %w", err)
	}

	if _, ok := manager.Get(presence.SessionConnected.Name()); !ok {
		return nil, fmt.Errorf("presence topics are not registered")
	}
	return manager, nil
}
