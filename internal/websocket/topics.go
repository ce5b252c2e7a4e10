package websocket

import (
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/topicmgr"
)

// ClientLifecycle is the payload of the connection lifecycle topics.
type ClientLifecycle struct {
	ConnectionID string `json:"connectionId"`
	RemoteAddr   string `json:"remoteAddr,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

var (
	// TopicClientReady is published when a WebSocket client connects and is admitted.
	TopicClientReady = pubsub.Event[ClientLifecycle]{Topic: topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.ready",
		Description: "Published when a new WebSocket client successfully connects and is ready",
		Pattern:     "ws.client.ready",
		Example:     `{"connectionId":"6f1c...","remoteAddr":"127.0.0.1:53122"}`,
		Metadata: map[string]interface{}{
			"event_type":     "lifecycle",
			"payload_fields": []string{"connectionId", "remoteAddr"},
		},
	})}

	// TopicClientDisconnected is published when a WebSocket client disconnects.
	TopicClientDisconnected = pubsub.Event[ClientLifecycle]{Topic: topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.disconnected",
		Description: "Published when a WebSocket client disconnects",
		Pattern:     "ws.client.disconnected",
		Example:     `{"connectionId":"6f1c...","reason":"client_closed"}`,
		Metadata: map[string]interface{}{
			"event_type":     "lifecycle",
			"payload_fields": []string{"connectionId", "remoteAddr", "reason"},
		},
	})}
)

// RegisterTopics registers all WebSocket framework topics with the default topic manager.
// Topics that are already registered are skipped.
func RegisterTopics() error {
	return RegisterTopicsWithManager(topicmgr.Default())
}

// RegisterTopicsWithManager registers all WebSocket framework topics with the specified topic manager.
func RegisterTopicsWithManager(manager *topicmgr.Manager) error {
	return manager.RegisterAll(TopicClientReady, TopicClientDisconnected)
}
