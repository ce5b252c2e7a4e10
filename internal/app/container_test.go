package app

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/presence"
	"github.com/nfrund/relay/internal/protocol"
	"github.com/nfrund/relay/internal/server"
	"github.com/nfrund/relay/internal/topicmgr"
	"github.com/nfrund/relay/internal/websocket"
)

func TestContainer_WiresServer(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	injector := NewContainer(cfg)
	t.Cleanup(func() { injector.Shutdown() })

	srv, err := do.Invoke[*server.Server](injector)
	require.NoError(t, err)
	require.Len(t, srv.Modules(), 1)
	assert.Equal(t, "relay", srv.Modules()[0].Name())

	_, ok := do.MustInvoke[*topicmgr.Manager](injector).Get(websocket.TopicClientReady.Name())
	assert.True(t, ok, "websocket topics are registered during wiring")

	assert.Same(t, do.MustInvoke[*presence.Registry](injector), do.MustInvoke[*presence.Registry](injector))
}

func TestContainer_UndeliverablePolicyFromConfig(t *testing.T) {
	t.Setenv("RELAY_NOTIFY_UNDELIVERABLE", "true")
	cfg, err := config.Load()
	require.NoError(t, err)

	injector := NewContainer(cfg)
	t.Cleanup(func() { injector.Shutdown() })

	registry := do.MustInvoke[*presence.Registry](injector)
	sink := &captureSink{}
	registry.Connect(t.Context(), "A", sink)
	registry.DirectMessage(t.Context(), "A", presenceMessage("ghost"))

	assert.Contains(t, sink.events, protocol.EventMessageUndelivered)
}

type captureSink struct {
	mu     sync.Mutex
	events []string
}

func (s *captureSink) Send(frame []byte) bool {
	var env protocol.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, env.Event)
	return true
}

func presenceMessage(to string) protocol.Message {
	return protocol.Message{ID: "m", NameFrom: "alice", NameTo: to, Text: "hello?"}
}
