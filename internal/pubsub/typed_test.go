package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/nfrund/relay/internal/topicmgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

var sampleTopic = NewEvent[sampleEvent]("sample.event.created", "Sample event used by tests")

func TestNewEvent_RegistersTopic(t *testing.T) {
	topic, ok := topicmgr.Default().Get("sample.event.created")
	require.True(t, ok)

	assert.Equal(t, "sample", topic.Module())
	assert.Equal(t, topicmgr.ScopeModule, topic.Scope())
	assert.Equal(t, []string{"name", "count"}, topic.Metadata()["payload_fields"])
	assert.Equal(t, "sampleEvent", topic.Metadata()["type_name"])
}

func TestTypedPublishSubscribe(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()
	ctx := context.Background()

	received := make(chan sampleEvent, 1)
	require.NoError(t, Subscribe(ctx, bridge, sampleTopic, func(ctx context.Context, msg Message, payload sampleEvent) error {
		assert.Equal(t, "conn-1", msg.ConnectionID)
		received <- payload
		return nil
	}))

	require.NoError(t, Publish(ctx, bridge, sampleTopic, "conn-1", sampleEvent{Name: "alice", Count: 2}))

	select {
	case got := <-received:
		assert.Equal(t, sampleEvent{Name: "alice", Count: 2}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("typed event not delivered")
	}
}
