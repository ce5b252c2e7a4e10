package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillBridge_RoundTrip(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []Message
	require.NoError(t, bridge.Subscribe(ctx, "relay.test", func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
		return nil
	}))

	for _, body := range []string{"one", "two", "three"} {
		require.NoError(t, bridge.Publish(ctx, Message{
			Topic:        "relay.test",
			ConnectionID: "c1",
			Payload:      []byte(body),
		}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// GoChannel does not order deliveries across publishes.
	bodies := make([]string, 0, len(got))
	for _, msg := range got {
		bodies = append(bodies, string(msg.Payload))
		assert.Equal(t, "c1", msg.ConnectionID)
		assert.NotContains(t, msg.Metadata, metaKeyTopic, "reserved keys are mapped back to fields")
	}
	assert.ElementsMatch(t, []string{"one", "two", "three"}, bodies)
}

func TestWatermillBridge_HandlerErrorDoesNotStall(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx := context.Background()
	calls := make(chan string, 4)
	require.NoError(t, bridge.Subscribe(ctx, "relay.flaky", func(ctx context.Context, msg Message) error {
		calls <- string(msg.Payload)
		if string(msg.Payload) == "bad" {
			return errors.New("boom")
		}
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "relay.flaky", Payload: []byte("bad")}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "relay.flaky", Payload: []byte("good")}))

	seen := []string{<-calls, <-calls}
	assert.ElementsMatch(t, []string{"bad", "good"}, seen)
}
