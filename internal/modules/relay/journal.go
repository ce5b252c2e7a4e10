package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/nfrund/relay/internal/presence"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/websocket"
)

// Stats are running totals observed on the bus since Start.
type Stats struct {
	Connections int64 `json:"connections"`
	Broadcasts  int64 `json:"broadcasts"`
	Directed    int64 `json:"directed"`
	Dropped     int64 `json:"dropped"`
}

// Journal subscribes to relay and connection events and writes them to the log.
type Journal struct {
	subscriber pubsub.Subscriber
	logger     *slog.Logger

	connections atomic.Int64
	broadcasts  atomic.Int64
	directed    atomic.Int64
	dropped     atomic.Int64
}

// NewJournal creates a journal reading from subscriber.
func NewJournal(subscriber pubsub.Subscriber) *Journal {
	return &Journal{
		subscriber: subscriber,
		logger:     slog.Default().With("component", "relay_journal"),
	}
}

// Start subscribes to every journaled topic. Subscriptions end with ctx.
func (j *Journal) Start(ctx context.Context) error {
	subs := []func() error{
		func() error { return pubsub.Subscribe(ctx, j.subscriber, websocket.TopicClientReady, j.onClientReady) },
		func() error {
			return pubsub.Subscribe(ctx, j.subscriber, websocket.TopicClientDisconnected, j.onClientDisconnected)
		},
		func() error { return pubsub.Subscribe(ctx, j.subscriber, presence.SessionNamed, j.onSessionNamed) },
		func() error { return pubsub.Subscribe(ctx, j.subscriber, presence.SessionRemoved, j.onSessionRemoved) },
		func() error { return pubsub.Subscribe(ctx, j.subscriber, presence.MessageBroadcast, j.onBroadcast) },
		func() error { return pubsub.Subscribe(ctx, j.subscriber, presence.MessageDirect, j.onDirect) },
		func() error { return pubsub.Subscribe(ctx, j.subscriber, presence.MessageDropped, j.onDropped) },
	}

	for _, subscribe := range subs {
		if err := subscribe(); err != nil {
			return fmt.Errorf("failed to start relay journal: %w", err)
		}
	}

	j.logger.Info("Relay journal started")
	return nil
}

// Stats returns a copy of the running totals.
func (j *Journal) Stats() Stats {
	return Stats{
		Connections: j.connections.Load(),
		Broadcasts:  j.broadcasts.Load(),
		Directed:    j.directed.Load(),
		Dropped:     j.dropped.Load(),
	}
}

func (j *Journal) onClientReady(ctx context.Context, msg pubsub.Message, ev websocket.ClientLifecycle) error {
	j.connections.Add(1)
	j.logger.Debug("Client connected", "connection_id", ev.ConnectionID, "remote_addr", ev.RemoteAddr)
	return nil
}

func (j *Journal) onClientDisconnected(ctx context.Context, msg pubsub.Message, ev websocket.ClientLifecycle) error {
	j.logger.Debug("Client disconnected", "connection_id", ev.ConnectionID, "reason", ev.Reason)
	return nil
}

func (j *Journal) onSessionNamed(ctx context.Context, msg pubsub.Message, ev presence.SessionEvent) error {
	j.logger.Info(fmt.Sprintf("Client %s connected", ev.Name), "connection_id", ev.ConnectionID, "online", ev.Online)
	return nil
}

func (j *Journal) onSessionRemoved(ctx context.Context, msg pubsub.Message, ev presence.SessionEvent) error {
	if ev.Name == "" {
		return nil
	}
	j.logger.Info(fmt.Sprintf("Client %s disconnected", ev.Name), "connection_id", ev.ConnectionID, "online", ev.Online)
	return nil
}

func (j *Journal) onBroadcast(ctx context.Context, msg pubsub.Message, ev presence.MessageEvent) error {
	j.broadcasts.Add(1)
	j.logger.Debug("Broadcast delivered", "from", ev.Message.NameFrom, "recipients", ev.Recipients)
	return nil
}

func (j *Journal) onDirect(ctx context.Context, msg pubsub.Message, ev presence.MessageEvent) error {
	j.directed.Add(1)
	j.logger.Info(fmt.Sprintf("Client %s sent message to %s: %s", ev.Message.NameFrom, ev.Message.NameTo, ev.Message.Text),
		"connection_id", ev.ConnectionID)
	return nil
}

func (j *Journal) onDropped(ctx context.Context, msg pubsub.Message, ev presence.MessageEvent) error {
	j.dropped.Add(1)
	j.logger.Info("Directed message had no recipient",
		"from", ev.Message.NameFrom, "to", ev.Message.NameTo, "policy", ev.Policy)
	return nil
}
