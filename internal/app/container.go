package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/presence"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/server"
	"github.com/nfrund/relay/internal/topicmgr"
	"github.com/nfrund/relay/internal/websocket"
)

// Tracing owns the tracer provider for the process.
type Tracing struct {
	Tracer  trace.Tracer
	cleanup func()
}

// Shutdown flushes and stops the tracer provider.
func (t *Tracing) Shutdown() {
	if t.cleanup != nil {
		t.cleanup()
	}
}

// Bus is the in-process message bus.
type Bus struct {
	*pubsub.WatermillBridge
}

// Shutdown closes the bus.
func (b *Bus) Shutdown() error {
	if err := b.Close(); err != nil {
		slog.Error("Failed to close message bus", "error", err)
		return err
	}
	return nil
}

// NewContainer wires every service of the relay. Services are built lazily on
// first invoke and shut down in reverse dependency order.
func NewContainer(cfg config.Provider) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.Provide(injector, provideTopics)
	do.Provide(injector, provideTracing)
	do.Provide(injector, provideBus)
	do.Provide(injector, providePresence)
	do.Provide(injector, provideBridge)
	do.Provide(injector, provideServer)

	return injector
}

func provideTopics(i do.Injector) (*topicmgr.Manager, error) {
	manager := topicmgr.Default()
	if err := websocket.RegisterTopicsWithManager(manager); err != nil {
		return nil, fmt.Errorf("failed to register websocket topics: %w", err)
	}
	return manager, nil
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := do.MustInvoke[config.Provider](i)
	tracer, cleanup, err := pubsub.SetupOTel(context.Background(), pubsub.TracingConfigFromProvider(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	return &Tracing{Tracer: tracer, cleanup: cleanup}, nil
}

func provideBus(i do.Injector) (*Bus, error) {
	tracing := do.MustInvoke[*Tracing](i)
	return &Bus{WatermillBridge: pubsub.NewWatermillBridgeWithTracer(tracing.Tracer)}, nil
}

func providePresence(i do.Injector) (*presence.Registry, error) {
	cfg := do.MustInvoke[config.Provider](i)
	bus := do.MustInvoke[*Bus](i)

	policy := presence.DropSilently
	if cfg.GetNotifyUndeliverable() {
		policy = presence.NotifySender
	}
	slog.Info("Presence registry configured", "undeliverable_policy", policy.String())

	return presence.NewRegistry(
		presence.WithPublisher(bus),
		presence.WithUndeliverablePolicy(policy),
	), nil
}

func provideBridge(i do.Injector) (*websocket.Bridge, error) {
	cfg := do.MustInvoke[config.Provider](i)
	do.MustInvoke[*topicmgr.Manager](i)

	return websocket.NewBridge(
		do.MustInvoke[*presence.Registry](i),
		do.MustInvoke[*Bus](i),
		websocket.OptionsFromProvider(cfg),
	), nil
}

func provideServer(i do.Injector) (*server.Server, error) {
	cfg := do.MustInvoke[config.Provider](i)
	modules := NewModules(Dependencies{
		Subscriber: do.MustInvoke[*Bus](i),
		Presence:   do.MustInvoke[*presence.Registry](i),
		Bridge:     do.MustInvoke[*websocket.Bridge](i),
	})
	return server.New(cfg, modules), nil
}
