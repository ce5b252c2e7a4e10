// Package presence owns the set of connected chat sessions and routes
// messages between them.
package presence

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/nfrund/relay/internal/protocol"
	"github.com/nfrund/relay/internal/pubsub"
)

// Sink is the outbound side of one connection. Send must not block; it
// reports false when the frame could not be queued.
type Sink interface {
	Send(frame []byte) bool
}

// UndeliverablePolicy decides what happens to a directed message whose
// recipient is not online.
type UndeliverablePolicy int

const (
	// DropSilently discards the message without telling the sender.
	DropSilently UndeliverablePolicy = iota
	// NotifySender pushes messageUndelivered back to the sending connection.
	NotifySender
)

func (p UndeliverablePolicy) String() string {
	switch p {
	case NotifySender:
		return "notify_sender"
	default:
		return "drop_silently"
	}
}

// Session is one connection's registry-visible identity.
type Session struct {
	ID          string
	Name        string
	Named       bool
	ConnectedAt time.Time

	sink Sink
}

// Presence is a point-in-time view of the registry.
type Presence struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

// Registry is the single owner of the session collection. Every mutation and
// every snapshot used to build a push happens under mu, and fan-out to sinks
// happens while mu is held so all sessions observe pushes in the same order.
type Registry struct {
	mu sync.Mutex

	sessions map[string]*Session
	order    []string            // connection ids, connect order
	named    []string            // connection ids, registration order
	byName   map[string][]string // name -> connection ids, registration order

	publisher pubsub.Publisher
	policy    UndeliverablePolicy
	logger    *slog.Logger
}

// Option is a function that configures a Registry.
type Option func(*Registry)

// WithPublisher publishes session and message events on the bus.
func WithPublisher(p pubsub.Publisher) Option {
	return func(r *Registry) {
		r.publisher = p
	}
}

// WithUndeliverablePolicy sets the handling of directed messages to unknown names.
func WithUndeliverablePolicy(p UndeliverablePolicy) Option {
	return func(r *Registry) {
		r.policy = p
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		byName:   make(map[string][]string),
		policy:   DropSilently,
		logger:   slog.Default().With("service", "presence"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect admits a new unnamed session and pushes the online count and the
// current name list to every session, the new one included. Connecting an id
// that is already present replaces its sink.
func (r *Registry) Connect(ctx context.Context, id string, sink Sink) {
	r.mu.Lock()
	if s, ok := r.sessions[id]; ok {
		s.sink = sink
	} else {
		r.sessions[id] = &Session{ID: id, ConnectedAt: time.Now().UTC(), sink: sink}
		r.order = append(r.order, id)
	}
	online := len(r.sessions)
	r.broadcastLocked(protocol.EventCountOnline, online)
	r.broadcastLocked(protocol.EventAddPersons, r.namesLocked())
	r.mu.Unlock()

	r.logger.Debug("Session connected", "connection_id", id, "online", online)
	publish(ctx, r, SessionConnected, id, SessionEvent{ConnectionID: id, Online: online})
}

// Register names the session. Registering again renames it: the session keeps
// one entry, moves to the end of the name order and its old name is pushed
// as removePerson. Unknown ids are ignored.
func (r *Registry) Register(ctx context.Context, id, name string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		r.logger.Debug("Register for unknown connection ignored", "connection_id", id)
		return
	}

	oldName, renamed := s.Name, s.Named && s.Name != name
	if s.Named {
		r.unindexLocked(s)
	}
	s.Name = name
	s.Named = true
	r.named = append(r.named, id)
	r.byName[name] = append(r.byName[name], id)

	// Receivers merge addPersons into what they hold, so the old name has to
	// be retracted explicitly.
	if renamed {
		r.broadcastLocked(protocol.EventRemovePerson, oldName)
	}
	online := len(r.sessions)
	r.broadcastLocked(protocol.EventCountOnline, online)
	r.broadcastLocked(protocol.EventAddPersons, r.namesLocked())
	r.sendLocked(s, protocol.EventEnableOnline, nil)
	r.mu.Unlock()

	r.logger.Info("Session registered", "connection_id", id, "name", name)
	publish(ctx, r, SessionNamed, id, SessionEvent{ConnectionID: id, Name: name, Online: online})
}

// BroadcastMessage delivers msg to every connected session, the sender and
// unnamed sessions included.
func (r *Registry) BroadcastMessage(ctx context.Context, fromID string, msg protocol.Message) {
	r.mu.Lock()
	delivered := r.broadcastLocked(protocol.EventMessageToAll, msg)
	r.mu.Unlock()

	publish(ctx, r, MessageBroadcast, fromID, MessageEvent{ConnectionID: fromID, Message: msg, Recipients: delivered})
}

// DirectMessage delivers msg to the first session registered under
// msg.NameTo. The sender does not receive a copy.
func (r *Registry) DirectMessage(ctx context.Context, fromID string, msg protocol.Message) {
	r.mu.Lock()
	ids := r.byName[msg.NameTo]
	if len(ids) == 0 {
		r.undeliverableLocked(fromID, msg)
		policy := r.policy
		r.mu.Unlock()

		publish(ctx, r, MessageDropped, fromID, MessageEvent{ConnectionID: fromID, Message: msg, Policy: policy.String()})
		return
	}

	delivered := 0
	if r.sendLocked(r.sessions[ids[0]], protocol.EventMessageTo, msg) {
		delivered = 1
	}
	r.mu.Unlock()

	publish(ctx, r, MessageDirect, fromID, MessageEvent{ConnectionID: fromID, Message: msg, Recipients: delivered})
}

// undeliverableLocked is the single place where unknown recipients are handled.
func (r *Registry) undeliverableLocked(fromID string, msg protocol.Message) {
	switch r.policy {
	case NotifySender:
		if s, ok := r.sessions[fromID]; ok {
			r.sendLocked(s, protocol.EventMessageUndelivered, msg)
		}
	default:
		// Silent drop: the sender gets no signal.
	}
}

// Disconnect evicts the session with this id. Remaining sessions are told
// only when it had registered a name; an unnamed session leaves silently.
// Unknown ids are a no-op.
func (r *Registry) Disconnect(ctx context.Context, id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return
	}

	delete(r.sessions, id)
	r.order = removeID(r.order, id)

	online := len(r.sessions)
	if s.Named {
		r.unindexLocked(s)
		r.broadcastLocked(protocol.EventCountOnline, online)
		r.broadcastLocked(protocol.EventRemovePerson, s.Name)
	}
	r.mu.Unlock()

	r.logger.Debug("Session disconnected", "connection_id", id, "name", s.Name, "online", online)
	publish(ctx, r, SessionRemoved, id, SessionEvent{ConnectionID: id, Name: s.Name, Online: online})
}

// Count returns the number of connected sessions, named or not.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Names returns the names of registered sessions in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

// Snapshot returns the count and names under one lock.
func (r *Registry) Snapshot() Presence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Presence{Count: len(r.sessions), Names: r.namesLocked()}
}

// Session returns a copy of the session with this id.
func (r *Registry) Session(id string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	out := *s
	out.sink = nil
	return out, true
}

func (r *Registry) namesLocked() []string {
	return lo.Map(r.named, func(id string, _ int) string {
		return r.sessions[id].Name
	})
}

func (r *Registry) unindexLocked(s *Session) {
	r.named = removeID(r.named, s.ID)
	ids := removeID(r.byName[s.Name], s.ID)
	if len(ids) == 0 {
		delete(r.byName, s.Name)
		return
	}
	r.byName[s.Name] = ids
}

// broadcastLocked encodes the frame once and queues it on every session in
// connect order. It returns how many sinks accepted the frame.
func (r *Registry) broadcastLocked(event string, data any) int {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		r.logger.Error("Failed to encode frame", "event", event, "error", err)
		return 0
	}

	delivered := 0
	for _, id := range r.order {
		if r.queueLocked(r.sessions[id], event, frame) {
			delivered++
		}
	}
	return delivered
}

func (r *Registry) sendLocked(s *Session, event string, data any) bool {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		r.logger.Error("Failed to encode frame", "event", event, "error", err)
		return false
	}
	return r.queueLocked(s, event, frame)
}

func (r *Registry) queueLocked(s *Session, event string, frame []byte) bool {
	if s.sink == nil {
		return false
	}
	if !s.sink.Send(frame) {
		r.logger.Warn("Send buffer full, dropping frame", "connection_id", s.ID, "event", event)
		return false
	}
	return true
}

// publish is called after mu is released.
func publish[T any](ctx context.Context, r *Registry, event pubsub.Event[T], id string, payload T) {
	if r.publisher == nil {
		return
	}
	if err := pubsub.Publish(ctx, r.publisher, event, id, payload); err != nil {
		r.logger.Error("Failed to publish event", "topic", event.Name(), "error", err)
	}
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(v string) bool { return v == id })
}
