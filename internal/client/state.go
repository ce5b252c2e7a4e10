// Package client is the reference chat shell: it keeps the receiver-side view
// of a relay conversation and talks to the relay over a WebSocket.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/nfrund/relay/internal/protocol"
)

// ErrEmptyText is returned when a message has no text.
var ErrEmptyText = errors.New("message text cannot be empty")

// ErrEmptyName is returned when registering without a name.
var ErrEmptyName = errors.New("name cannot be empty")

// Update describes what one pushed frame changed in the shell state.
type Update struct {
	Event     string
	Count     int
	People    []string
	Removed   string
	Message   protocol.Message
	Duplicate bool
}

// State is the receiver-side view: who is online and which messages were seen.
type State struct {
	mu       sync.Mutex
	online   bool
	count    int
	people   []string
	seen     map[string]struct{}
	messages []protocol.Message
}

// NewState returns an empty state.
func NewState() *State {
	return &State{seen: make(map[string]struct{})}
}

// Apply folds one pushed envelope into the state.
func (s *State) Apply(env protocol.Envelope) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := Update{Event: env.Event}

	switch env.Event {
	case protocol.EventCountOnline:
		if err := json.Unmarshal(env.Data, &s.count); err != nil {
			return u, fmt.Errorf("%w: countOnline: %v", protocol.ErrInvalidPayload, err)
		}
		u.Count = s.count

	case protocol.EventAddPersons:
		var names []string
		if err := json.Unmarshal(env.Data, &names); err != nil {
			return u, fmt.Errorf("%w: addPersons: %v", protocol.ErrInvalidPayload, err)
		}
		s.people = lo.Uniq(append(s.people, names...))
		u.People = slices.Clone(s.people)

	case protocol.EventRemovePerson:
		if err := json.Unmarshal(env.Data, &u.Removed); err != nil {
			return u, fmt.Errorf("%w: removePerson: %v", protocol.ErrInvalidPayload, err)
		}
		s.people = lo.Without(s.people, u.Removed)
		u.People = slices.Clone(s.people)

	case protocol.EventEnableOnline:
		s.online = true

	case protocol.EventMessageToAll, protocol.EventMessageTo, protocol.EventMessageUndelivered:
		if err := json.Unmarshal(env.Data, &u.Message); err != nil {
			return u, fmt.Errorf("%w: %s: %v", protocol.ErrInvalidPayload, env.Event, err)
		}
		if env.Event != protocol.EventMessageUndelivered {
			u.Duplicate = !s.recordLocked(u.Message)
		}

	default:
		return u, fmt.Errorf("%w: %q", protocol.ErrUnknownEvent, env.Event)
	}

	return u, nil
}

// RecordOwn stores a message this shell sent so its echo is not shown twice.
func (s *State) RecordOwn(msg protocol.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked(msg)
}

func (s *State) recordLocked(msg protocol.Message) bool {
	if msg.ID != "" {
		if _, ok := s.seen[msg.ID]; ok {
			return false
		}
		s.seen[msg.ID] = struct{}{}
	}
	s.messages = append(s.messages, msg)
	return true
}

// Online reports whether the relay acknowledged registration.
func (s *State) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Count returns the last online count pushed by the relay.
func (s *State) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// People returns the de-duplicated list of known names.
func (s *State) People() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.people)
}

// Messages returns every message shown so far, in arrival order.
func (s *State) Messages() []protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}
