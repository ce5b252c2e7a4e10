// Package protocol defines the JSON frames exchanged between the relay and its
// clients over a WebSocket: {"event": "<name>", "data": <payload>}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Inbound events, sent by clients.
const (
	EventConnectName  = "connectName"
	EventMessageToAll = "messageToAll"
	EventMessageTo    = "messageTo"
)

// Outbound events, pushed by the relay. messageToAll and messageTo are
// shared with the inbound set.
const (
	EventCountOnline        = "countOnline"
	EventAddPersons         = "addPersons"
	EventRemovePerson       = "removePerson"
	EventEnableOnline       = "enableOnline"
	EventMessageUndelivered = "messageUndelivered"
)

var (
	// ErrMalformedFrame is returned when a frame is not a JSON envelope.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownEvent is returned for events outside the inbound set.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrInvalidPayload is returned when the payload shape does not match the event.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Message is a chat message. The relay forwards it untouched; the id is only
// meaningful to receivers for de-duplication.
type Message struct {
	ID        string `json:"id"`
	NameFrom  string `json:"nameFrom"`
	NameTo    string `json:"nameTo"`
	Text      string `json:"text"`
	IsPrivate bool   `json:"isPrivate"`
}

// directedMessage carries the boundary rules for messageTo payloads.
type directedMessage struct {
	NameTo string `validate:"required"`
}

// registration carries the boundary rules for connectName payloads.
type registration struct {
	Name string `validate:"required"`
}

// Envelope is the frame shape on the wire.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound is a decoded and validated client frame. Exactly one of Name or
// Message is meaningful, depending on Event.
type Inbound struct {
	Event   string
	Name    string
	Message Message
}

var validate = validator.New()

// Decode parses a raw client frame and checks its payload shape.
func Decode(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	in := Inbound{Event: env.Event}

	switch env.Event {
	case EventConnectName:
		if err := json.Unmarshal(env.Data, &in.Name); err != nil {
			return Inbound{}, fmt.Errorf("%w: %s expects a string: %v", ErrInvalidPayload, env.Event, err)
		}
		if err := validate.Struct(registration{Name: in.Name}); err != nil {
			return Inbound{}, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Event, err)
		}

	case EventMessageToAll, EventMessageTo:
		if err := json.Unmarshal(env.Data, &in.Message); err != nil {
			return Inbound{}, fmt.Errorf("%w: %s expects a message object: %v", ErrInvalidPayload, env.Event, err)
		}
		if env.Event == EventMessageTo {
			if err := validate.Struct(directedMessage{NameTo: in.Message.NameTo}); err != nil {
				return Inbound{}, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, env.Event, err)
			}
		}

	case "":
		return Inbound{}, fmt.Errorf("%w: missing event", ErrMalformedFrame)

	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	return in, nil
}

// Encode builds an outbound frame. A nil data produces a frame without a data field.
func Encode(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
