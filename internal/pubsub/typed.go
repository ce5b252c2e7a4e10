package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/relay/internal/topicmgr"
)

// Event[T] wraps a topic name and provides type-safe publishing.
// It also implements topicmgr.Topic for registry integration.
type Event[T any] struct {
	topicmgr.Topic
}

// NewEvent creates a typed event and auto-registers it with the Default Manager.
// It uses reflection to generate the 'Metadata' fields from the struct tags of T.
func NewEvent[T any](name string, description string) Event[T] {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0)
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			fieldName, _, _ := strings.Cut(tag, ",")
			fields = append(fields, fieldName)
		}
	}

	// "relay.message.direct" -> "relay"
	module, _, _ := strings.Cut(name, ".")

	topic := topicmgr.DefineModule(topicmgr.TopicConfig{
		Name:        name,
		Module:      module,
		Description: description,
		Pattern:     name,
		Metadata: map[string]interface{}{
			"payload_fields": fields,
			"type_name":      t.Name(),
			"is_typed":       true,
		},
	})

	// Events are defined at package level, so a failure here is a programming error.
	topicmgr.Default().MustRegister(topic)

	return Event[T]{Topic: topic}
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], connectionID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event.Name(), err)
	}

	return p.Publish(ctx, Message{
		Topic:        event.Name(),
		ConnectionID: connectionID,
		Payload:      data,
	})
}

// Subscribe registers a handler that receives decoded payloads of type T.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(ctx context.Context, msg Message, payload T) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal %s payload: %w", event.Name(), err)
		}
		return handler(ctx, msg, payload)
	})
}
