package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/protocol"
)

func envelope(t *testing.T, event string, data any) protocol.Envelope {
	t.Helper()
	frame, err := protocol.Encode(event, data)
	require.NoError(t, err)
	var env protocol.Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env
}

func TestState_PeopleAreDeduplicated(t *testing.T) {
	s := NewState()

	_, err := s.Apply(envelope(t, protocol.EventAddPersons, []string{"alice"}))
	require.NoError(t, err)
	u, err := s.Apply(envelope(t, protocol.EventAddPersons, []string{"alice", "bob", "bob"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob"}, u.People)
	assert.Equal(t, []string{"alice", "bob"}, s.People())

	u, err = s.Apply(envelope(t, protocol.EventRemovePerson, "alice"))
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Removed)
	assert.Equal(t, []string{"bob"}, s.People())
}

func TestState_RenameThenLeave(t *testing.T) {
	s := NewState()

	// Frames as the relay pushes them for: alice joins, renames to alicia, leaves.
	for _, env := range []protocol.Envelope{
		envelope(t, protocol.EventAddPersons, []string{"alice"}),
		envelope(t, protocol.EventRemovePerson, "alice"),
		envelope(t, protocol.EventCountOnline, 1),
		envelope(t, protocol.EventAddPersons, []string{"alicia"}),
	} {
		_, err := s.Apply(env)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"alicia"}, s.People())

	_, err := s.Apply(envelope(t, protocol.EventRemovePerson, "alicia"))
	require.NoError(t, err)
	assert.Empty(t, s.People())
}

func TestState_CountAndOnline(t *testing.T) {
	s := NewState()
	assert.False(t, s.Online())

	u, err := s.Apply(envelope(t, protocol.EventCountOnline, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, u.Count)
	assert.Equal(t, 3, s.Count())

	_, err = s.Apply(envelope(t, protocol.EventEnableOnline, nil))
	require.NoError(t, err)
	assert.True(t, s.Online())
}

func TestState_MessagesDeduplicatedByID(t *testing.T) {
	s := NewState()
	own := protocol.Message{ID: "m1", NameFrom: "alice", Text: "hi all"}

	assert.True(t, s.RecordOwn(own))

	u, err := s.Apply(envelope(t, protocol.EventMessageToAll, own))
	require.NoError(t, err)
	assert.True(t, u.Duplicate, "broadcast echo of an own message is a duplicate")

	u, err = s.Apply(envelope(t, protocol.EventMessageTo, protocol.Message{ID: "m2", NameFrom: "bob", NameTo: "alice", Text: "psst"}))
	require.NoError(t, err)
	assert.False(t, u.Duplicate)

	assert.Equal(t, []string{"m1", "m2"}, []string{s.Messages()[0].ID, s.Messages()[1].ID})
}

func TestState_UndeliveredIsNotRecorded(t *testing.T) {
	s := NewState()
	msg := protocol.Message{ID: "m1", NameFrom: "alice", NameTo: "ghost", Text: "anyone?"}
	s.RecordOwn(msg)

	u, err := s.Apply(envelope(t, protocol.EventMessageUndelivered, msg))
	require.NoError(t, err)
	assert.False(t, u.Duplicate)
	assert.Equal(t, "ghost", u.Message.NameTo)
	assert.Len(t, s.Messages(), 1)
}

func TestState_InvalidFrames(t *testing.T) {
	tests := []struct {
		name    string
		env     protocol.Envelope
		wantErr error
	}{
		{name: "count is not a number", env: protocol.Envelope{Event: protocol.EventCountOnline, Data: json.RawMessage(`"three"`)}, wantErr: protocol.ErrInvalidPayload},
		{name: "people is not a list", env: protocol.Envelope{Event: protocol.EventAddPersons, Data: json.RawMessage(`"alice"`)}, wantErr: protocol.ErrInvalidPayload},
		{name: "message is a string", env: protocol.Envelope{Event: protocol.EventMessageToAll, Data: json.RawMessage(`"hi"`)}, wantErr: protocol.ErrInvalidPayload},
		{name: "unknown event", env: protocol.Envelope{Event: protocol.EventConnectName, Data: json.RawMessage(`"x"`)}, wantErr: protocol.ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewState().Apply(tt.env)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
