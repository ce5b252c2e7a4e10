package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/config"
	"github.com/nfrund/relay/internal/presence"
	"github.com/nfrund/relay/internal/protocol"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/registry"
	"github.com/nfrund/relay/internal/websocket"
)

func bootModule(t *testing.T) (*RelayModule, *httptest.Server, *registry.Registry) {
	t.Helper()

	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { bus.Close() })

	p := presence.NewRegistry(presence.WithPublisher(bus))
	bridge := websocket.NewBridge(p, bus, websocket.DefaultOptions())
	m := New(Dependencies{Subscriber: bus, Presence: p, Bridge: bridge})

	reg := registry.New(&config.Config{})
	require.NoError(t, m.Register(reg))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	e := echo.New()
	require.NoError(t, m.Boot(ctx, e.Group(""), reg))

	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = m.Shutdown(shutdownCtx)
		srv.Close()
	})
	return m, srv, reg
}

func dial(t *testing.T, srv *httptest.Server) *gorillaws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *gorillaws.Conn, event string, data any) {
	t.Helper()
	frame, err := protocol.Encode(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, frame))
}

func getPresence(t *testing.T, srv *httptest.Server) presence.Presence {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/presence")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var p presence.Presence
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	return p
}

func TestRelayModule_RegistersServices(t *testing.T) {
	m, _, reg := bootModule(t)

	assert.Equal(t, "relay", m.Name())
	assert.Same(t, m.presence, registry.MustGet(reg, registry.PresenceKey))
	assert.Same(t, m.bridge, registry.MustGet(reg, registry.BridgeKey))
}

func TestRelayModule_PresenceEndpointAndJournal(t *testing.T) {
	m, srv, _ := bootModule(t)

	assert.Equal(t, presence.Presence{Count: 0, Names: []string{}}, getPresence(t, srv))

	alice := dial(t, srv)
	bob := dial(t, srv)
	send(t, alice, protocol.EventConnectName, "alice")
	send(t, bob, protocol.EventConnectName, "bob")

	require.Eventually(t, func() bool {
		return len(getPresence(t, srv).Names) == 2
	}, 2*time.Second, 20*time.Millisecond)
	assert.ElementsMatch(t, []string{"alice", "bob"}, getPresence(t, srv).Names)
	assert.Equal(t, 2, getPresence(t, srv).Count)

	send(t, alice, protocol.EventMessageToAll, protocol.Message{ID: "1", NameFrom: "alice", Text: "hi"})
	send(t, alice, protocol.EventMessageTo, protocol.Message{ID: "2", NameFrom: "alice", NameTo: "bob", Text: "psst"})
	send(t, alice, protocol.EventMessageTo, protocol.Message{ID: "3", NameFrom: "alice", NameTo: "nobody", Text: "?"})

	require.Eventually(t, func() bool {
		return m.Journal().Stats() == Stats{Connections: 2, Broadcasts: 1, Directed: 1, Dropped: 1}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHandler_NilPresence(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/presence", nil), rec)

	require.NoError(t, NewHandler(nil).GetPresence(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
