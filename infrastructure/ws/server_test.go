package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/presence"
	"chat-relay/repositories"
	"chat-relay/services"
)

// relayFixture wires a full relay (real sqlite store, real registry)
// behind an httptest server.
type relayFixture struct {
	server  *httptest.Server
	history *services.HistoryService
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()
	log := slog.Default()

	db, err := repositories.OpenSQLite(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repository := repositories.NewMessageRepository(db, log)
	registry := presence.NewRegistry()
	hub := NewHub()
	router := services.NewRouter(log, registry, repository, hub, nil)
	history := services.NewHistoryService(log, repository)
	wsServer := NewServer(log, hub, router, history)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &relayFixture{server: server, history: history}
}

// dial connects and waits for the session to be fully registered: the
// upgrade response arrives before the server goroutine touches the
// registry, so a history round-trip is used as a barrier.
func (f *relayFixture) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?user_id=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sendEnvelope(t, conn, TypeHistory, struct{}{})
	env := readEnvelope(t, conn)
	require.Equal(t, TypeHistory, env.Type)
	return conn
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Type: typ, Payload: raw}))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func decodePayload[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Payload, &out))
	return out
}

func TestScenario_Private_Message_While_Receiver_Online(t *testing.T) {
	req := require.New(t)
	fixture := newRelayFixture(t)

	alice := fixture.dial(t, "alice")
	bob := fixture.dial(t, "bob")

	// When alice sends "hi" to bob
	sendEnvelope(t, alice, TypeSend, domain.SendCommand{ReceiverID: "bob", Content: "hi"})

	// Then bob receives the message
	env := readEnvelope(t, bob)
	req.Equal(string(event.KindMessageReceived), env.Type)
	received := decodePayload[event.MessageReceived](t, env)
	req.Equal("alice", received.SenderID)
	req.Equal("hi", received.Content)

	// And alice receives the confirmation echo
	env = readEnvelope(t, alice)
	req.Equal(string(event.KindMessageSaved), env.Type)
	saved := decodePayload[event.MessageSaved](t, env)
	req.Equal("bob", saved.ReceiverID)

	// And both histories contain the exchange from their own viewpoint
	sendEnvelope(t, alice, TypeHistory, struct{}{})
	env = readEnvelope(t, alice)
	req.Equal(TypeHistory, env.Type)
	aliceHistory := decodePayload[HistoryResponse](t, env)
	req.Len(aliceHistory.Entries, 1)
	req.Contains(aliceHistory.Entries[0], "You → bob: hi")

	sendEnvelope(t, bob, TypeHistory, struct{}{})
	env = readEnvelope(t, bob)
	bobHistory := decodePayload[HistoryResponse](t, env)
	req.Len(bobHistory.Entries, 1)
	req.Contains(bobHistory.Entries[0], "alice → You: hi")
}

func TestScenario_Private_Message_While_Receiver_Offline(t *testing.T) {
	req := require.New(t)
	fixture := newRelayFixture(t)

	alice := fixture.dial(t, "alice")
	// carol is not connected

	sendEnvelope(t, alice, TypeSend, domain.SendCommand{ReceiverID: "carol", Content: "are you there?"})

	// Alice only gets the offline notice
	env := readEnvelope(t, alice)
	req.Equal(string(event.KindSystemNotice), env.Type)
	notice := decodePayload[event.SystemNotice](t, env)
	req.Contains(notice.Text, "carol")
	req.Contains(notice.Text, "offline")

	// Later, carol connects and finds the message in her history
	carol := fixture.dial(t, "carol")
	sendEnvelope(t, carol, TypeHistory, struct{}{})
	env = readEnvelope(t, carol)
	req.Equal(TypeHistory, env.Type)
	carolHistory := decodePayload[HistoryResponse](t, env)
	req.Len(carolHistory.Entries, 1)
	req.Contains(carolHistory.Entries[0], "alice → You: are you there?")
}

func TestScenario_Broadcast_Reaches_All_Connected_Users(t *testing.T) {
	req := require.New(t)
	fixture := newRelayFixture(t)

	alice := fixture.dial(t, "alice")
	bob := fixture.dial(t, "bob")
	carol := fixture.dial(t, "carol")

	sendEnvelope(t, alice, TypeBroadcast, domain.BroadcastCommand{Content: "hello all"})

	for _, conn := range []*websocket.Conn{alice, bob, carol} {
		env := readEnvelope(t, conn)
		req.Equal(string(event.KindMessageReceived), env.Type)
		received := decodePayload[event.MessageReceived](t, env)
		req.Equal("alice", received.SenderID)
		req.Equal("hello all", received.Content)
		req.True(received.IsBroadcast)
	}
}

func TestScenario_Disconnect_Notifies_Remaining_Users(t *testing.T) {
	req := require.New(t)
	fixture := newRelayFixture(t)

	alice := fixture.dial(t, "alice")
	bob := fixture.dial(t, "bob")

	req.NoError(bob.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second)))
	_ = bob.Close()

	env := readEnvelope(t, alice)
	req.Equal(string(event.KindUserDisconnected), env.Type)
	gone := decodePayload[event.UserDisconnected](t, env)
	req.Equal("bob", gone.UserID)
}

func TestServer_Rejects_Missing_UserID(t *testing.T) {
	req := require.New(t)
	fixture := newRelayFixture(t)

	resp, err := http.Get(fixture.server.URL + "/ws")
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Rejects_Blank_Send(t *testing.T) {
	req := require.New(t)
	fixture := newRelayFixture(t)

	alice := fixture.dial(t, "alice")
	sendEnvelope(t, alice, TypeSend, domain.SendCommand{ReceiverID: "bob", Content: "   "})

	env := readEnvelope(t, alice)
	req.Equal(string(event.KindSystemNotice), env.Type)
	rejection := decodePayload[ErrorResponse](t, env)
	req.NotEmpty(rejection.Error)
}
