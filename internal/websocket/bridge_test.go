package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/pubsub"
	ws "github.com/nfrund/relay/internal/websocket"
)

// mockPubSub implements both pubsub.Publisher and pubsub.Subscriber for
// testing. It records every published message and routes it to subscribed
// handlers.
type mockPubSub struct {
	mu       sync.RWMutex
	handlers map[string][]pubsub.Handler
	messages map[string][]pubsub.Message
}

func newMockPubSub() *mockPubSub {
	return &mockPubSub{
		handlers: make(map[string][]pubsub.Handler),
		messages: make(map[string][]pubsub.Message),
	}
}

func (m *mockPubSub) Publish(ctx context.Context, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages[msg.Topic] = append(m.messages[msg.Topic], msg)

	// Asynchronous delivery mimics the real bus.
	for _, handler := range m.handlers[msg.Topic] {
		go handler(ctx, msg)
	}
	return nil
}

func (m *mockPubSub) Subscribe(ctx context.Context, topic string, handler pubsub.Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = append(m.handlers[topic], handler)
	return nil
}

func (m *mockPubSub) Close() error { return nil }

func (m *mockPubSub) getMessages(topic string) []pubsub.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]pubsub.Message, len(m.messages[topic]))
	copy(msgs, m.messages[topic])
	return msgs
}

// testFixture holds the components needed for testing the bridge.
type testFixture struct {
	bridge *ws.Bridge
	ps     *mockPubSub
	server *httptest.Server
	ctx    context.Context
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	ps := newMockPubSub()
	bridge := ws.NewBridge(ps, ps, "*")

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bridge.Start(ctx))

	e := echo.New()
	e.GET("/ws", bridge.Handler())
	server := httptest.NewServer(e)

	t.Cleanup(func() {
		server.Close()
		cancel()
	})

	return &testFixture{
		bridge: bridge,
		ps:     ps,
		server: server,
		ctx:    ctx,
	}
}

// connectTestClient opens a socket and returns the connection together with
// the connection ID the bridge assigned to it, recovered from the lifecycle
// event on the bus.
func connectTestClient(t *testing.T, f *testFixture) (*websocket.Conn, string) {
	t.Helper()

	seen := len(f.ps.getMessages(ws.TopicClientConnected))

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	conn, resp, err := websocket.Dial(f.ctx, wsURL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() {
		conn.Close(websocket.StatusNormalClosure, "test complete")
	})

	require.Eventually(t, func() bool {
		return len(f.ps.getMessages(ws.TopicClientConnected)) > seen
	}, time.Second, 10*time.Millisecond, "expected a connected lifecycle event")

	events := f.ps.getMessages(ws.TopicClientConnected)
	connID := events[len(events)-1].ConnectionID
	require.NotEmpty(t, connID)
	return conn, connID
}

func readFrame(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, frame, err := conn.Read(ctx)
	require.NoError(t, err)
	return frame
}

func TestBridge_Lifecycle(t *testing.T) {
	f := setupTestFixture(t)

	conn, connID := connectTestClient(t, f)
	assert.True(t, f.bridge.Connected(connID))

	conn.Close(websocket.StatusNormalClosure, "done")

	require.Eventually(t, func() bool {
		return len(f.ps.getMessages(ws.TopicClientDisconnected)) == 1
	}, time.Second, 10*time.Millisecond, "expected a disconnected lifecycle event")

	events := f.ps.getMessages(ws.TopicClientDisconnected)
	assert.Equal(t, connID, events[0].ConnectionID)
	assert.False(t, f.bridge.Connected(connID))
}

func TestBridge_InboundFrames(t *testing.T) {
	f := setupTestFixture(t)
	conn, connID := connectTestClient(t, f)

	frames := []string{
		`{"event":"auth","data":{"token":"abc"}}`,
		`{"event":"message:user","data":{"text":"hello"}}`,
	}
	for _, frame := range frames {
		require.NoError(t, conn.Write(f.ctx, websocket.MessageText, []byte(frame)))
	}

	require.Eventually(t, func() bool {
		return len(f.ps.getMessages(ws.TopicInbound)) == len(frames)
	}, time.Second, 10*time.Millisecond)

	messages := f.ps.getMessages(ws.TopicInbound)
	for i, msg := range messages {
		assert.Equal(t, connID, msg.ConnectionID, "inbound frames carry the connection id")
		assert.JSONEq(t, frames[i], string(msg.Payload), "frame order is preserved")
	}
}

func TestBridge_EmitDirect(t *testing.T) {
	f := setupTestFixture(t)
	conn, connID := connectTestClient(t, f)

	payload := []byte(`{"event":"auth:ok","data":{"me":{"id":"u1","role":"user"}}}`)
	require.NoError(t, f.ps.Publish(f.ctx, pubsub.Message{
		Topic:        ws.TopicEmitDirect,
		ConnectionID: connID,
		Payload:      payload,
	}))

	assert.JSONEq(t, string(payload), string(readFrame(t, conn)))
}

func TestBridge_EmitDirectUnknownConnection(t *testing.T) {
	f := setupTestFixture(t)
	conn, connID := connectTestClient(t, f)

	// An emit for a connection that never existed must not reach anyone.
	require.NoError(t, f.ps.Publish(f.ctx, pubsub.Message{
		Topic:        ws.TopicEmitDirect,
		ConnectionID: "no-such-connection",
		Payload:      []byte(`{"event":"auth:ok","data":null}`),
	}))

	// The next direct emit for the real connection is the first frame it
	// sees, proving the stray one was dropped.
	marker := []byte(`{"event":"message","data":{"text":"marker"}}`)
	require.NoError(t, f.ps.Publish(f.ctx, pubsub.Message{
		Topic:        ws.TopicEmitDirect,
		ConnectionID: connID,
		Payload:      marker,
	}))

	assert.JSONEq(t, string(marker), string(readFrame(t, conn)))
}

func TestBridge_EmitRoom(t *testing.T) {
	f := setupTestFixture(t)

	memberConn, memberID := connectTestClient(t, f)
	outsiderConn, outsiderID := connectTestClient(t, f)

	f.bridge.Join(memberID, "user:u1")

	payload := []byte(`{"event":"message","data":{"userId":"u1","from":"user","text":"hi","at":1}}`)
	require.NoError(t, f.ps.Publish(f.ctx, pubsub.Message{
		Topic:    ws.TopicEmitRoom,
		Payload:  payload,
		Metadata: map[string]string{ws.MetaRoom: "user:u1"},
	}))

	assert.JSONEq(t, string(payload), string(readFrame(t, memberConn)))

	// The outsider must not have received the room message. Send it a direct
	// marker and check the marker is its first frame.
	marker := []byte(`{"event":"message","data":{"text":"marker"}}`)
	require.NoError(t, f.ps.Publish(f.ctx, pubsub.Message{
		Topic:        ws.TopicEmitDirect,
		ConnectionID: outsiderID,
		Payload:      marker,
	}))
	assert.JSONEq(t, string(marker), string(readFrame(t, outsiderConn)))
}

func TestBridge_RoomFanOut(t *testing.T) {
	f := setupTestFixture(t)

	connA, idA := connectTestClient(t, f)
	connB, idB := connectTestClient(t, f)

	f.bridge.Join(idA, "admins")
	f.bridge.Join(idB, "admins")

	payload := []byte(`{"event":"message","data":{"text":"to everyone"}}`)
	require.NoError(t, f.ps.Publish(f.ctx, pubsub.Message{
		Topic:    ws.TopicEmitRoom,
		Payload:  payload,
		Metadata: map[string]string{ws.MetaRoom: "admins"},
	}))

	assert.JSONEq(t, string(payload), string(readFrame(t, connA)))
	assert.JSONEq(t, string(payload), string(readFrame(t, connB)))
}

func TestBridge_DisconnectTearsDownMembership(t *testing.T) {
	f := setupTestFixture(t)
	conn, connID := connectTestClient(t, f)

	f.bridge.Join(connID, "user:u1")
	conn.Close(websocket.StatusNormalClosure, "done")

	require.Eventually(t, func() bool {
		return !f.bridge.Connected(connID)
	}, time.Second, 10*time.Millisecond)

	// Joining a gone connection is a no-op, and emitting to its old room
	// must not block or panic.
	f.bridge.Join(connID, "admins")
	require.NoError(t, f.ps.Publish(f.ctx, pubsub.Message{
		Topic:    ws.TopicEmitRoom,
		Payload:  []byte(`{"event":"message","data":{"text":"late"}}`),
		Metadata: map[string]string{ws.MetaRoom: "user:u1"},
	}))
}
