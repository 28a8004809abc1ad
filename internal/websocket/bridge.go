package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/relay/internal/metrics"
	"github.com/nfrund/relay/internal/pubsub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Outbound buffer per connection; a full buffer means the client is
	// lagging and the frame is dropped.
	sendBufferSize = 256
)

// Bridge owns every WebSocket connection and the room membership table. It
// publishes inbound frames and lifecycle events to the bus and delivers
// emit messages from the bus to the matching sockets. Room membership is
// transport-scoped: when a connection goes away its memberships go with it.
type Bridge struct {
	publisher  pubsub.Publisher
	subscriber pubsub.Subscriber

	// origin is the allowed browser origin for the upgrade handshake.
	origin string

	mu      sync.RWMutex
	clients map[string]*Client
	// rooms maps a room name to the set of member connection IDs.
	rooms map[string]map[string]bool
	// memberships maps a connection ID to the set of rooms it joined, so
	// teardown does not scan every room.
	memberships map[string]map[string]bool
}

// NewBridge initializes a Bridge, ready to handle connections. The origin is
// the browser origin allowed to open sockets (e.g. "http://localhost:3000").
func NewBridge(pub pubsub.Publisher, sub pubsub.Subscriber, origin string) *Bridge {
	return &Bridge{
		publisher:   pub,
		subscriber:  sub,
		origin:      origin,
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]bool),
		memberships: make(map[string]map[string]bool),
	}
}

// Start subscribes the bridge to its emit topics. It must be called once
// before the first connection is accepted.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.subscriber.Subscribe(ctx, TopicEmitDirect, b.handleEmitDirect); err != nil {
		return err
	}
	return b.subscriber.Subscribe(ctx, TopicEmitRoom, b.handleEmitRoom)
}

// Handler returns an echo.HandlerFunc that upgrades requests to WebSocket
// connections. Authentication happens later, over the established socket, so
// the upgrade itself is open to any client from the allowed origin.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			OriginPatterns: []string{originPattern(b.origin)},
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		client := &Client{
			ID:   uuid.NewString(),
			Conn: conn,
			Send: make(chan []byte, sendBufferSize),
		}
		b.addClient(client)
		metrics.ConnectionsOpened.Inc()
		slog.Info("Client connected", "connectionID", client.ID)

		b.publishLifecycle(c.Request().Context(), TopicClientConnected, client.ID)

		go b.writePump(client)
		go b.readPump(client)

		return nil
	}
}

// Join adds the connection to a room. Unknown connection IDs are ignored, so
// a join racing a disconnect is harmless.
func (b *Bridge) Join(connID, room string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.clients[connID]; !ok {
		return
	}
	if b.rooms[room] == nil {
		b.rooms[room] = make(map[string]bool)
	}
	b.rooms[room][connID] = true
	if b.memberships[connID] == nil {
		b.memberships[connID] = make(map[string]bool)
	}
	b.memberships[connID][room] = true
}

// Leave removes the connection from a room.
func (b *Bridge) Leave(connID, room string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leaveLocked(connID, room)
}

func (b *Bridge) leaveLocked(connID, room string) {
	if members, ok := b.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(b.rooms, room)
		}
	}
	if rooms, ok := b.memberships[connID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(b.memberships, connID)
		}
	}
}

// Connected reports whether the connection is still registered. The engine
// uses this to discard verifier results that arrive after a disconnect.
func (b *Bridge) Connected(connID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.clients[connID]
	return ok
}

func (b *Bridge) addClient(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client.ID] = client
}

func (b *Bridge) removeClient(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	client, ok := b.clients[connID]
	if !ok {
		return
	}
	delete(b.clients, connID)
	for room := range b.memberships[connID] {
		b.leaveLocked(connID, room)
	}
	client.Close()
}

// handleEmitDirect delivers a bus message to a single connection.
func (b *Bridge) handleEmitDirect(_ context.Context, msg pubsub.Message) error {
	b.mu.RLock()
	client, ok := b.clients[msg.ConnectionID]
	b.mu.RUnlock()

	if !ok {
		slog.Debug("Direct emit for unknown connection", "connectionID", msg.ConnectionID)
		return nil
	}
	client.SendMessage(msg.Payload)
	return nil
}

// handleEmitRoom delivers a bus message to every member of the named room.
func (b *Bridge) handleEmitRoom(_ context.Context, msg pubsub.Message) error {
	room := msg.Metadata[MetaRoom]
	if room == "" {
		slog.Warn("Room emit without a room name, dropping")
		return nil
	}

	b.mu.RLock()
	members := make([]*Client, 0, len(b.rooms[room]))
	for connID := range b.rooms[room] {
		if client, ok := b.clients[connID]; ok {
			members = append(members, client)
		}
	}
	b.mu.RUnlock()

	for _, client := range members {
		client.SendMessage(msg.Payload)
	}
	return nil
}

// readPump pumps frames from the WebSocket connection onto the bus.
func (b *Bridge) readPump(client *Client) {
	defer func() {
		b.removeClient(client.ID)
		client.Conn.Close(websocket.StatusNormalClosure, "Client disconnected")
		metrics.ConnectionsClosed.Inc()
		b.publishLifecycle(context.Background(), TopicClientDisconnected, client.ID)
	}()

	for {
		// Read deadlines are managed by the library's keep-alive mechanism.
		_, frame, err := client.Conn.Read(context.Background())
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally by client", "connectionID", client.ID)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "connectionID", client.ID, "error", err)
			}
			break
		}

		msg := pubsub.Message{
			Topic:        TopicInbound,
			ConnectionID: client.ID,
			Payload:      frame,
			Metadata: map[string]string{
				"received_at": time.Now().UTC().Format(time.RFC3339),
			},
		}
		if err := b.publisher.Publish(context.Background(), msg); err != nil {
			slog.Error("Failed to publish inbound frame", "connectionID", client.ID, "error", err)
		}
	}
}

// writePump pumps messages from the client's send channel to the WebSocket
// connection.
func (b *Bridge) writePump(client *Client) {
	defer func() {
		client.Conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")
	}()

	for message := range client.Send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := client.Conn.Write(ctx, websocket.MessageText, message)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "connectionID", client.ID, "error", err)
			return
		}
	}
}

func (b *Bridge) publishLifecycle(ctx context.Context, topic, connID string) {
	payload, _ := json.Marshal(map[string]string{"connectionID": connID})
	msg := pubsub.Message{
		Topic:        topic,
		ConnectionID: connID,
		Payload:      payload,
	}
	if err := b.publisher.Publish(ctx, msg); err != nil {
		slog.Error("Failed to publish lifecycle event", "topic", topic, "connectionID", connID, "error", err)
	}
}

// originPattern converts a configured origin URL into the host pattern the
// websocket library matches the Origin header against.
func originPattern(origin string) string {
	if origin == "" || origin == "*" {
		return "*"
	}
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return u.Host
	}
	return origin
}
