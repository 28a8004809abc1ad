package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/metrics"
	"github.com/nfrund/relay/internal/pubsub"
	"github.com/nfrund/relay/internal/rooms"
	"github.com/nfrund/relay/internal/store"
	"github.com/nfrund/relay/internal/verifier"
	"github.com/nfrund/relay/internal/websocket"
)

// Transport is the capability the engine needs from the socket layer beyond
// bus emits: room membership and liveness. The websocket bridge implements
// it.
type Transport interface {
	// Join adds a connection to a room. Joining an already-closed connection
	// is a no-op.
	Join(connID, room string)
	// Connected reports whether the connection is still open.
	Connected(connID string) bool
}

// Dependencies holds all the services the engine requires.
type Dependencies struct {
	Store       store.Store
	Verifier    verifier.Verifier
	Transport   Transport
	Publisher   pubsub.Publisher
	Subscriber  pubsub.Subscriber
	AuthTimeout time.Duration
}

// Engine is the relay protocol state machine. It consumes client frames from
// the bus, keeps the session registry, and routes chat messages to rooms.
// Frames of a single connection are processed in arrival order; the only
// step that leaves that order is the identity verification call, which runs
// on its own goroutine so one connection's auth cannot stall another's
// traffic.
type Engine struct {
	store       store.Store
	verifier    verifier.Verifier
	transport   Transport
	publisher   pubsub.Publisher
	subscriber  pubsub.Subscriber
	sessions    *SessionRegistry
	validate    *validator.Validate
	authTimeout time.Duration
}

// NewEngine creates the engine. AuthTimeout bounds the identity verifier
// call; zero means 5 seconds.
func NewEngine(deps Dependencies) *Engine {
	timeout := deps.AuthTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Engine{
		store:       deps.Store,
		verifier:    deps.Verifier,
		transport:   deps.Transport,
		publisher:   deps.Publisher,
		subscriber:  deps.Subscriber,
		sessions:    NewSessionRegistry(),
		validate:    validator.New(),
		authTimeout: timeout,
	}
}

// Sessions exposes the registry, useful for tests and diagnostics.
func (e *Engine) Sessions() *SessionRegistry {
	return e.sessions
}

// Start subscribes the engine to the inbound frame stream and the transport
// lifecycle events.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.subscriber.Subscribe(ctx, websocket.TopicInbound, e.handleFrame); err != nil {
		return err
	}
	return e.subscriber.Subscribe(ctx, websocket.TopicClientDisconnected, e.handleDisconnect)
}

// handleFrame dispatches one client frame. Unknown events and malformed
// frames are dropped silently: surfacing them would leak protocol details to
// misbehaving clients.
func (e *Engine) handleFrame(ctx context.Context, msg pubsub.Message) error {
	var env Envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		slog.Debug("Dropping malformed frame", "connectionID", msg.ConnectionID, "error", err)
		return nil
	}

	switch env.Event {
	case EventAuth:
		// Verification suspends on the network; run it off the frame loop so
		// other connections keep flowing.
		go e.handleAuth(ctx, msg.ConnectionID, env.Data)
	case EventMessageUser:
		e.handleUserMessage(ctx, msg.ConnectionID, env.Data)
	case EventMessageAdmin:
		e.handleAdminMessage(ctx, msg.ConnectionID, env.Data)
	case EventHistoryGet:
		e.handleHistoryGet(ctx, msg.ConnectionID, env.Data)
	default:
		slog.Debug("Dropping unknown event", "connectionID", msg.ConnectionID, "event", env.Event)
	}
	return nil
}

// handleDisconnect releases the session bound to a gone connection. Room
// membership is torn down by the transport itself.
func (e *Engine) handleDisconnect(_ context.Context, msg pubsub.Message) error {
	e.sessions.Drop(msg.ConnectionID)
	return nil
}

// handleAuth runs the authentication flow for one connection: verify the
// credential, bind the session, join rooms, replay history, and confirm.
func (e *Engine) handleAuth(ctx context.Context, connID string, data json.RawMessage) {
	var payload AuthPayload
	// A missing or malformed body is equivalent to a missing token.
	_ = json.Unmarshal(data, &payload)

	if payload.Token == "" {
		metrics.AuthFailures.WithLabelValues(domain.ErrMissingToken.Error()).Inc()
		e.emitDirect(ctx, connID, EventAuthError, domain.ErrMissingToken.Error())
		return
	}

	verifyCtx, cancel := context.WithTimeout(ctx, e.authTimeout)
	defer cancel()

	identity, err := e.verifier.Verify(verifyCtx, payload.Token)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidToken) {
			slog.Warn("Identity verification failed", "connectionID", connID, "error", err)
		}
		metrics.AuthFailures.WithLabelValues(domain.ErrInvalidToken.Error()).Inc()
		e.emitDirect(ctx, connID, EventAuthError, domain.ErrInvalidToken.Error())
		return
	}

	// The verifier may answer after the socket is gone; never bind an
	// identity to a dead connection.
	if !e.transport.Connected(connID) {
		slog.Debug("Discarding verifier result for closed connection", "connectionID", connID, "userID", identity.ID)
		return
	}

	e.sessions.Bind(connID, identity)
	e.transport.Join(connID, rooms.ForUser(identity.ID))
	if identity.IsAdmin() {
		e.transport.Join(connID, rooms.Admins)
	}

	e.emitHistory(ctx, connID, identity.ID)
	if identity.IsAdmin() {
		e.emitDirect(ctx, connID, EventConversations, ConversationsPayload(e.store.Overview()))
	}
	e.emitDirect(ctx, connID, EventAuthOK, AuthOKPayload{Me: *identity})

	metrics.AuthSuccesses.WithLabelValues(string(identity.Role)).Inc()
	slog.Info("Session authenticated", "connectionID", connID, "userID", identity.ID, "role", identity.Role)
}

// handleUserMessage appends a user's message to their own conversation and
// fans it out to the user room and the admins room.
func (e *Engine) handleUserMessage(ctx context.Context, connID string, data json.RawMessage) {
	identity, ok := e.sessions.Lookup(connID)
	if !ok {
		e.drop(EventMessageUser, connID, "unauthenticated")
		return
	}

	var payload UserMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || e.validate.Struct(payload) != nil {
		e.drop(EventMessageUser, connID, "invalid payload")
		return
	}

	msg := domain.NewUserMessage(identity.ID, payload.Text)
	e.deliver(ctx, msg)
}

// handleAdminMessage appends an admin reply to the target user's
// conversation, creating the conversation if the user never wrote, and fans
// it out so the user and every connected admin see it.
func (e *Engine) handleAdminMessage(ctx context.Context, connID string, data json.RawMessage) {
	identity, ok := e.sessions.Lookup(connID)
	if !ok || !identity.IsAdmin() {
		e.drop(EventMessageAdmin, connID, "not an admin")
		return
	}

	var payload AdminMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || e.validate.Struct(payload) != nil {
		e.drop(EventMessageAdmin, connID, "invalid payload")
		return
	}

	msg := domain.NewAdminMessage(payload.ToUserID, payload.Text)
	e.deliver(ctx, msg)
}

// handleHistoryGet replays a requested user's transcript to an admin
// connection.
func (e *Engine) handleHistoryGet(ctx context.Context, connID string, data json.RawMessage) {
	identity, ok := e.sessions.Lookup(connID)
	if !ok || !identity.IsAdmin() {
		e.drop(EventHistoryGet, connID, "not an admin")
		return
	}

	var payload HistoryGetPayload
	if err := json.Unmarshal(data, &payload); err != nil || e.validate.Struct(payload) != nil {
		e.drop(EventHistoryGet, connID, "invalid payload")
		return
	}

	e.emitHistory(ctx, connID, payload.UserID)
}

// deliver records a message and fans it out. The append always precedes the
// emits so a delivered message is never missing from the transcript.
func (e *Engine) deliver(ctx context.Context, msg domain.ChatMessage) {
	e.store.Append(msg.UserID, msg)
	metrics.MessagesRelayed.WithLabelValues(string(msg.From)).Inc()

	e.emitRoom(ctx, rooms.ForUser(msg.UserID), EventMessage, msg)
	e.emitRoom(ctx, rooms.Admins, EventMessage, msg)
}

// emitHistory sends one conversation's full transcript to a single
// connection.
func (e *Engine) emitHistory(ctx context.Context, connID, userID string) {
	e.emitDirect(ctx, connID, EventHistory, HistoryPayload{
		UserID: userID,
		Items:  e.store.History(userID),
	})
	metrics.HistoryReplays.Inc()
}

func (e *Engine) emitDirect(ctx context.Context, connID, event string, data any) {
	payload, err := Encode(event, data)
	if err != nil {
		slog.Error("Failed to encode event", "event", event, "error", err)
		return
	}
	msg := pubsub.Message{
		Topic:        websocket.TopicEmitDirect,
		ConnectionID: connID,
		Payload:      payload,
	}
	if err := e.publisher.Publish(ctx, msg); err != nil {
		slog.Error("Failed to publish direct emit", "event", event, "connectionID", connID, "error", err)
	}
}

func (e *Engine) emitRoom(ctx context.Context, room, event string, data any) {
	payload, err := Encode(event, data)
	if err != nil {
		slog.Error("Failed to encode event", "event", event, "error", err)
		return
	}
	msg := pubsub.Message{
		Topic:    websocket.TopicEmitRoom,
		Payload:  payload,
		Metadata: map[string]string{websocket.MetaRoom: room},
	}
	if err := e.publisher.Publish(ctx, msg); err != nil {
		slog.Error("Failed to publish room emit", "event", event, "room", room, "error", err)
	}
}

func (e *Engine) drop(event, connID, reason string) {
	metrics.DroppedEvents.WithLabelValues(event).Inc()
	slog.Debug("Dropping event", "event", event, "connectionID", connID, "reason", reason)
}
