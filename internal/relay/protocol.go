// Package relay implements the chat relay protocol: authentication over an
// established socket, session bookkeeping, and role-based room routing.
package relay

import (
	"encoding/json"
	"fmt"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/store"
)

// Wire event names. These are the protocol contract shared with the web and
// CLI clients; renaming one is a breaking change.
const (
	// client → server
	EventAuth         = "auth"
	EventMessageUser  = "message:user"
	EventMessageAdmin = "message:admin"
	EventHistoryGet   = "history:get"

	// server → client
	EventAuthOK        = "auth:ok"
	EventAuthError     = "auth:error"
	EventHistory       = "history"
	EventConversations = "conversations:list"
	EventMessage       = "message"
)

// Envelope frames every event on the wire: a name plus an event-specific
// payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds the wire bytes for an event envelope.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// AuthPayload carries the bearer credential of an auth attempt.
type AuthPayload struct {
	Token string `json:"token"`
}

// AuthOKPayload confirms authentication, echoing the bound identity.
type AuthOKPayload struct {
	Me domain.Identity `json:"me"`
}

// UserMessagePayload is a message sent by an authenticated user into their
// own conversation.
type UserMessagePayload struct {
	Text string `json:"text" validate:"required"`
}

// AdminMessagePayload is an admin reply addressed to a user's conversation.
type AdminMessagePayload struct {
	ToUserID string `json:"toUserId" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

// HistoryGetPayload is an admin request for another user's transcript.
type HistoryGetPayload struct {
	UserID string `json:"userId" validate:"required"`
}

// HistoryPayload replays one conversation's transcript.
type HistoryPayload struct {
	UserID string               `json:"userId"`
	Items  []domain.ChatMessage `json:"items"`
}

// ConversationsPayload is the one-shot overview pushed to admins after
// authentication.
type ConversationsPayload []store.Entry
