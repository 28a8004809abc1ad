package domain

import "time"

// Origin identifies which side of a conversation authored a message.
type Origin string

const (
	// FromUser marks a message sent by the end user of the conversation.
	FromUser Origin = "user"
	// FromAdmin marks a message sent by an administrator into the
	// conversation.
	FromAdmin Origin = "admin"
)

// ChatMessage is a single entry in a conversation transcript. UserID always
// identifies the conversation (the end-user side of the dialogue): an admin
// reply is stamped with the target user's id, not the admin's own. At is an
// epoch-milliseconds timestamp, matching the wire format the web clients
// expect. Messages are immutable once created.
type ChatMessage struct {
	UserID string `json:"userId"`
	From   Origin `json:"from"`
	Text   string `json:"text"`
	At     int64  `json:"at"`
}

// NewUserMessage builds a message authored by the user who owns the
// conversation.
func NewUserMessage(userID, text string) ChatMessage {
	return ChatMessage{
		UserID: userID,
		From:   FromUser,
		Text:   text,
		At:     time.Now().UnixMilli(),
	}
}

// NewAdminMessage builds an admin reply addressed to toUserID's conversation.
func NewAdminMessage(toUserID, text string) ChatMessage {
	return ChatMessage{
		UserID: toUserID,
		From:   FromAdmin,
		Text:   text,
		At:     time.Now().UnixMilli(),
	}
}
