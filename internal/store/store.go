// Package store holds conversation transcripts for the relay.
package store

import "github.com/nfrund/relay/internal/domain"

// Entry is one row of the admin conversation overview: a conversation's user
// id with its most recent message.
type Entry struct {
	UserID string              `json:"userId"`
	Last   *domain.ChatMessage `json:"last,omitempty"`
}

// Store is the conversation store contract. It lives behind an interface so
// the routing logic never depends on where transcripts are kept; a persistent
// or externally synchronized implementation can be swapped in without
// touching the engine.
//
// Implementations must be safe for concurrent use: the engine appends from
// several goroutines.
type Store interface {
	// Append adds a message to the conversation keyed by userID, creating the
	// conversation if it does not exist yet.
	Append(userID string, msg domain.ChatMessage)

	// History returns the full transcript for userID in append order. It never
	// fails; an unknown user yields an empty slice.
	History(userID string) []domain.ChatMessage

	// Overview returns one entry per known conversation with its most recent
	// message, most recently created conversation first.
	Overview() []Entry
}
