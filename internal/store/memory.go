package store

import (
	"sync"

	"github.com/nfrund/relay/internal/domain"
)

// Memory is the in-process Store implementation. Transcripts live for the
// process lifetime; there is no eviction and no size cap, which is an
// accepted limitation of the single-process relay.
type Memory struct {
	mu            sync.RWMutex
	conversations map[string][]domain.ChatMessage
	// created records conversation creation order so Overview is
	// deterministic.
	created []string
}

// NewMemory creates an empty in-memory conversation store.
func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[string][]domain.ChatMessage),
	}
}

// Append implements Store.
func (m *Memory) Append(userID string, msg domain.ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[userID]; !ok {
		m.created = append(m.created, userID)
	}
	m.conversations[userID] = append(m.conversations[userID], msg)
}

// History implements Store. The returned slice is a copy, so callers can
// hold it across later appends.
func (m *Memory) History(userID string) []domain.ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.conversations[userID]
	out := make([]domain.ChatMessage, len(items))
	copy(out, items)
	return out
}

// Overview implements Store. Conversations are listed newest-created first,
// which keeps fresh dialogues at the top of an admin's list.
func (m *Memory) Overview() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.created))
	for i := len(m.created) - 1; i >= 0; i-- {
		userID := m.created[i]
		items := m.conversations[userID]
		entry := Entry{UserID: userID}
		if len(items) > 0 {
			last := items[len(items)-1]
			entry.Last = &last
		}
		out = append(out, entry)
	}
	return out
}
