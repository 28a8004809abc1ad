package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g., "relay.frames.inbound").
	Topic string
	// ConnectionID identifies the transport connection the message relates to.
	// It is empty for messages that target a room rather than a connection.
	ConnectionID string
	// Payload contains the raw message data (e.g., a JSON event envelope).
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context (e.g., room names).
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the Pub/Sub system.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the Pub/Sub system.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages with
	// the handler. Messages of one topic are handed to the handler in publish
	// order, one at a time; the relay's per-connection ordering guarantee
	// rests on this.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
