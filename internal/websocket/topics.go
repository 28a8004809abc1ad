package websocket

// Bus topics the bridge produces and consumes. The bridge is the only
// component that touches sockets; everything else talks to it through these
// topics or the membership methods.
const (
	// TopicInbound carries raw client frames. The originating connection's ID
	// travels in the message's ConnectionID field.
	TopicInbound = "relay.frames.inbound"

	// TopicClientConnected is published when a connection is accepted and
	// registered.
	TopicClientConnected = "relay.client.connected"

	// TopicClientDisconnected is published after a connection is torn down and
	// its room memberships released.
	TopicClientDisconnected = "relay.client.disconnected"

	// TopicEmitDirect delivers a payload to a single connection, identified by
	// the message's ConnectionID field.
	TopicEmitDirect = "ws.emit.direct"

	// TopicEmitRoom delivers a payload to every connection joined to the room
	// named by the MetaRoom metadata key.
	TopicEmitRoom = "ws.emit.room"
)

// MetaRoom is the metadata key naming the target room on TopicEmitRoom
// messages.
const MetaRoom = "room"
