package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/nfrund/relay/internal/relay"
)

// dialAndAuth opens a socket to the relay and runs the auth handshake,
// returning the connection once auth:ok arrives. History and overview events
// replayed during the handshake are passed to onEvent when it is non-nil.
func dialAndAuth(onEvent func(relay.Envelope)) (*websocket.Conn, error) {
	if token == "" {
		return nil, fmt.Errorf("--token is required")
	}

	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}

	if err := writeEvent(conn, relay.EventAuth, relay.AuthPayload{Token: token}); err != nil {
		conn.Close()
		return nil, err
	}

	for {
		var env relay.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			conn.Close()
			return nil, fmt.Errorf("reading handshake: %w", err)
		}

		switch env.Event {
		case relay.EventAuthOK:
			return conn, nil
		case relay.EventAuthError:
			conn.Close()
			var reason string
			_ = json.Unmarshal(env.Data, &reason)
			return nil, fmt.Errorf("authentication failed: %s", reason)
		default:
			if onEvent != nil {
				onEvent(env)
			}
		}
	}
}

// writeEvent sends one envelope on the socket.
func writeEvent(conn *websocket.Conn, event string, data any) error {
	payload, err := relay.Encode(event, data)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}
