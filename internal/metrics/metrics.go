// Package metrics defines the relay's Prometheus collectors. Everything is
// registered against the default registry at package load, so any package can
// increment a counter without wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection lifecycle
	ConnectionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_connections_opened_total",
			Help: "Total WebSocket connections accepted",
		},
	)

	ConnectionsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_connections_closed_total",
			Help: "Total WebSocket connections closed",
		},
	)

	// Authentication
	AuthSuccesses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_auth_successes_total",
			Help: "Successful socket authentications",
		},
		[]string{"role"},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_auth_failures_total",
			Help: "Failed socket authentications",
		},
		[]string{"reason"}, // "missing_token" or "invalid_token"
	)

	// Message flow
	MessagesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Chat messages stored and fanned out",
		},
		[]string{"from"}, // "user" or "admin"
	)

	DroppedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_dropped_events_total",
			Help: "Client events silently dropped by routing rules",
		},
		[]string{"event"},
	)

	HistoryReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_history_replays_total",
			Help: "Transcript replays emitted to clients",
		},
	)
)
