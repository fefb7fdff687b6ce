package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the game server.
type Metrics struct {
	registry *prometheus.Registry

	// ConnectionsActive is the number of open WebSocket connections.
	ConnectionsActive prometheus.Gauge
	// ConnectionsReaped counts stale connections evicted by the reaper.
	ConnectionsReaped prometheus.Counter
	// RoomsActive is the number of live rooms.
	RoomsActive prometheus.Gauge
	// PlayersActive is the number of players currently in rooms.
	PlayersActive prometheus.Gauge
	// MessagesReceived counts inbound events by event name.
	MessagesReceived *prometheus.CounterVec
	// MessagesDropped counts inbound events rejected at the router boundary.
	MessagesDropped *prometheus.CounterVec
	// MessagesSent counts outbound events by event name.
	MessagesSent *prometheus.CounterVec
	// SendQueueOverflows counts connections dropped for a full send queue.
	SendQueueOverflows prometheus.Counter
}

// NewMetrics creates and registers the server's instruments on a private
// registry.
//
// Postcondition: Returns a non-nil Metrics whose Registry serves all
// instruments.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arena_connections_active",
			Help: "Number of open WebSocket connections.",
		}),
		ConnectionsReaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "arena_connections_reaped_total",
			Help: "Stale connections evicted by the heartbeat reaper.",
		}),
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arena_rooms_active",
			Help: "Number of live game rooms.",
		}),
		PlayersActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arena_players_active",
			Help: "Number of players currently in rooms.",
		}),
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_messages_received_total",
			Help: "Inbound client events by event name.",
		}, []string{"event"}),
		MessagesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_messages_dropped_total",
			Help: "Inbound client events rejected at the router boundary.",
		}, []string{"reason"}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_messages_sent_total",
			Help: "Outbound server events by event name.",
		}, []string{"event"}),
		SendQueueOverflows: factory.NewCounter(prometheus.CounterOpts{
			Name: "arena_send_queue_overflows_total",
			Help: "Connections dropped because their send queue overflowed.",
		}),
	}
}

// Registry exposes the private registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
