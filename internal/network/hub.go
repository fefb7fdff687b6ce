package network

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voidhaven/arena/internal/config"
	"github.com/voidhaven/arena/internal/events"
	"github.com/voidhaven/arena/internal/game/room"
	"github.com/voidhaven/arena/internal/observability"
)

// Hub owns the connection registry and fans room broadcasts out to the
// right connections. It also runs the stale-connection reaper that evicts
// clients whose heartbeat has gone silent.
type Hub struct {
	logger  *zap.Logger
	metrics *observability.Metrics
	cfg     config.TransportConfig
	clock   func() time.Time

	// rooms is bound after construction; the room manager's emit function
	// points back at Deliver.
	rooms *room.Manager

	mu      sync.RWMutex
	clients map[string]*Client

	stopOnce sync.Once
	done     chan struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, metrics *observability.Metrics, cfg config.TransportConfig) *Hub {
	return &Hub{
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
		clock:   time.Now,
		clients: make(map[string]*Client),
		done:    make(chan struct{}),
	}
}

// BindRooms wires the room manager in after construction. Must be called
// before the first connection registers.
func (h *Hub) BindRooms(rooms *room.Manager) {
	h.rooms = rooms
}

// Register adds a connection to the registry.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.ConnectionsActive.Set(float64(count))
	h.logger.Info("connection registered",
		zap.String("conn_id", c.ID),
		zap.Int("connections", count),
	)
}

// Unregister removes a connection, pulls its player out of their room, and
// drops empty rooms. Safe to call more than once per connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c.ID]
	delete(h.clients, c.ID)
	count := len(h.clients)
	h.mu.Unlock()

	if !present {
		return
	}
	h.metrics.ConnectionsActive.Set(float64(count))

	playerID, roomID := c.Session()
	if roomID != "" {
		if rm, ok := h.rooms.Get(roomID); ok {
			_ = rm.RemovePlayer(playerID)
			if rm.Empty() {
				h.rooms.Remove(roomID)
			}
		}
		details, totalPlayers := h.rooms.Details()
		h.metrics.RoomsActive.Set(float64(len(details)))
		h.metrics.PlayersActive.Set(float64(totalPlayers))
	}
	c.Close()

	h.logger.Info("connection unregistered",
		zap.String("conn_id", c.ID),
		zap.String("player_id", playerID),
		zap.Int("connections", count),
	)
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver is the room emit function: it stamps and encodes one outbound
// event and fans it out to the room's connections according to the
// broadcast scope. Connections that cannot absorb the frame are dropped as
// slow.
func (h *Hub) Deliver(roomID string, out room.Outbound) {
	frame, err := h.encodeOutbound(out)
	if err != nil {
		h.logger.Error("encoding outbound event failed",
			zap.String("event", out.Event),
			zap.Error(err),
		)
		return
	}
	h.metrics.MessagesSent.WithLabelValues(out.Event).Inc()

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		playerID, clientRoom := c.Session()
		if clientRoom != roomID {
			continue
		}
		if out.OnlyPlayerID != "" && playerID != out.OnlyPlayerID {
			continue
		}
		if out.ExcludePlayerID != "" && playerID == out.ExcludePlayerID {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.Enqueue(frame) {
			h.metrics.SendQueueOverflows.Inc()
			h.logger.Warn("send queue full, dropping connection",
				zap.String("conn_id", c.ID),
			)
			go h.Unregister(c)
		}
	}
}

// SendTo stamps, encodes, and queues a single-connection reply.
func (h *Hub) SendTo(c *Client, event string, payload any) {
	frame, err := h.encodeOutbound(room.Outbound{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("encoding reply failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.metrics.MessagesSent.WithLabelValues(event).Inc()
	if !c.Enqueue(frame) {
		h.metrics.SendQueueOverflows.Inc()
		go h.Unregister(c)
	}
}

// encodeOutbound fills the payload timestamp and wraps it in the wire
// envelope. Pass-through bodies arrive as raw JSON and are stamped in
// place.
func (h *Hub) encodeOutbound(out room.Outbound) ([]byte, error) {
	now := h.clock().UnixMilli()

	if raw, ok := out.Payload.(json.RawMessage); ok {
		stamped, err := events.StampRaw(raw, now)
		if err != nil {
			return nil, err
		}
		return events.Encode(out.Event, stamped)
	}
	if stamped, ok := out.Payload.(events.Stamped); ok {
		stamped.SetTimestamp(now)
	}
	return events.Encode(out.Event, out.Payload)
}

// Start runs the stale-connection reaper and blocks until Stop. Implements
// the lifecycle Service contract.
func (h *Hub) Start() error {
	ticker := time.NewTicker(h.cfg.ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.reapStale(h.clock())
		case <-h.done:
			return nil
		}
	}
}

// Stop terminates the reaper and closes every connection.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.Unregister(c)
	}
}

// reapStale evicts every connection whose last heartbeat is older than the
// configured threshold.
func (h *Hub) reapStale(now time.Time) {
	h.mu.RLock()
	var stale []*Client
	for _, c := range h.clients {
		if now.Sub(c.LastHeartbeat()) > h.cfg.StaleAfter {
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		playerID, _ := c.Session()
		h.logger.Info("reaping stale connection",
			zap.String("conn_id", c.ID),
			zap.String("player_id", playerID),
			zap.Duration("silent_for", now.Sub(c.LastHeartbeat())),
		)
		h.metrics.ConnectionsReaped.Inc()
		h.Unregister(c)
	}
}
