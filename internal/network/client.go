// Package network provides the WebSocket transport: per-connection pumps,
// the connection hub with its stale-connection reaper, the inbound event
// router, and the HTTP control surface.
package network

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voidhaven/arena/internal/config"
)

// writeTimeout bounds a single frame write to a client.
const writeTimeout = 10 * time.Second

// Client is one WebSocket connection. Outbound frames pass through a
// bounded send queue; a connection that cannot drain its queue is
// considered slow and dropped.
type Client struct {
	// ID is the connection id, also used as the player id once the client
	// joins a room.
	ID string

	hub    *Hub
	conn   *websocket.Conn
	logger *zap.Logger
	cfg    config.TransportConfig

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu            sync.Mutex
	closed        bool
	playerID      string
	roomID        string
	lastHeartbeat time.Time
}

func newClient(id string, hub *Hub, conn *websocket.Conn, logger *zap.Logger, cfg config.TransportConfig, now time.Time) *Client {
	return &Client{
		ID:            id,
		hub:           hub,
		conn:          conn,
		logger:        logger.With(zap.String("conn_id", id)),
		cfg:           cfg,
		send:          make(chan []byte, cfg.SendQueueSize),
		done:          make(chan struct{}),
		lastHeartbeat: now,
	}
}

// Session returns the player and room the connection is bound to. Both are
// empty until a join succeeds.
func (c *Client) Session() (playerID, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID, c.roomID
}

// SetSession binds the connection to a player in a room.
func (c *Client) SetSession(playerID, roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.roomID = roomID
}

// ClearSession unbinds the connection from its room.
func (c *Client) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = ""
	c.roomID = ""
}

// Heartbeat records client liveness.
func (c *Client) Heartbeat(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastHeartbeat = now
}

// LastHeartbeat returns the most recent liveness timestamp.
func (c *Client) LastHeartbeat() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHeartbeat
}

// Enqueue offers a frame to the send queue without blocking. The send
// channel is never closed, so a concurrent Close cannot turn a late Enqueue
// into a panic; a frame accepted after Close is simply never flushed.
//
// Postcondition: Returns false when the connection is closed or the queue is
// full; the caller decides whether to drop the connection.
func (c *Client) Enqueue(frame []byte) bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close shuts the connection down once; safe to call from any goroutine.
// Shutdown is signalled to writePump through the done channel rather than by
// closing the send channel.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
		_ = c.conn.Close()
	})
}

// readPump drains inbound frames, refreshing the idle deadline per frame,
// and hands each frame to the router. It returns when the connection
// breaks, after unregistering from the hub.
func (c *Client) readPump(handle func(*Client, []byte)) {
	defer c.hub.Unregister(c)

	c.conn.SetReadLimit(c.cfg.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("connection read failed", zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
		handle(c, data)
	}
}

// writePump flushes the send queue and keeps the connection alive with
// periodic pings. It exits when the queue closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
