package room

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voidhaven/arena/internal/game/entity"
)

// Manager owns the process-wide room registry. Rooms are created lazily on
// first join and destroyed when their last player leaves.
type Manager struct {
	logger  *zap.Logger
	catalog entity.Catalog
	emit    EmitFunc
	clock   func() time.Time

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewManager creates an empty registry. Every room it creates shares the
// catalog and emit function.
func NewManager(logger *zap.Logger, catalog entity.Catalog, emit EmitFunc) *Manager {
	return NewManagerWithClock(logger, catalog, emit, time.Now)
}

// NewManagerWithClock creates a registry whose rooms use an injected time
// source.
func NewManagerWithClock(logger *zap.Logger, catalog entity.Catalog, emit EmitFunc, clock func() time.Time) *Manager {
	return &Manager{
		logger:  logger,
		catalog: catalog,
		emit:    emit,
		clock:   clock,
		rooms:   make(map[string]*Room),
	}
}

// Get returns the room with the given id.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// GetOrCreate returns the room with the given id, creating it on first use.
func (m *Manager) GetOrCreate(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[id]; ok {
		return r
	}
	r := NewWithClock(id, m.logger, m.catalog, m.emit, m.clock)
	m.rooms[id] = r
	m.logger.Info("room created", zap.String("room_id", id))
	return r
}

// Remove destroys a room and drops it from the registry.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	delete(m.rooms, id)
	m.mu.Unlock()

	if ok {
		r.Destroy()
		m.logger.Info("room removed", zap.String("room_id", id))
	}
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// RoomDetail is one room's line in the health report.
type RoomDetail struct {
	RoomID      string `json:"roomId"`
	GameMode    string `json:"gameMode"`
	GameStarted bool   `json:"gameStarted"`
	PlayerCount int    `json:"playerCount"`
}

// Details returns a health-report snapshot of every room and the total
// player count across them.
func (m *Manager) Details() ([]RoomDetail, int) {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	details := make([]RoomDetail, 0, len(rooms))
	total := 0
	for _, r := range rooms {
		players := r.PlayerCount()
		total += players
		details = append(details, RoomDetail{
			RoomID:      r.ID,
			GameMode:    string(r.Mode()),
			GameStarted: r.Started(),
			PlayerCount: players,
		})
	}
	return details, total
}

// DestroyAll tears every room down; used on shutdown.
func (m *Manager) DestroyAll() {
	m.mu.Lock()
	rooms := m.rooms
	m.rooms = make(map[string]*Room)
	m.mu.Unlock()

	for _, r := range rooms {
		r.Destroy()
	}
}
