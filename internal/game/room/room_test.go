package room_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/voidhaven/arena/internal/events"
	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/geom"
	"github.com/voidhaven/arena/internal/game/room"
)

func vec(x, y, z float64) geom.Vector3 {
	return geom.Vector3{X: x, Y: y, Z: z}
}

// recorder captures every outbound event a room emits, in order.
type recorder struct {
	mu   sync.Mutex
	outs []room.Outbound
}

func (r *recorder) emit(_ string, out room.Outbound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outs = append(r.outs, out)
}

func (r *recorder) named(event string) []room.Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []room.Outbound
	for _, out := range r.outs {
		if out.Event == event {
			matches = append(matches, out)
		}
	}
	return matches
}

func (r *recorder) count(event string) int {
	return len(r.named(event))
}

func (r *recorder) last(t *testing.T, event string) room.Outbound {
	t.Helper()
	matches := r.named(event)
	require.NotEmpty(t, matches, "no %s event recorded", event)
	return matches[len(matches)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outs = nil
}

// testClock is a mutable time source for manual rooms.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return c.t
}

func newTestRoom(t *testing.T) (*room.Room, *recorder, *testClock) {
	t.Helper()
	rec := &recorder{}
	clk := newTestClock()
	r := room.NewManual("room-1", zaptest.NewLogger(t), entity.DefaultCatalog(), rec.emit, clk.Now)
	t.Cleanup(r.Destroy)
	return r, rec, clk
}

func joinN(t *testing.T, r *room.Room, mode entity.GameMode, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := r.AddPlayer(id, "Player "+id, "sword", "", mode)
		require.NoError(t, err)
	}
}

func TestAddPlayer_FixesModeOnFirstJoin(t *testing.T) {
	r, _, _ := newTestRoom(t)

	joinN(t, r, entity.ModePvP, "p1")
	assert.Equal(t, entity.ModePvP, r.Mode())

	// Later joins cannot change the mode.
	joinN(t, r, entity.ModeMultiplayer, "p2")
	assert.Equal(t, entity.ModePvP, r.Mode())
}

func TestAddPlayer_RejectsInvalidMode(t *testing.T) {
	r, _, _ := newTestRoom(t)

	_, err := r.AddPlayer("p1", "P1", "sword", "", entity.GameMode("battle-royale"))
	assert.ErrorIs(t, err, room.ErrBadMode)
}

func TestAddPlayer_RoomFull(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1", "p2", "p3", "p4", "p5")

	_, err := r.AddPlayer("p6", "P6", "sword", "", entity.ModeMultiplayer)
	assert.ErrorIs(t, err, room.ErrRoomFull)
	assert.Equal(t, 5, r.PlayerCount())
}

func TestAddPlayer_Duplicate(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1")

	_, err := r.AddPlayer("p1", "P1", "sword", "", entity.ModeMultiplayer)
	assert.ErrorIs(t, err, room.ErrAlreadyJoined)
}

func TestAddPlayer_AnnouncesToOthersOnly(t *testing.T) {
	r, rec, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1", "p2")

	joins := rec.named(events.SPlayerJoined)
	require.Len(t, joins, 2)
	assert.Equal(t, "p1", joins[0].ExcludePlayerID)
	assert.Equal(t, "p2", joins[1].ExcludePlayerID)
}

func TestAddPlayer_PvPStructures(t *testing.T) {
	r, rec, _ := newTestRoom(t)
	joinN(t, r, entity.ModePvP, "p1", "p2")

	assert.Equal(t, 2, rec.count(events.STowerSpawned))
	assert.Equal(t, 6, rec.count(events.SPillarSpawned))

	t1, ok := r.Tower(entity.TowerID("p1"))
	require.True(t, ok)
	t2, ok := r.Tower(entity.TowerID("p2"))
	require.True(t, ok)
	assert.Equal(t, entity.TowerMaxHealth, t1.Health)

	// Towers face each other across the center.
	assert.InDelta(t, -t1.Position.X, t2.Position.X, 1e-9)
	assert.InDelta(t, -t1.Position.Z, t2.Position.Z, 1e-9)

	p1, ok := r.Player("p1")
	require.True(t, ok)
	assert.Equal(t, entity.LevelMaxHealth(1), p1.MaxHealth)
	assert.NotZero(t, p1.Position)
}

func TestAddPlayer_PvPThirdPlayerGetsNoTower(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModePvP, "p1", "p2", "p3")

	assert.Len(t, r.Towers(), 2)
	assert.Len(t, r.Pillars(), 6)
}

func TestRemovePlayer_PvPDestroysStructures(t *testing.T) {
	r, rec, _ := newTestRoom(t)
	joinN(t, r, entity.ModePvP, "p1", "p2")
	rec.reset()

	require.NoError(t, r.RemovePlayer("p1"))

	assert.Equal(t, 1, rec.count(events.STowerDestroyed))
	assert.Equal(t, 3, rec.count(events.SPillarDestroyed))
	assert.Equal(t, 1, rec.count(events.SPlayerLeft))

	tower, ok := r.Tower(entity.TowerID("p1"))
	require.True(t, ok)
	assert.True(t, tower.IsDead)
}

func TestRemovePlayer_NotInRoom(t *testing.T) {
	r, _, _ := newTestRoom(t)
	assert.ErrorIs(t, r.RemovePlayer("ghost"), room.ErrNotInRoom)
}

func TestRemovePlayer_LastStopsSimulation(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1")
	require.NoError(t, r.StartGame("p1"))
	require.True(t, r.Started())

	require.NoError(t, r.RemovePlayer("p1"))

	assert.False(t, r.Started())
	assert.Empty(t, r.Enemies())
	assert.True(t, r.Empty())
}

func TestStartGame_Multiplayer(t *testing.T) {
	r, rec, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1")

	require.NoError(t, r.StartGame("p1"))

	assert.Equal(t, 1, rec.count(events.SGameStarted))
	spawns := rec.named(events.SEnemySpawned)
	require.Len(t, spawns, 2)
	for _, out := range spawns {
		enemy := out.Payload.(*events.EnemySpawned).Enemy
		assert.Equal(t, string(entity.EnemyElite), enemy.Type)
		assert.Equal(t, 1000, enemy.MaxHealth)
	}
}

func TestStartGame_Twice(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1")

	require.NoError(t, r.StartGame("p1"))
	assert.ErrorIs(t, r.StartGame("p1"), room.ErrAlreadyStarted)
}

func TestStartGame_NonMember(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1")

	assert.ErrorIs(t, r.StartGame("ghost"), room.ErrNotInRoom)
}

func TestStartGame_PvPSpawnsNoEnemies(t *testing.T) {
	r, rec, _ := newTestRoom(t)
	joinN(t, r, entity.ModePvP, "p1", "p2")

	require.NoError(t, r.StartGame("p1"))

	assert.Zero(t, rec.count(events.SEnemySpawned))
	assert.Empty(t, r.Enemies())
}

func TestSnapshot(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModePvP, "p1", "p2")
	require.NoError(t, r.StartGame("p1"))

	snap := r.Snapshot("p2")
	assert.Equal(t, "room-1", snap.RoomID)
	assert.Equal(t, "p2", snap.PlayerID)
	assert.Equal(t, string(entity.ModePvP), snap.GameMode)
	assert.True(t, snap.GameStarted)
	assert.Len(t, snap.Players, 2)
	assert.Len(t, snap.Towers, 2)
	assert.Len(t, snap.Pillars, 6)
}

func TestPreview(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1", "p2")

	preview := r.Preview()
	assert.True(t, preview.Exists)
	assert.Equal(t, 2, preview.PlayerCount)
	assert.False(t, preview.GameStarted)
}

func TestUpdatePlayerPosition(t *testing.T) {
	r, rec, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1", "p2")
	rec.reset()

	health := 150
	r.UpdatePlayerPosition("p1", vec(3, 0, 4), 1.5, "bow", &health, nil)

	out := rec.last(t, events.SPlayerMoved)
	assert.Equal(t, "p1", out.ExcludePlayerID)
	moved := out.Payload.(*events.PlayerMoved)
	assert.Equal(t, vec(3, 0, 4), moved.Position)
	assert.Equal(t, 1.5, moved.Rotation)
	assert.Equal(t, "bow", moved.Weapon)
	assert.Equal(t, 150, moved.Health)

	p, _ := r.Player("p1")
	assert.Equal(t, "bow", p.Weapon)
	assert.Equal(t, 150, p.Health)
}

func TestUpdatePlayerLevel_ScalesHealthInLevelModes(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModePvP, "p1")

	r.UpdatePlayerLevel("p1", 3)

	p, _ := r.Player("p1")
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, entity.LevelMaxHealth(3), p.MaxHealth)
}

func TestDestroy_Idempotent(t *testing.T) {
	r, _, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1")
	require.NoError(t, r.StartGame("p1"))

	r.Destroy()
	r.Destroy()
	assert.False(t, r.Started())
}
