// Package room implements the authoritative per-room simulation: the room
// controller and its command surface, the combat resolver, the PvE spawn
// engine and enemy AI, the summoned-unit simulation, status effects, and
// pending-kill bookkeeping.
//
// Concurrency contract: every mutation of a room's state happens under the
// room mutex, so all commands and simulation ticks observe a total order.
// Broadcasts are composed and enqueued inside that critical section, which
// makes them atomic with respect to the state change that produced them.
package room

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voidhaven/arena/internal/events"
	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/geom"
)

// MaxPlayers is the room capacity.
const MaxPlayers = 5

// Simulation cadences.
const (
	AITickInterval     = 100 * time.Millisecond
	SummonTickInterval = time.Second / 60
	UnitSnapshotEvery  = 50 * time.Millisecond
	BossSpawnDelay     = 20 * time.Second
	InitialEliteCount  = 2
)

// Command failure sentinels. Callers translate these into single-shot
// replies (room-full, start-game-failed) or silent drops.
var (
	ErrRoomFull       = errors.New("room is full")
	ErrAlreadyJoined  = errors.New("player already in room")
	ErrNotInRoom      = errors.New("player not in room")
	ErrAlreadyStarted = errors.New("game already started")
	ErrBadMode        = errors.New("invalid game mode")
)

// Outbound is one event to fan out to the room's connections. Empty
// ExcludePlayerID and OnlyPlayerID means room-wide.
type Outbound struct {
	Event string
	// Payload is an events struct (stamped by the transport) or, for
	// pass-through events, a pre-stamped json.RawMessage.
	Payload any
	// ExcludePlayerID suppresses delivery to one room member.
	ExcludePlayerID string
	// OnlyPlayerID restricts delivery to a single room member.
	OnlyPlayerID string
}

// EmitFunc receives every outbound event a room produces, in order.
type EmitFunc func(roomID string, out Outbound)

// Room owns all mutable state for a single game room and serializes every
// mutation behind its mutex.
type Room struct {
	ID string

	logger  *zap.Logger
	catalog entity.Catalog
	emit    EmitFunc
	clock   func() time.Time
	rng     *rand.Rand

	// manual suppresses background timers so tests can drive SpawnTick,
	// AITick, and SummonTick directly.
	manual bool

	mu      sync.Mutex
	mode    entity.GameMode
	started bool
	stopped bool

	startedAt time.Time
	killCount int

	players map[string]*entity.Player
	enemies map[string]*entity.Enemy
	towers  map[string]*entity.Tower
	pillars map[string]*entity.Pillar
	units   map[string]*entity.SummonedUnit

	aggro            map[string]*entity.Aggro
	statusEffects    map[string]map[entity.StatusEffectType]time.Time
	pendingKills     map[string]*entity.PendingKill
	destroyedPillars map[string]int
	experience       map[string]int

	waves              map[string]*entity.Wave
	towerOwners        []string
	lastGlobalSpawnAt  time.Time
	lastSummonTickAt   time.Time
	lastUnitSnapshotAt time.Time
	deadUnitQueue      []string

	stopFuncs   []func()
	afterFuncs  map[int]*time.Timer
	nextAfterID int
}

// New creates an idle room. The mode is fixed by the first AddPlayer call.
//
// Precondition: id must be non-empty; logger, catalog, and emit must be
// non-nil.
// Postcondition: Returns a room with no players and no running timers.
func New(id string, logger *zap.Logger, catalog entity.Catalog, emit EmitFunc) *Room {
	return NewWithClock(id, logger, catalog, emit, time.Now)
}

// NewManual creates a room with an injected time source and no background
// timers. Simulation only advances when the tick methods are called, which
// makes command and tick interleavings fully deterministic.
func NewManual(id string, logger *zap.Logger, catalog entity.Catalog, emit EmitFunc, clock func() time.Time) *Room {
	r := NewWithClock(id, logger, catalog, emit, clock)
	r.manual = true
	return r
}

// NewWithClock creates a room with an injected time source. Tests use this
// to drive ticks deterministically.
func NewWithClock(id string, logger *zap.Logger, catalog entity.Catalog, emit EmitFunc, clock func() time.Time) *Room {
	return &Room{
		ID:               id,
		logger:           logger.With(zap.String("room_id", id)),
		catalog:          catalog,
		emit:             emit,
		clock:            clock,
		rng:              rand.New(rand.NewSource(clock().UnixNano())),
		players:          make(map[string]*entity.Player),
		enemies:          make(map[string]*entity.Enemy),
		towers:           make(map[string]*entity.Tower),
		pillars:          make(map[string]*entity.Pillar),
		units:            make(map[string]*entity.SummonedUnit),
		aggro:            make(map[string]*entity.Aggro),
		statusEffects:    make(map[string]map[entity.StatusEffectType]time.Time),
		pendingKills:     make(map[string]*entity.PendingKill),
		destroyedPillars: make(map[string]int),
		experience:       make(map[string]int),
		waves:            make(map[string]*entity.Wave),
		afterFuncs:       make(map[int]*time.Timer),
	}
}

// Mode returns the room's game mode ("" until the first player joins).
func (r *Room) Mode() entity.GameMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// Started reports whether the simulation is running.
func (r *Room) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// KillCount returns the room's PvE kill counter.
func (r *Room) KillCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.killCount
}

// PlayerCount returns the number of players currently in the room.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Empty reports whether the room has no players.
func (r *Room) Empty() bool {
	return r.PlayerCount() == 0
}

// AddPlayer joins a player to the room. The first join fixes the room's
// game mode. On PvP, the player's tower and three pillars are created and
// announced.
//
// Postcondition: Returns the created player, or ErrRoomFull /
// ErrAlreadyJoined / ErrBadMode with no state change.
func (r *Room) AddPlayer(id, name, weapon, subclass string, mode entity.GameMode) (*entity.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[id]; exists {
		return nil, ErrAlreadyJoined
	}
	if len(r.players) >= MaxPlayers {
		return nil, ErrRoomFull
	}
	if r.mode == "" {
		if !mode.Valid() {
			return nil, ErrBadMode
		}
		r.mode = mode
	}

	now := r.clock()
	p := entity.NewPlayer(id, name, weapon, subclass, r.mode, now)

	if r.mode == entity.ModePvP {
		r.setupPvPStructuresLocked(p)
	}

	r.players[id] = p

	r.emitLocked(Outbound{
		Event:           events.SPlayerJoined,
		Payload:         &events.PlayerJoined{Player: events.NewPlayerState(p)},
		ExcludePlayerID: id,
	})

	r.logger.Info("player joined",
		zap.String("player_id", id),
		zap.String("mode", string(r.mode)),
		zap.Int("players", len(r.players)),
	)
	return p, nil
}

// setupPvPStructuresLocked creates the joining player's tower and pillars
// when slots remain, positions the player at their tower, and announces the
// new structures.
func (r *Room) setupPvPStructuresLocked(p *entity.Player) {
	slot := len(r.towerOwners)
	if slot >= entity.MaxTowersPerRoom {
		return
	}
	tower := entity.NewTower(p.ID, p.Name, slot)
	r.towers[tower.ID] = tower
	r.towerOwners = append(r.towerOwners, p.ID)

	p.Position = entity.PlayerSpawnPosition(tower.Position)
	opposing := entity.TowerPosition(1 - slot)
	p.Rotation = geom.YawTo(p.Position, opposing)

	r.emitLocked(Outbound{
		Event:   events.STowerSpawned,
		Payload: &events.TowerSpawned{Tower: events.NewTowerState(tower)},
	})

	for _, pillar := range entity.NewPillars(p.ID, tower.Position) {
		r.pillars[pillar.ID] = pillar
		r.emitLocked(Outbound{
			Event:   events.SPillarSpawned,
			Payload: &events.PillarSpawned{Pillar: events.NewPillarState(pillar)},
		})
	}
}

// RemovePlayer removes a player. In PvP the player's tower and pillars are
// marked dead and announced. Removing the last player stops the simulation
// and clears all state; in-flight broadcasts drain through the transport.
//
// Postcondition: Absent ids are a no-op returning ErrNotInRoom.
func (r *Room) RemovePlayer(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[id]
	if !exists {
		return ErrNotInRoom
	}
	delete(r.players, id)

	if r.mode == entity.ModePvP {
		if tower, ok := r.towers[entity.TowerID(id)]; ok && !tower.IsDead {
			tower.IsDead = true
			tower.IsActive = false
			r.emitLocked(Outbound{
				Event:   events.STowerDestroyed,
				Payload: &events.TowerDestroyed{TowerID: tower.ID, OwnerID: id},
			})
		}
		for i := 0; i < entity.PillarsPerPlayer; i++ {
			if pillar, ok := r.pillars[entity.PillarID(id, i)]; ok && !pillar.IsDead {
				pillar.IsDead = true
				r.emitLocked(Outbound{
					Event: events.SPillarDestroyed,
					Payload: &events.PillarDestroyed{
						PillarID:       pillar.ID,
						OwnerID:        id,
						DestroyedTotal: r.destroyedPillars[id],
					},
				})
			}
		}
	}

	// Enemies chasing the departed player retarget on the next AI tick.
	for _, a := range r.aggro {
		if a.TargetPlayerID == id {
			a.TargetPlayerID = ""
		}
	}
	delete(r.pendingKills, id)

	r.emitLocked(Outbound{
		Event:   events.SPlayerLeft,
		Payload: &events.PlayerLeft{PlayerID: id, PlayerName: p.Name},
	})

	if len(r.players) == 0 {
		r.stopSimulationLocked()
	}

	r.logger.Info("player left",
		zap.String("player_id", id),
		zap.Int("players", len(r.players)),
	)
	return nil
}

// StartGame begins the room's simulation. Idempotent: the first successful
// call starts timers, later calls fail without side effects.
//
// Postcondition: Returns nil and starts mode-appropriate timers, or
// ErrNotInRoom / ErrAlreadyStarted.
func (r *Room) StartGame(initiatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[initiatorID]
	if !ok {
		return ErrNotInRoom
	}
	if r.started {
		return ErrAlreadyStarted
	}
	r.started = true
	r.startedAt = r.clock()

	switch r.mode {
	case entity.ModeMultiplayer:
		for i := 0; i < InitialEliteCount; i++ {
			r.spawnEnemyLocked(entity.EnemyElite, r.startedAt)
		}
		r.startSpawnTimersLocked()
		r.startAITickerLocked()
	case entity.ModePvP:
		r.startSummonTickerLocked()
	case entity.ModeCoop:
		r.scheduleBossSpawnLocked()
		r.startAITickerLocked()
	}

	r.emitLocked(Outbound{
		Event: events.SGameStarted,
		Payload: &events.GameStarted{
			RoomID:    r.ID,
			GameMode:  string(r.mode),
			StartedBy: p.Name,
		},
	})

	r.logger.Info("game started",
		zap.String("initiator", initiatorID),
		zap.String("mode", string(r.mode)),
	)
	return nil
}

// Destroy stops every timer and clears all state. Safe to call more than
// once.
func (r *Room) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopSimulationLocked()
}

// stopSimulationLocked cancels all periodic and one-shot timers and clears
// the entity maps. Caller must hold r.mu.
func (r *Room) stopSimulationLocked() {
	if r.stopped {
		return
	}
	r.stopped = true
	for _, stop := range r.stopFuncs {
		stop()
	}
	r.stopFuncs = nil
	for id, t := range r.afterFuncs {
		t.Stop()
		delete(r.afterFuncs, id)
	}

	r.started = false
	r.enemies = make(map[string]*entity.Enemy)
	r.towers = make(map[string]*entity.Tower)
	r.pillars = make(map[string]*entity.Pillar)
	r.units = make(map[string]*entity.SummonedUnit)
	r.aggro = make(map[string]*entity.Aggro)
	r.statusEffects = make(map[string]map[entity.StatusEffectType]time.Time)
	r.pendingKills = make(map[string]*entity.PendingKill)
	r.waves = make(map[string]*entity.Wave)
	r.deadUnitQueue = nil

	r.logger.Info("simulation stopped")
}

// emitLocked enqueues an outbound event. Caller must hold r.mu; the emit
// function must not call back into the room.
func (r *Room) emitLocked(out Outbound) {
	r.emit(r.ID, out)
}

// startTickerLocked launches a cancellable ticker goroutine calling fn with
// the current time. Caller must hold r.mu.
func (r *Room) startTickerLocked(interval time.Duration, fn func(now time.Time)) {
	if r.manual {
		return
	}
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn(r.clock())
			case <-done:
				return
			}
		}
	}()
	r.stopFuncs = append(r.stopFuncs, func() {
		once.Do(func() { close(done) })
	})
}

// afterLocked schedules fn to run once after d, under the room mutex. The
// handle is tracked so Destroy can cancel it. Caller must hold r.mu.
func (r *Room) afterLocked(d time.Duration, fn func()) {
	if r.manual {
		return
	}
	id := r.nextAfterID
	r.nextAfterID++
	r.afterFuncs[id] = time.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.afterFuncs, id)
		if r.stopped {
			return
		}
		fn()
	})
}

// startAITickerLocked starts the 100 ms enemy AI loop.
func (r *Room) startAITickerLocked() {
	r.startTickerLocked(AITickInterval, r.AITick)
}

// startSummonTickerLocked starts the 60 Hz summoned-unit loop.
func (r *Room) startSummonTickerLocked() {
	r.startTickerLocked(SummonTickInterval, r.SummonTick)
}

// Player returns the live player record for id.
//
// The returned pointer is shared; callers outside this package must treat it
// as read-only and use command methods for writes.
func (r *Room) Player(id string) (*entity.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	return p, ok
}

// HasPlayer reports whether id is a member of the room.
func (r *Room) HasPlayer(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.players[id]
	return ok
}

// PlayerIDs returns a copy of the member id set.
func (r *Room) PlayerIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot composes the point-in-time room state sent to a joining player.
func (r *Room) Snapshot(forPlayerID string) *events.RoomJoined {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &events.RoomJoined{
		RoomID:        r.ID,
		PlayerID:      forPlayerID,
		GameMode:      string(r.mode),
		GameStarted:   r.started,
		KillCount:     r.killCount,
		Players:       make([]events.PlayerState, 0, len(r.players)),
		Enemies:       make([]events.EnemyState, 0, len(r.enemies)),
		Towers:        make([]events.TowerState, 0, len(r.towers)),
		Pillars:       make([]events.PillarState, 0, len(r.pillars)),
		SummonedUnits: make([]events.UnitState, 0, len(r.units)),
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, events.NewPlayerState(p))
	}
	for _, e := range r.enemies {
		if !e.IsDying {
			snap.Enemies = append(snap.Enemies, events.NewEnemyState(e))
		}
	}
	for _, t := range r.towers {
		snap.Towers = append(snap.Towers, events.NewTowerState(t))
	}
	for _, p := range r.pillars {
		snap.Pillars = append(snap.Pillars, events.NewPillarState(p))
	}
	for _, u := range r.units {
		if u.IsActive && !u.IsDead {
			snap.SummonedUnits = append(snap.SummonedUnits, events.NewUnitState(u))
		}
	}
	return snap
}

// Preview returns the headline state for the preview-room query.
func (r *Room) Preview() *events.RoomPreview {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &events.RoomPreview{
		RoomID:      r.ID,
		GameMode:    string(r.mode),
		GameStarted: r.started,
		PlayerCount: len(r.players),
		KillCount:   r.killCount,
		Exists:      true,
	}
}

// UpdatePlayerPosition applies a movement report and fans the delta out to
// the rest of the room.
//
// Postcondition: absent players are a silent no-op.
func (r *Room) UpdatePlayerPosition(id string, pos geom.Vector3, rotation float64, weapon string, health *int, movementDir *geom.Vector3) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return
	}
	p.Position = pos
	p.Rotation = rotation
	if weapon != "" {
		p.Weapon = weapon
	}
	if health != nil {
		p.SetHealth(*health)
	}
	if movementDir != nil {
		p.MovementDirection = *movementDir
	}
	p.LastUpdate = r.clock()

	r.emitLocked(Outbound{
		Event: events.SPlayerMoved,
		Payload: &events.PlayerMoved{
			PlayerID:          id,
			Position:          p.Position,
			Rotation:          p.Rotation,
			MovementDirection: p.MovementDirection,
			Weapon:            p.Weapon,
			Health:            p.Health,
		},
		ExcludePlayerID: id,
	})
}

// UpdatePlayerWeapon applies a weapon swap and announces it.
func (r *Room) UpdatePlayerWeapon(id, weapon, subclass string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return
	}
	p.Weapon = weapon
	if subclass != "" {
		p.Subclass = subclass
	}

	r.emitLocked(Outbound{
		Event: events.SPlayerWeaponChanged,
		Payload: &events.PlayerWeaponChanged{
			PlayerID: id,
			Weapon:   weapon,
			Subclass: subclass,
		},
		ExcludePlayerID: id,
	})
}

// UpdatePlayerHealth applies a self-reported health write, clamped.
func (r *Room) UpdatePlayerHealth(id string, health int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return
	}
	p.SetHealth(health)

	r.emitLocked(Outbound{
		Event: events.SPlayerHealthUpdated,
		Payload: &events.PlayerHealthUpdated{
			PlayerID:  id,
			Health:    p.Health,
			MaxHealth: p.MaxHealth,
		},
		ExcludePlayerID: id,
	})
}

// UpdatePlayerShield applies a shield write. Broadcast includes the sender
// so all clients converge on the same value.
func (r *Room) UpdatePlayerShield(id string, shield int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return
	}
	if shield < 0 {
		shield = 0
	}
	p.Shield = shield

	r.emitLocked(Outbound{
		Event:   events.SPlayerShieldChanged,
		Payload: &events.PlayerShieldChangedEvt{PlayerID: id, Shield: shield},
	})
}

// UpdatePlayerEssence applies an essence write, broadcast to everyone
// including the sender.
func (r *Room) UpdatePlayerEssence(id string, essence int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return
	}
	if essence < 0 {
		essence = 0
	}
	p.Essence = essence

	r.emitLocked(Outbound{
		Event:   events.SPlayerEssence,
		Payload: &events.PlayerEssenceChangedEvt{PlayerID: id, Essence: essence},
	})
}

// UpdatePlayerLevel applies a level write; in level-scaled modes max health
// follows the level. Broadcast includes the sender.
func (r *Room) UpdatePlayerLevel(id string, level int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return
	}
	if level < 1 {
		level = 1
	}
	if level > entity.MaxLevel {
		level = entity.MaxLevel
	}
	p.Level = level
	if r.mode == entity.ModePvP || r.mode == entity.ModeCoop {
		p.ScaleMaxHealth(entity.LevelMaxHealth(level))
	}

	r.emitLocked(Outbound{
		Event: events.SPlayerLevelChanged,
		Payload: &events.PlayerLevelChangedEvt{
			PlayerID:  id,
			Level:     level,
			MaxHealth: p.MaxHealth,
		},
	})
}

// RecordPurchase adds an item to the player's purchase set. Broadcast
// includes the sender.
func (r *Room) RecordPurchase(id, itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok || itemID == "" {
		return
	}
	p.Purchased[itemID] = true

	r.emitLocked(Outbound{
		Event:   events.SPlayerPurchase,
		Payload: &events.PlayerPurchaseEvt{PlayerID: id, ItemID: itemID},
	})
}

// Tower returns a copy of one tower's state.
func (r *Room) Tower(towerID string) (entity.Tower, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.towers[towerID]
	if !ok {
		return entity.Tower{}, false
	}
	return *t, true
}

// Towers returns a defensive copy of the tower list.
func (r *Room) Towers() []entity.Tower {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Tower, 0, len(r.towers))
	for _, t := range r.towers {
		out = append(out, *t)
	}
	return out
}

// Pillar returns a copy of one pillar's state.
func (r *Room) Pillar(pillarID string) (entity.Pillar, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pillars[pillarID]
	if !ok {
		return entity.Pillar{}, false
	}
	return *p, true
}

// Pillars returns a defensive copy of the pillar list.
func (r *Room) Pillars() []entity.Pillar {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Pillar, 0, len(r.pillars))
	for _, p := range r.pillars {
		out = append(out, *p)
	}
	return out
}

// DestroyedPillarCount reports how many of ownerID's pillars have fallen.
func (r *Room) DestroyedPillarCount(ownerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyedPillars[ownerID]
}

// SetPlayerStealth toggles stealth flags. Broadcast includes the sender.
func (r *Room) SetPlayerStealth(id string, stealthing, invisible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return
	}
	p.Stealthing = stealthing
	p.Invisible = invisible
}
