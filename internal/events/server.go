package events

import (
	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/geom"
)

// Snapshot shapes shared by join snapshots and per-entity broadcasts.

// PlayerState is the broadcastable view of a player.
type PlayerState struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Position          geom.Vector3 `json:"position"`
	Rotation          float64      `json:"rotation"`
	MovementDirection geom.Vector3 `json:"movementDirection"`
	Weapon            string       `json:"weapon"`
	Subclass          string       `json:"subclass,omitempty"`
	Level             int          `json:"level"`
	Health            int          `json:"health"`
	MaxHealth         int          `json:"maxHealth"`
	Essence           int          `json:"essence"`
	Shield            int          `json:"shield"`
	Invisible         bool         `json:"invisible"`
	Stealthing        bool         `json:"stealthing"`
}

// NewPlayerState snapshots a player for broadcast.
func NewPlayerState(p *entity.Player) PlayerState {
	return PlayerState{
		ID:                p.ID,
		Name:              p.Name,
		Position:          p.Position,
		Rotation:          p.Rotation,
		MovementDirection: p.MovementDirection,
		Weapon:            p.Weapon,
		Subclass:          p.Subclass,
		Level:             p.Level,
		Health:            p.Health,
		MaxHealth:         p.MaxHealth,
		Essence:           p.Essence,
		Shield:            p.Shield,
		Invisible:         p.Invisible,
		Stealthing:        p.Stealthing,
	}
}

// EnemyState is the broadcastable view of a PvE enemy.
type EnemyState struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Position  geom.Vector3 `json:"position"`
	Rotation  float64      `json:"rotation"`
	Health    int          `json:"health"`
	MaxHealth int          `json:"maxHealth"`
}

// NewEnemyState snapshots an enemy for broadcast.
func NewEnemyState(e *entity.Enemy) EnemyState {
	return EnemyState{
		ID:        e.ID,
		Type:      string(e.Type),
		Position:  e.Position,
		Rotation:  e.Rotation,
		Health:    e.Health,
		MaxHealth: e.MaxHealth,
	}
}

// TowerState is the broadcastable view of a PvP tower.
type TowerState struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"ownerId"`
	OwnerName string       `json:"ownerName"`
	Position  geom.Vector3 `json:"position"`
	Health    int          `json:"health"`
	MaxHealth int          `json:"maxHealth"`
	IsDead    bool         `json:"isDead"`
	IsActive  bool         `json:"isActive"`
}

// NewTowerState snapshots a tower for broadcast.
func NewTowerState(t *entity.Tower) TowerState {
	return TowerState{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		OwnerName: t.OwnerName,
		Position:  t.Position,
		Health:    t.Health,
		MaxHealth: t.MaxHealth,
		IsDead:    t.IsDead,
		IsActive:  t.IsActive,
	}
}

// PillarState is the broadcastable view of a PvP pillar.
type PillarState struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"ownerId"`
	Index     int          `json:"index"`
	Position  geom.Vector3 `json:"position"`
	Health    int          `json:"health"`
	MaxHealth int          `json:"maxHealth"`
	IsDead    bool         `json:"isDead"`
}

// NewPillarState snapshots a pillar for broadcast.
func NewPillarState(p *entity.Pillar) PillarState {
	return PillarState{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Index:     p.Index,
		Position:  p.Position,
		Health:    p.Health,
		MaxHealth: p.MaxHealth,
		IsDead:    p.IsDead,
	}
}

// UnitState is the broadcastable view of a summoned unit.
type UnitState struct {
	UnitID         string        `json:"unitId"`
	OwnerID        string        `json:"ownerId"`
	Position       geom.Vector3  `json:"position"`
	TargetPosition *geom.Vector3 `json:"targetPosition,omitempty"`
	CurrentTarget  string        `json:"currentTarget,omitempty"`
	Health         int           `json:"health"`
	MaxHealth      int           `json:"maxHealth"`
	AttackDamage   int           `json:"attackDamage"`
	IsElite        bool          `json:"isElite"`
}

// NewUnitState snapshots a summoned unit for broadcast.
func NewUnitState(u *entity.SummonedUnit) UnitState {
	return UnitState{
		UnitID:         u.UnitID,
		OwnerID:        u.OwnerID,
		Position:       u.Position,
		TargetPosition: u.TargetPosition,
		CurrentTarget:  u.CurrentTarget,
		Health:         u.Health,
		MaxHealth:      u.MaxHealth,
		AttackDamage:   u.AttackDamage,
		IsElite:        u.IsElite,
	}
}

// Server payload structs. All embed Stamp; the emit path fills Timestamp.

// RoomJoined is the point-in-time snapshot sent to a joining player.
type RoomJoined struct {
	Stamp
	RoomID        string        `json:"roomId"`
	PlayerID      string        `json:"playerId"`
	GameMode      string        `json:"gameMode"`
	GameStarted   bool          `json:"gameStarted"`
	KillCount     int           `json:"killCount"`
	Players       []PlayerState `json:"players"`
	Enemies       []EnemyState  `json:"enemies"`
	Towers        []TowerState  `json:"towers"`
	Pillars       []PillarState `json:"pillars"`
	SummonedUnits []UnitState   `json:"summonedUnits"`
}

// RoomPreview is the reply to preview-room.
type RoomPreview struct {
	Stamp
	RoomID      string `json:"roomId"`
	GameMode    string `json:"gameMode"`
	GameStarted bool   `json:"gameStarted"`
	PlayerCount int    `json:"playerCount"`
	KillCount   int    `json:"killCount"`
	Exists      bool   `json:"exists"`
}

// RoomFull is the single-shot rejection for a sixth join.
type RoomFull struct {
	Stamp
	RoomID string `json:"roomId"`
}

// PlayerJoined announces a newcomer to the rest of the room.
type PlayerJoined struct {
	Stamp
	Player PlayerState `json:"player"`
}

// PlayerLeft announces a departure.
type PlayerLeft struct {
	Stamp
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// PlayerMoved is the movement delta fanned out on player-update.
type PlayerMoved struct {
	Stamp
	PlayerID          string       `json:"playerId"`
	Position          geom.Vector3 `json:"position"`
	Rotation          float64      `json:"rotation"`
	MovementDirection geom.Vector3 `json:"movementDirection"`
	Weapon            string       `json:"weapon,omitempty"`
	Health            int          `json:"health"`
}

// PlayerWeaponChanged announces a weapon swap.
type PlayerWeaponChanged struct {
	Stamp
	PlayerID string `json:"playerId"`
	Weapon   string `json:"weapon"`
	Subclass string `json:"subclass,omitempty"`
}

// PlayerHealthUpdated is the authoritative health broadcast.
type PlayerHealthUpdated struct {
	Stamp
	PlayerID  string `json:"playerId"`
	Health    int    `json:"health"`
	MaxHealth int    `json:"maxHealth"`
}

// PlayerShieldChangedEvt mirrors a shield write to the room.
type PlayerShieldChangedEvt struct {
	Stamp
	PlayerID string `json:"playerId"`
	Shield   int    `json:"shield"`
}

// PlayerEssenceChangedEvt mirrors an essence write to the room.
type PlayerEssenceChangedEvt struct {
	Stamp
	PlayerID string `json:"playerId"`
	Essence  int    `json:"essence"`
}

// PlayerLevelChangedEvt mirrors a level write to the room.
type PlayerLevelChangedEvt struct {
	Stamp
	PlayerID  string `json:"playerId"`
	Level     int    `json:"level"`
	MaxHealth int    `json:"maxHealth"`
}

// PlayerPurchaseEvt mirrors a purchase to the room.
type PlayerPurchaseEvt struct {
	Stamp
	PlayerID string `json:"playerId"`
	ItemID   string `json:"itemId"`
}

// PlayerDamaged reports the authoritative result of PvP player damage.
type PlayerDamaged struct {
	Stamp
	PlayerID     string `json:"playerId"`
	FromPlayerID string `json:"fromPlayerId"`
	Damage       int    `json:"damage"`
	NewHealth    int    `json:"newHealth"`
	MaxHealth    int    `json:"maxHealth"`
	DamageType   string `json:"damageType,omitempty"`
	IsCritical   bool   `json:"isCritical,omitempty"`
	WasKilled    bool   `json:"wasKilled"`
}

// PlayerKill announces a PvP killing blow.
type PlayerKill struct {
	Stamp
	KillerID   string `json:"killerId"`
	KillerName string `json:"killerName"`
	VictimID   string `json:"victimId"`
	VictimName string `json:"victimName"`
	DamageType string `json:"damageType,omitempty"`
}

// PlayerDiedEvt announces a death reported by the player itself.
type PlayerDiedEvt struct {
	Stamp
	PlayerID   string `json:"playerId"`
	DamageType string `json:"damageType,omitempty"`
}

// PlayerRespawned announces a respawn with restored health.
type PlayerRespawned struct {
	Stamp
	PlayerID  string        `json:"playerId"`
	Health    int           `json:"health"`
	MaxHealth int           `json:"maxHealth"`
	Position  *geom.Vector3 `json:"position,omitempty"`
}

// PlayerExperience awards experience to one player.
type PlayerExperience struct {
	Stamp
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
	Source   string `json:"source"`
	Detail   string `json:"detail,omitempty"`
}

// AllyHealed reports one ally's heal result.
type AllyHealed struct {
	Stamp
	PlayerID     string `json:"playerId"`
	FromPlayerID string `json:"fromPlayerId"`
	Amount       int    `json:"amount"`
	Health       int    `json:"health"`
	MaxHealth    int    `json:"maxHealth"`
}

// EnemySpawned announces a new PvE enemy.
type EnemySpawned struct {
	Stamp
	Enemy EnemyState `json:"enemy"`
}

// EnemyMoved is the per-AI-tick movement delta.
type EnemyMoved struct {
	Stamp
	EnemyID  string       `json:"enemyId"`
	Position geom.Vector3 `json:"position"`
	Rotation float64      `json:"rotation"`
}

// EnemyDamaged reports the authoritative result of enemy damage.
type EnemyDamaged struct {
	Stamp
	EnemyID      string `json:"enemyId"`
	Damage       int    `json:"damage"`
	NewHealth    int    `json:"newHealth"`
	MaxHealth    int    `json:"maxHealth"`
	WasKilled    bool   `json:"wasKilled"`
	FromPlayerID string `json:"fromPlayerId,omitempty"`
}

// EnemyRemoved removes an enemy from client views.
type EnemyRemoved struct {
	Stamp
	EnemyID string `json:"enemyId"`
}

// EnemyStatusEffect announces an applied debuff.
type EnemyStatusEffect struct {
	Stamp
	EnemyID    string `json:"enemyId"`
	EffectType string `json:"effectType"`
	DurationMs int    `json:"durationMs"`
}

// EnemyStatusResponse answers get-enemy-status.
type EnemyStatusResponse struct {
	Stamp
	EnemyID string           `json:"enemyId"`
	Effects map[string]int64 `json:"effects"`
}

// KillCountUpdated reports the room's PvE kill counter.
type KillCountUpdated struct {
	Stamp
	KillCount int    `json:"killCount"`
	KilledBy  string `json:"killedBy,omitempty"`
}

// TowerSpawned announces a PvP tower.
type TowerSpawned struct {
	Stamp
	Tower TowerState `json:"tower"`
}

// TowerDamaged reports tower damage.
type TowerDamaged struct {
	Stamp
	TowerID      string `json:"towerId"`
	Damage       int    `json:"damage"`
	NewHealth    int    `json:"newHealth"`
	MaxHealth    int    `json:"maxHealth"`
	WasKilled    bool   `json:"wasKilled"`
	FromPlayerID string `json:"fromPlayerId,omitempty"`
	DamageType   string `json:"damageType,omitempty"`
}

// TowerDestroyed removes a tower from client views.
type TowerDestroyed struct {
	Stamp
	TowerID string `json:"towerId"`
	OwnerID string `json:"ownerId"`
}

// PillarSpawned announces a PvP pillar.
type PillarSpawned struct {
	Stamp
	Pillar PillarState `json:"pillar"`
}

// PillarDamaged reports pillar damage.
type PillarDamaged struct {
	Stamp
	PillarID     string `json:"pillarId"`
	Damage       int    `json:"damage"`
	NewHealth    int    `json:"newHealth"`
	MaxHealth    int    `json:"maxHealth"`
	WasKilled    bool   `json:"wasKilled"`
	FromPlayerID string `json:"fromPlayerId,omitempty"`
}

// PillarDestroyed removes a pillar and reports the escalation count.
type PillarDestroyed struct {
	Stamp
	PillarID       string `json:"pillarId"`
	OwnerID        string `json:"ownerId"`
	DestroyedByID  string `json:"destroyedById,omitempty"`
	DestroyedTotal int    `json:"destroyedTotal"`
}

// SummonedUnitsUpdated is the throttled batched unit snapshot.
type SummonedUnitsUpdated struct {
	Stamp
	Units []UnitState `json:"units"`
}

// SummonedUnitDamaged reports unit damage.
type SummonedUnitDamaged struct {
	Stamp
	UnitID       string `json:"unitId"`
	OwnerID      string `json:"ownerId"`
	Damage       int    `json:"damage"`
	NewHealth    int    `json:"newHealth"`
	MaxHealth    int    `json:"maxHealth"`
	WasKilled    bool   `json:"wasKilled"`
	FromPlayerID string `json:"fromPlayerId,omitempty"`
}

// WaveCompleted announces that a wave's unit set emptied.
type WaveCompleted struct {
	Stamp
	WaveID           string `json:"waveId"`
	DefeatedPlayerID string `json:"defeatedPlayerId,omitempty"`
	WinnerPlayerID   string `json:"winnerPlayerId,omitempty"`
}

// GameStarted announces the simulation start.
type GameStarted struct {
	Stamp
	RoomID    string `json:"roomId"`
	GameMode  string `json:"gameMode"`
	StartedBy string `json:"startedBy"`
}

// StartGameSuccess confirms a start-game request to its sender.
type StartGameSuccess struct {
	Stamp
	RoomID string `json:"roomId"`
}

// StartGameFailed rejects a start-game request.
type StartGameFailed struct {
	Stamp
	RoomID string `json:"roomId"`
	Error  string `json:"error"`
}

// BossSpawned announces the coop boss.
type BossSpawned struct {
	Stamp
	Enemy EnemyState `json:"enemy"`
}

// BossDefeated announces the coop boss kill.
type BossDefeated struct {
	Stamp
	EnemyID  string `json:"enemyId"`
	KilledBy string `json:"killedBy,omitempty"`
}

// ChatMessageEvt fans a chat line out to the room.
type ChatMessageEvt struct {
	Stamp
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

// Pong answers ping.
type Pong struct {
	Stamp
}
