package events

import (
	"encoding/json"
	"fmt"

	"github.com/voidhaven/arena/internal/game/geom"
)

// Client payload structs. Every inbound payload that addresses a room carries
// roomId; the router validates it before any handler runs.

// JoinRoom asks to join (and lazily create) a room.
type JoinRoom struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Weapon     string `json:"weapon"`
	Subclass   string `json:"subclass,omitempty"`
	GameMode   string `json:"gameMode"`
}

// StartGame starts the room's simulation.
type StartGame struct {
	RoomID string `json:"roomId"`
}

// PlayerUpdate reports the sender's position and optional state deltas.
type PlayerUpdate struct {
	RoomID            string        `json:"roomId"`
	Position          geom.Vector3  `json:"position"`
	Rotation          float64       `json:"rotation"`
	Weapon            string        `json:"weapon,omitempty"`
	Health            *int          `json:"health,omitempty"`
	MovementDirection *geom.Vector3 `json:"movementDirection,omitempty"`
}

// WeaponChanged reports a weapon or subclass swap.
type WeaponChanged struct {
	RoomID   string `json:"roomId"`
	Weapon   string `json:"weapon"`
	Subclass string `json:"subclass,omitempty"`
}

// Passthrough is the minimal shape of visual-only events: the router checks
// room membership and re-broadcasts the original body untouched.
type Passthrough struct {
	RoomID string `json:"roomId"`
}

// PlayerHealthChanged is the sender's self-reported health write.
type PlayerHealthChanged struct {
	RoomID string `json:"roomId"`
	Health int    `json:"health"`
}

// PlayerShieldChanged updates the sender's shield value.
type PlayerShieldChanged struct {
	RoomID string `json:"roomId"`
	Shield int    `json:"shield"`
}

// PlayerEssenceChanged updates the sender's essence total.
type PlayerEssenceChanged struct {
	RoomID  string `json:"roomId"`
	Essence int    `json:"essence"`
}

// PlayerLevelChanged updates the sender's level.
type PlayerLevelChanged struct {
	RoomID string `json:"roomId"`
	Level  int    `json:"level"`
}

// PlayerPurchase records an item purchase.
type PlayerPurchase struct {
	RoomID string `json:"roomId"`
	ItemID string `json:"itemId"`
	Cost   int    `json:"cost,omitempty"`
}

// PlayerDied reports the sender's own death (non-PvP arbitration path).
type PlayerDied struct {
	RoomID     string `json:"roomId"`
	DamageType string `json:"damageType,omitempty"`
}

// PlayerRespawn confirms the sender has respawned.
type PlayerRespawn struct {
	RoomID   string        `json:"roomId"`
	Position *geom.Vector3 `json:"position,omitempty"`
}

// PlayerDamage applies server-arbitrated PvP damage to a player.
type PlayerDamage struct {
	RoomID         string `json:"roomId"`
	TargetPlayerID string `json:"targetPlayerId"`
	Damage         int    `json:"damage"`
	DamageType     string `json:"damageType,omitempty"`
	IsCritical     bool   `json:"isCritical,omitempty"`
}

// HealAllies heals every living ally in the room.
type HealAllies struct {
	RoomID string `json:"roomId"`
	Amount int    `json:"amount"`
}

// HealNearbyAllies heals living allies within a radius of the sender.
type HealNearbyAllies struct {
	RoomID string  `json:"roomId"`
	Radius float64 `json:"radius"`
	Amount int     `json:"amount"`
}

// EnemyDamage applies server-arbitrated damage to a PvE enemy.
type EnemyDamage struct {
	RoomID         string `json:"roomId"`
	EnemyID        string `json:"enemyId"`
	Damage         int    `json:"damage"`
	SourcePlayerID string `json:"sourcePlayerId,omitempty"`
}

// EnemyPositionUpdate is a client-side correction for a dragged enemy.
type EnemyPositionUpdate struct {
	RoomID   string       `json:"roomId"`
	EnemyID  string       `json:"enemyId"`
	Position geom.Vector3 `json:"position"`
	Rotation float64      `json:"rotation"`
}

// ApplyStatusEffect applies a timed debuff to an enemy.
type ApplyStatusEffect struct {
	RoomID     string `json:"roomId"`
	EnemyID    string `json:"enemyId"`
	EffectType string `json:"effectType"`
	DurationMs int    `json:"durationMs"`
}

// GetEnemyStatus queries an enemy's active effects.
type GetEnemyStatus struct {
	RoomID  string `json:"roomId"`
	EnemyID string `json:"enemyId"`
}

// TowerDamage applies damage to a PvP tower.
type TowerDamage struct {
	RoomID         string `json:"roomId"`
	TowerID        string `json:"towerId"`
	Damage         int    `json:"damage"`
	SourcePlayerID string `json:"sourcePlayerId,omitempty"`
	DamageType     string `json:"damageType,omitempty"`
}

// PillarDamage applies damage to a PvP pillar.
type PillarDamage struct {
	RoomID         string `json:"roomId"`
	PillarID       string `json:"pillarId"`
	Damage         int    `json:"damage"`
	SourcePlayerID string `json:"sourcePlayerId,omitempty"`
}

// SummonedUnitDamage applies damage to a summoned unit.
type SummonedUnitDamage struct {
	RoomID         string `json:"roomId"`
	UnitID         string `json:"unitId"`
	UnitOwnerID    string `json:"unitOwnerId"`
	Damage         int    `json:"damage"`
	SourcePlayerID string `json:"sourcePlayerId"`
}

// ChatMessage is a room-scoped chat line.
type ChatMessage struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// PreviewRoom queries a room's headline state without joining.
type PreviewRoom struct {
	RoomID string `json:"roomId"`
}

// ParseClient decodes the data body for a known client event name into its
// typed payload. Unrecognized event names are rejected at this boundary.
//
// Postcondition: Returns a pointer to a payload struct, or an error.
func ParseClient(event string, data json.RawMessage) (any, error) {
	var payload any
	switch event {
	case CJoinRoom:
		payload = &JoinRoom{}
	case CStartGame:
		payload = &StartGame{}
	case CLeaveRoom, CHeartbeat, CPing:
		// No body required.
		return nil, nil
	case CPlayerUpdate:
		payload = &PlayerUpdate{}
	case CWeaponChanged:
		payload = &WeaponChanged{}
	case CPlayerAttack, CPlayerAbility, CPlayerAnimation, CPlayerEffect,
		CPlayerDebuff, CPlayerStealth, CPlayerKnockback, CPlayerTornado,
		CPlayerDeathEffect, CPlayerHealing, CPlayerRespawned:
		payload = &Passthrough{}
	case CPlayerHealthChange:
		payload = &PlayerHealthChanged{}
	case CPlayerShieldChange:
		payload = &PlayerShieldChanged{}
	case CPlayerEssence:
		payload = &PlayerEssenceChanged{}
	case CPlayerLevelChange:
		payload = &PlayerLevelChanged{}
	case CPlayerPurchase:
		payload = &PlayerPurchase{}
	case CPlayerDied:
		payload = &PlayerDied{}
	case CPlayerRespawn:
		payload = &PlayerRespawn{}
	case CPlayerDamage:
		payload = &PlayerDamage{}
	case CHealAllies:
		payload = &HealAllies{}
	case CHealNearbyAllies:
		payload = &HealNearbyAllies{}
	case CEnemyDamage:
		payload = &EnemyDamage{}
	case CEnemyPosition:
		payload = &EnemyPositionUpdate{}
	case CApplyStatusEffect:
		payload = &ApplyStatusEffect{}
	case CGetEnemyStatus:
		payload = &GetEnemyStatus{}
	case CTowerDamage:
		payload = &TowerDamage{}
	case CPillarDamage:
		payload = &PillarDamage{}
	case CSummonedUnitDamage:
		payload = &SummonedUnitDamage{}
	case CChatMessage:
		payload = &ChatMessage{}
	case CPreviewRoom:
		payload = &PreviewRoom{}
	default:
		return nil, fmt.Errorf("unknown client event %q", event)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, payload); err != nil {
			return nil, fmt.Errorf("parsing %s payload: %w", event, err)
		}
	}
	return payload, nil
}
