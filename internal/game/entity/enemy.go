package entity

import (
	"time"

	"github.com/voidhaven/arena/internal/game/geom"
)

// EnemyType identifies a PvE enemy archetype.
type EnemyType string

const (
	EnemyElite        EnemyType = "elite"
	EnemySkeleton     EnemyType = "skeleton"
	EnemyMage         EnemyType = "mage"
	EnemyReaper       EnemyType = "reaper"
	EnemyAbomination  EnemyType = "abomination"
	EnemyDeathKnight  EnemyType = "death-knight"
	EnemyAscendant    EnemyType = "ascendant"
	EnemyFallenTitan  EnemyType = "fallen-titan"
	EnemyBoss         EnemyType = "boss"
	EnemyBossSkeleton EnemyType = "boss-skeleton"
)

// Enemy is a server-controlled PvE combatant.
//
// Invariant: Health >= 0. Once IsDying is set no further damage is accepted.
type Enemy struct {
	ID        string
	Type      EnemyType
	Position  geom.Vector3
	Rotation  float64
	Health    int
	MaxHealth int
	SpawnedAt time.Time
	IsDying   bool
	DeathTime time.Time
}

// IsBoss reports whether the enemy is the coop boss.
func (e *Enemy) IsBoss() bool {
	return e.Type == EnemyBoss
}

// Aggro tracks which player a PvE enemy is pursuing and how committed it is.
type Aggro struct {
	TargetPlayerID string
	Score          int
	LastUpdate     time.Time
}

// AggroDamageBonus is added to an enemy's aggro score each time a player
// damages it; the attacker becomes the enemy's target.
const AggroDamageBonus = 50

// EnemyRemoveDelay is how long a dying enemy lingers before removal.
// Boss skeletons are removed immediately.
const EnemyRemoveDelay = 1500 * time.Millisecond

// LevelForKillCount maps a room's cumulative kill count to the PvE
// difficulty level 1..5.
//
// Postcondition: result in [1, 5].
func LevelForKillCount(kills int) int {
	switch {
	case kills < 10:
		return 1
	case kills < 25:
		return 2
	case kills < 45:
		return 3
	case kills < 70:
		return 4
	default:
		return 5
	}
}
