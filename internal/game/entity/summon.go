package entity

import (
	"time"

	"github.com/voidhaven/arena/internal/game/geom"
)

// Summoned-unit tuning. Each tower spawns WaveSize units per cycle; units
// that live past UnitLifetime expire on the next simulation tick.
const (
	WaveSize           = 3
	WaveInterval       = 45 * time.Second
	UnitLifetime       = 120 * time.Second
	UnitAttackRange    = 4.0
	UnitAttackCooldown = 2 * time.Second
	UnitMoveSpeed      = 2.25
	TargetSearchEvery  = 500 * time.Millisecond
	// UnitArriveEpsilon is how close a unit must get to its target position
	// before it snaps and stops moving.
	UnitArriveEpsilon = 0.5

	NormalUnitHealth    = 1000
	NormalUnitMinDamage = 40
	NormalUnitMaxDamage = 80

	EliteUnitHealth = 1500
	EliteUnitDamage = 120

	// MaxEliteUnitsPerWave caps elite escalation regardless of how many
	// opposing pillars have fallen.
	MaxEliteUnitsPerWave = 3

	// FallbackAdvanceDistance is how far a unit pushes forward when no
	// opposing tower exists to path toward.
	FallbackAdvanceDistance = 20.0
)

// SummonedUnit is a tower-spawned combatant that seeks enemy units, then the
// opposing tower.
//
// Invariant: a unit never targets entities owned by its own owner.
type SummonedUnit struct {
	UnitID             string
	OwnerID            string
	Position           geom.Vector3
	TargetPosition     *geom.Vector3
	CurrentTarget      string
	Health             int
	MaxHealth          int
	AttackRange        float64
	AttackDamage       int
	AttackCooldown     time.Duration
	LastAttackAt       time.Time
	MoveSpeed          float64
	LastTargetSearchAt time.Time
	IsActive           bool
	IsDead             bool
	IsElite            bool
	SummonTime         time.Time
	Lifetime           time.Duration
}

// Expired reports whether the unit should be culled: dead, drained, or past
// its lifetime.
func (u *SummonedUnit) Expired(now time.Time) bool {
	if u.IsDead || u.Health <= 0 {
		return true
	}
	return now.Sub(u.SummonTime) >= u.Lifetime
}

// Wave tracks the units spawned together from one tower in one spawn cycle.
// A wave completes when its unit set becomes empty.
type Wave struct {
	WaveID    string
	OwnerID   string
	Units     map[string]bool
	StartTime time.Time
}

// NewWave creates an empty wave owned by ownerID.
func NewWave(waveID, ownerID string, now time.Time) *Wave {
	return &Wave{
		WaveID:    waveID,
		OwnerID:   ownerID,
		Units:     make(map[string]bool),
		StartTime: now,
	}
}
