package entity

import (
	"fmt"
	"math"
	"time"

	"github.com/voidhaven/arena/internal/game/geom"
)

// PvP arena geometry. Towers sit on a ring inside the map edge, directly
// opposite each other; each tower is screened by three pillars placed behind
// it along the center-to-tower axis.
const (
	MapRadius         = 29.0
	TowerRingRadius   = 0.6*MapRadius + 3 // ≈ 20.4
	PillarBackOffset  = 6.0
	PillarSideSpacing = 8.5
	PlayerSpawnRadius = 3.5

	TowerMaxHealth  = 10000
	PillarMaxHealth = 4000

	// TowerRemoveDelay is how long a destroyed tower lingers so clients can
	// play the destruction broadcast before it vanishes from snapshots.
	TowerRemoveDelay = time.Second

	// MaxTowersPerRoom and PillarsPerPlayer bound PvP structure counts.
	MaxTowersPerRoom = 2
	PillarsPerPlayer = 3
)

// Tower is a PvP player's base structure. Destroying the opposing tower is
// the win condition; summoned units path toward it by default.
//
// Invariant: at most MaxTowersPerRoom towers exist per room; only opponents
// may damage a tower.
type Tower struct {
	ID        string
	OwnerID   string
	OwnerName string
	Position  geom.Vector3
	Health    int
	MaxHealth int
	IsDead    bool
	IsActive  bool
}

// TowerID returns the canonical tower id for a player.
func TowerID(ownerID string) string {
	return fmt.Sprintf("tower_%s", ownerID)
}

// NewTower creates a live tower for ownerID at the ring slot.
//
// Precondition: slot in [0, MaxTowersPerRoom).
func NewTower(ownerID, ownerName string, slot int) *Tower {
	return &Tower{
		ID:        TowerID(ownerID),
		OwnerID:   ownerID,
		OwnerName: ownerName,
		Position:  TowerPosition(slot),
		Health:    TowerMaxHealth,
		MaxHealth: TowerMaxHealth,
		IsActive:  true,
	}
}

// TowerPosition returns the ring position for a tower slot. Slot 0 and 1
// face each other across the arena center.
func TowerPosition(slot int) geom.Vector3 {
	angle := float64(slot) * math.Pi
	return geom.OnCircle(geom.Vector3{}, angle, TowerRingRadius)
}

// Pillar is one of the three structures screening a PvP tower. Destroying an
// opponent's pillars escalates the destroyer's future waves with elite units.
//
// Invariant: exactly PillarsPerPlayer pillars per PvP player; the owner can
// never damage their own pillars.
type Pillar struct {
	ID        string
	OwnerID   string
	Index     int
	Position  geom.Vector3
	Health    int
	MaxHealth int
	IsDead    bool
}

// PillarID returns the canonical pillar id for a player and index.
func PillarID(ownerID string, index int) string {
	return fmt.Sprintf("pillar_%s_%d", ownerID, index)
}

// NewPillars creates the three pillars screening the tower at towerPos.
// They sit PillarBackOffset units behind the tower (away from the arena
// center) spread PillarSideSpacing units apart perpendicular to the
// center-to-tower axis.
//
// Postcondition: returns exactly PillarsPerPlayer pillars with indexes 0..2.
func NewPillars(ownerID string, towerPos geom.Vector3) []*Pillar {
	// Unit vector from center toward the tower.
	d := towerPos
	length := math.Sqrt(d.X*d.X + d.Z*d.Z)
	if length == 0 {
		length = 1
	}
	dx, dz := d.X/length, d.Z/length
	// Perpendicular in the XZ plane.
	px, pz := -dz, dx

	pillars := make([]*Pillar, 0, PillarsPerPlayer)
	for i := 0; i < PillarsPerPlayer; i++ {
		side := float64(i-1) * PillarSideSpacing
		pos := geom.Vector3{
			X: towerPos.X + dx*PillarBackOffset + px*side,
			Y: towerPos.Y,
			Z: towerPos.Z + dz*PillarBackOffset + pz*side,
		}
		pillars = append(pillars, &Pillar{
			ID:        PillarID(ownerID, i),
			OwnerID:   ownerID,
			Index:     i,
			Position:  pos,
			Health:    PillarMaxHealth,
			MaxHealth: PillarMaxHealth,
		})
	}
	return pillars
}

// PlayerSpawnPosition returns where a PvP player materializes: just inside
// their tower, facing the opposing tower.
func PlayerSpawnPosition(towerPos geom.Vector3) geom.Vector3 {
	length := math.Sqrt(towerPos.X*towerPos.X + towerPos.Z*towerPos.Z)
	if length == 0 {
		return geom.Vector3{X: PlayerSpawnRadius}
	}
	scale := (length - PlayerSpawnRadius) / length
	return geom.Vector3{X: towerPos.X * scale, Y: towerPos.Y, Z: towerPos.Z * scale}
}
