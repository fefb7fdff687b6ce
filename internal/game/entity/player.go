// Package entity defines the data model owned by a room: players, enemies,
// towers, pillars, summoned units, waves, status effects, and pending kills.
// All cross-references between entities are by string id.
package entity

import (
	"time"

	"github.com/voidhaven/arena/internal/game/geom"
)

// GameMode selects the rule set a room runs under. The mode is fixed at the
// first player join and never changes for the life of the room.
type GameMode string

const (
	ModeMultiplayer GameMode = "multiplayer"
	ModePvP         GameMode = "pvp"
	ModeCoop        GameMode = "coop"
)

// Valid reports whether m is one of the three supported modes.
func (m GameMode) Valid() bool {
	switch m {
	case ModeMultiplayer, ModePvP, ModeCoop:
		return true
	}
	return false
}

// MultiplayerBaseHealth is the max health of a multiplayer player at
// killCount 0. Max health scales to MultiplayerBaseHealth+killCount.
const MultiplayerBaseHealth = 200

// LevelBaseHealth and LevelHealthStep define level-scaled max health for
// pvp and coop: 1000 + 150*(level-1).
const (
	LevelBaseHealth = 1000
	LevelHealthStep = 150
)

// Player is the authoritative server-side record for a connected player.
//
// Invariant: 0 <= Health <= MaxHealth.
type Player struct {
	ID                string
	Name              string
	Position          geom.Vector3
	Rotation          float64
	MovementDirection geom.Vector3
	Weapon            string
	Subclass          string
	Level             int
	Health            int
	MaxHealth         int
	Essence           int
	Shield            int
	Invisible         bool
	Stealthing        bool
	Purchased         map[string]bool
	JoinedAt          time.Time
	LastUpdate        time.Time
}

// NewPlayer creates a player with mode-appropriate starting health.
//
// Precondition: id and name must be non-empty; mode must be valid.
// Postcondition: Health == MaxHealth; Level == 1; Purchased is non-nil.
func NewPlayer(id, name, weapon, subclass string, mode GameMode, now time.Time) *Player {
	maxHP := MultiplayerBaseHealth
	if mode == ModePvP || mode == ModeCoop {
		maxHP = LevelMaxHealth(1)
	}
	return &Player{
		ID:        id,
		Name:      name,
		Weapon:    weapon,
		Subclass:  subclass,
		Level:     1,
		Health:    maxHP,
		MaxHealth: maxHP,
		Purchased: make(map[string]bool),
		JoinedAt:  now,
	}
}

// LevelMaxHealth returns the level-scaled max health used by pvp and coop.
//
// Precondition: level >= 1.
func LevelMaxHealth(level int) int {
	if level < 1 {
		level = 1
	}
	return LevelBaseHealth + LevelHealthStep*(level-1)
}

// IsDead reports whether the player has no health remaining.
func (p *Player) IsDead() bool {
	return p.Health <= 0
}

// SetHealth writes health clamped into [0, MaxHealth].
//
// Postcondition: 0 <= Health <= MaxHealth.
func (p *Player) SetHealth(h int) {
	if h < 0 {
		h = 0
	}
	if h > p.MaxHealth {
		h = p.MaxHealth
	}
	p.Health = h
}

// Heal adds amount to health, clamped to MaxHealth. Dead players are not
// revived by healing; callers decide respawn separately.
//
// Postcondition: returns the applied delta (0 for dead players).
func (p *Player) Heal(amount int) int {
	if p.IsDead() || amount <= 0 {
		return 0
	}
	before := p.Health
	p.SetHealth(p.Health + amount)
	return p.Health - before
}

// ScaleMaxHealth raises MaxHealth to newMax, clamping Health into range.
// Used by the multiplayer kill-count scaling path.
//
// Postcondition: MaxHealth == newMax; 0 <= Health <= MaxHealth.
func (p *Player) ScaleMaxHealth(newMax int) {
	p.MaxHealth = newMax
	if p.Health > newMax {
		p.Health = newMax
	}
}

// XP thresholds, cumulative, for levels 1..5. Level 5 is the cap.
var levelThresholds = [...]int{0, 25, 75, 150, 250}

// MaxLevel is the highest attainable player level.
const MaxLevel = len(levelThresholds)

// LevelForExperience returns the level reached at the given cumulative XP.
//
// Postcondition: result in [1, MaxLevel].
func LevelForExperience(xp int) int {
	level := 1
	for i, threshold := range levelThresholds {
		if xp >= threshold {
			level = i + 1
		}
	}
	return level
}
