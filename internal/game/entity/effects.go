package entity

import "time"

// StatusEffectType is a debuff category applied to enemies by player
// abilities. Effects are tracked and broadcast; they do not currently alter
// AI or simulation behavior.
type StatusEffectType string

const (
	EffectStun      StatusEffectType = "stun"
	EffectFreeze    StatusEffectType = "freeze"
	EffectSlow      StatusEffectType = "slow"
	EffectBurning   StatusEffectType = "burning"
	EffectCorrupted StatusEffectType = "corrupted"
	EffectVenom     StatusEffectType = "venom"
)

// Valid reports whether t is a recognized effect type.
func (t StatusEffectType) Valid() bool {
	switch t {
	case EffectStun, EffectFreeze, EffectSlow, EffectBurning, EffectCorrupted, EffectVenom:
		return true
	}
	return false
}

// PendingKill records an unconfirmed PvP kill. XP is awarded only when the
// victim respawns; stale entries are pruned after PendingKillTTL.
type PendingKill struct {
	KillerID   string
	KillerName string
	VictimName string
	DamageType string
	At         time.Time
}

// PendingKillTTL is how long a pending kill waits for the victim's respawn
// before being discarded.
const PendingKillTTL = 10 * time.Second
