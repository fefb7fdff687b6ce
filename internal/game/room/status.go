package room

import (
	"time"

	"github.com/voidhaven/arena/internal/events"
	"github.com/voidhaven/arena/internal/game/entity"
)

// Status effects are tracked per enemy as effectType → expiration time and
// expire lazily on read. A new application of the same type overwrites the
// previous expiration.

// ApplyStatusEffect applies a timed debuff to an enemy and announces it.
// Returns false for unknown enemies, invalid effect types, or non-positive
// durations.
func (r *Room) ApplyStatusEffect(enemyID string, effectType entity.StatusEffectType, duration time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enemies[enemyID]
	if !ok || e.IsDying || !effectType.Valid() || duration <= 0 {
		return false
	}

	effects, ok := r.statusEffects[enemyID]
	if !ok {
		effects = make(map[entity.StatusEffectType]time.Time)
		r.statusEffects[enemyID] = effects
	}
	effects[effectType] = r.clock().Add(duration)

	r.emitLocked(Outbound{
		Event: events.SEnemyStatusEffect,
		Payload: &events.EnemyStatusEffect{
			EnemyID:    enemyID,
			EffectType: string(effectType),
			DurationMs: int(duration / time.Millisecond),
		},
	})
	return true
}

// IsAffectedBy reports whether an enemy currently carries an unexpired
// effect of the given type.
func (r *Room) IsAffectedBy(enemyID string, effectType entity.StatusEffectType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	effects := r.pruneEffectsLocked(enemyID, r.clock())
	_, active := effects[effectType]
	return active
}

// StatusEffects returns the active effects on an enemy as effectType →
// expiration in Unix milliseconds, the shape carried by
// enemy-status-response.
func (r *Room) StatusEffects(enemyID string) map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	effects := r.pruneEffectsLocked(enemyID, r.clock())
	out := make(map[string]int64, len(effects))
	for typ, expiry := range effects {
		out[string(typ)] = expiry.UnixMilli()
	}
	return out
}

// pruneEffectsLocked drops expired entries for one enemy and returns the
// surviving map. Caller must hold r.mu.
func (r *Room) pruneEffectsLocked(enemyID string, now time.Time) map[entity.StatusEffectType]time.Time {
	effects, ok := r.statusEffects[enemyID]
	if !ok {
		return nil
	}
	for typ, expiry := range effects {
		if !expiry.After(now) {
			delete(effects, typ)
		}
	}
	if len(effects) == 0 {
		delete(r.statusEffects, enemyID)
		return nil
	}
	return effects
}
