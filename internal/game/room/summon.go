package room

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voidhaven/arena/internal/events"
	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/geom"
)

// maxSummonStep caps the per-tick time delta so a stalled tick cannot
// teleport units across the arena.
const maxSummonStep = 250 * time.Millisecond

// SummonTick advances the summoned-unit simulation by one step: expiry,
// behavior, wave completion, wave spawning, dead-unit cleanup, and the
// throttled position snapshot.
func (r *Room) SummonTick(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}

	dt := SummonTickInterval
	if !r.lastSummonTickAt.IsZero() {
		dt = now.Sub(r.lastSummonTickAt)
		if dt > maxSummonStep {
			dt = maxSummonStep
		}
		if dt < 0 {
			dt = 0
		}
	}
	r.lastSummonTickAt = now

	for _, u := range r.units {
		if u.IsDead {
			continue
		}
		if u.Expired(now) {
			u.IsDead = true
			r.removeUnitFromWaveLocked(u)
			r.deadUnitQueue = append(r.deadUnitQueue, u.UnitID)
			continue
		}
		r.updateUnitBehaviorLocked(u, dt.Seconds(), now)
	}

	r.checkWaveCompletionLocked()
	r.maybeSpawnWavesLocked(now)
	r.flushDeadUnitsLocked()
	r.broadcastUnitSnapshotLocked(now)
}

// updateUnitBehaviorLocked runs one behavior step for a live unit: periodic
// target acquisition, pathing toward the fallback position, and attacking.
// Caller must hold r.mu.
func (r *Room) updateUnitBehaviorLocked(u *entity.SummonedUnit, dtSeconds float64, now time.Time) {
	if now.Sub(u.LastTargetSearchAt) >= entity.TargetSearchEvery {
		u.CurrentTarget = r.findUnitTargetLocked(u)
		u.LastTargetSearchAt = now
	}

	if u.CurrentTarget == "" {
		if u.TargetPosition != nil {
			u.Position = geom.StepToward(u.Position, *u.TargetPosition, u.MoveSpeed*dtSeconds)
			if geom.HorizontalDist(u.Position, *u.TargetPosition) <= entity.UnitArriveEpsilon {
				u.Position.X = u.TargetPosition.X
				u.Position.Z = u.TargetPosition.Z
				u.TargetPosition = nil
			}
		}
		return
	}

	targetPos, alive := r.resolveUnitTargetLocked(u.CurrentTarget)
	if !alive || geom.Dist(u.Position, targetPos) > u.AttackRange {
		u.CurrentTarget = ""
		return
	}

	if now.Sub(u.LastAttackAt) >= u.AttackCooldown {
		u.LastAttackAt = now
		r.applyUnitAttackLocked(u, u.CurrentTarget, now)
	}
}

// findUnitTargetLocked picks the unit's target id: the closest enemy-owned
// living unit, else the opponent's living tower, else nothing. Caller must
// hold r.mu.
func (r *Room) findUnitTargetLocked(u *entity.SummonedUnit) string {
	bestID := ""
	best := math.MaxFloat64
	for _, other := range r.units {
		if other.OwnerID == u.OwnerID || other.IsDead || !other.IsActive {
			continue
		}
		d := geom.Dist(u.Position, other.Position)
		if d < best {
			best = d
			bestID = other.UnitID
		}
	}
	if bestID != "" {
		return bestID
	}

	opponent := r.opponentOfLocked(u.OwnerID)
	if opponent == "" {
		return ""
	}
	towerID := entity.TowerID(opponent)
	if t, ok := r.towers[towerID]; ok && !t.IsDead {
		return towerID
	}
	return ""
}

// resolveUnitTargetLocked maps a target id to its position and liveness.
// Caller must hold r.mu.
func (r *Room) resolveUnitTargetLocked(targetID string) (geom.Vector3, bool) {
	if other, ok := r.units[targetID]; ok {
		return other.Position, !other.IsDead && other.IsActive
	}
	if t, ok := r.towers[targetID]; ok {
		return t.Position, !t.IsDead
	}
	return geom.Vector3{}, false
}

// applyUnitAttackLocked routes a unit's attack through the combat resolver.
// Caller must hold r.mu.
func (r *Room) applyUnitAttackLocked(u *entity.SummonedUnit, targetID string, now time.Time) {
	if _, ok := r.units[targetID]; ok {
		r.damageUnitLocked(targetID, u.AttackDamage, u.OwnerID, now)
		return
	}
	if _, ok := r.towers[targetID]; ok {
		r.damageTowerLocked(targetID, u.AttackDamage, u.OwnerID, "summoned-unit")
	}
}

// opponentOfLocked returns the other tower owner in a PvP room, or "" when
// no opponent exists. Caller must hold r.mu.
func (r *Room) opponentOfLocked(playerID string) string {
	for _, owner := range r.towerOwners {
		if owner != playerID {
			return owner
		}
	}
	return ""
}

// removeUnitFromWaveLocked detaches a unit from its owner's wave set. Caller
// must hold r.mu.
func (r *Room) removeUnitFromWaveLocked(u *entity.SummonedUnit) {
	if wave, ok := r.waves[u.OwnerID]; ok {
		delete(wave.Units, u.UnitID)
	}
}

// checkWaveCompletionLocked fires the completion rules for every wave whose
// unit set has emptied: the wave is deleted and the opposing player is
// announced as winner and awarded experience. Caller must hold r.mu.
func (r *Room) checkWaveCompletionLocked() {
	for ownerID, wave := range r.waves {
		if len(wave.Units) != 0 {
			continue
		}
		delete(r.waves, ownerID)
		winner := r.opponentOfLocked(ownerID)
		r.emitLocked(Outbound{
			Event: events.SWaveCompleted,
			Payload: &events.WaveCompleted{
				WaveID:           wave.WaveID,
				DefeatedPlayerID: ownerID,
				WinnerPlayerID:   winner,
			},
		})
		if winner != "" {
			r.awardExperienceLocked(winner, WaveCompletionXP, events.XPSourceWaveCompletion, wave.WaveID)
		}
		r.logger.Debug("wave completed",
			zap.String("wave_id", wave.WaveID),
			zap.String("defeated", ownerID),
			zap.String("winner", winner),
		)
	}
}

// maybeSpawnWavesLocked spawns a wave from every alive active tower once
// both towers exist, then every WaveInterval thereafter. Caller must hold
// r.mu.
func (r *Room) maybeSpawnWavesLocked(now time.Time) {
	if r.mode != entity.ModePvP {
		return
	}

	alive := make([]*entity.Tower, 0, entity.MaxTowersPerRoom)
	for _, t := range r.towers {
		if !t.IsDead && t.IsActive {
			alive = append(alive, t)
		}
	}
	if len(alive) < entity.MaxTowersPerRoom {
		return
	}
	if !r.lastGlobalSpawnAt.IsZero() && now.Sub(r.lastGlobalSpawnAt) < entity.WaveInterval {
		return
	}
	r.lastGlobalSpawnAt = now

	for _, t := range alive {
		r.spawnWaveLocked(t, now)
	}
}

// spawnWaveLocked creates one tower's wave: WaveSize units with elite
// escalation proportional to the opponent's destroyed pillars. Caller must
// hold r.mu.
func (r *Room) spawnWaveLocked(tower *entity.Tower, now time.Time) {
	opponent := r.opponentOfLocked(tower.OwnerID)

	elites := 0
	if opponent != "" {
		elites = r.destroyedPillars[opponent]
		if elites > entity.MaxEliteUnitsPerWave {
			elites = entity.MaxEliteUnitsPerWave
		}
	}

	wave, ok := r.waves[tower.OwnerID]
	if !ok {
		wave = entity.NewWave(fmt.Sprintf("wave_%s", uuid.NewString()), tower.OwnerID, now)
		r.waves[tower.OwnerID] = wave
	}

	target := r.unitTargetPositionLocked(tower, opponent)

	for i := 0; i < entity.WaveSize; i++ {
		isElite := i < elites
		health := entity.NormalUnitHealth
		damage := entity.NormalUnitMinDamage +
			r.rng.Intn(entity.NormalUnitMaxDamage-entity.NormalUnitMinDamage+1)
		if isElite {
			health = entity.EliteUnitHealth
			damage = entity.EliteUnitDamage
		}

		pos := tower.Position
		pos.X += float64(i-1) * 2

		targetPos := target
		u := &entity.SummonedUnit{
			UnitID:         fmt.Sprintf("unit_%s", uuid.NewString()),
			OwnerID:        tower.OwnerID,
			Position:       pos,
			TargetPosition: &targetPos,
			Health:         health,
			MaxHealth:      health,
			AttackRange:    entity.UnitAttackRange,
			AttackDamage:   damage,
			AttackCooldown: entity.UnitAttackCooldown,
			MoveSpeed:      entity.UnitMoveSpeed,
			IsActive:       true,
			IsElite:        isElite,
			SummonTime:     now,
			Lifetime:       entity.UnitLifetime,
		}
		r.units[u.UnitID] = u
		wave.Units[u.UnitID] = true
	}

	r.logger.Debug("wave spawned",
		zap.String("wave_id", wave.WaveID),
		zap.String("owner", tower.OwnerID),
		zap.Int("elites", elites),
	)
}

// unitTargetPositionLocked returns where a tower's units path by default:
// the opposing tower, or a fixed advance toward the arena center when no
// opposing tower stands. Caller must hold r.mu.
func (r *Room) unitTargetPositionLocked(tower *entity.Tower, opponent string) geom.Vector3 {
	if opponent != "" {
		if t, ok := r.towers[entity.TowerID(opponent)]; ok && !t.IsDead {
			return t.Position
		}
	}
	return geom.StepToward(tower.Position, geom.Vector3{}, entity.FallbackAdvanceDistance)
}

// flushDeadUnitsLocked deletes every unit queued for destruction this tick.
// Caller must hold r.mu.
func (r *Room) flushDeadUnitsLocked() {
	for _, id := range r.deadUnitQueue {
		delete(r.units, id)
	}
	r.deadUnitQueue = r.deadUnitQueue[:0]
}

// broadcastUnitSnapshotLocked emits the batched unit position snapshot at
// most every UnitSnapshotEvery, and only when live units exist. Caller must
// hold r.mu.
func (r *Room) broadcastUnitSnapshotLocked(now time.Time) {
	if !r.lastUnitSnapshotAt.IsZero() && now.Sub(r.lastUnitSnapshotAt) < UnitSnapshotEvery {
		return
	}

	states := make([]events.UnitState, 0, len(r.units))
	for _, u := range r.units {
		if u.IsDead || !u.IsActive {
			continue
		}
		states = append(states, events.NewUnitState(u))
	}
	if len(states) == 0 {
		return
	}
	r.lastUnitSnapshotAt = now

	r.emitLocked(Outbound{
		Event:   events.SSummonedUnits,
		Payload: &events.SummonedUnitsUpdated{Units: states},
	})
}

// Units returns a defensive copy of the live unit list.
func (r *Room) Units() []entity.SummonedUnit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.SummonedUnit, 0, len(r.units))
	for _, u := range r.units {
		out = append(out, *u)
	}
	return out
}

// WaveFor returns a copy of a player's active wave.
func (r *Room) WaveFor(ownerID string) (entity.Wave, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wave, ok := r.waves[ownerID]
	if !ok {
		return entity.Wave{}, false
	}
	copied := *wave
	copied.Units = make(map[string]bool, len(wave.Units))
	for id := range wave.Units {
		copied.Units[id] = true
	}
	return copied, true
}
