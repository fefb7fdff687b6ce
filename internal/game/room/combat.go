package room

import (
	"time"

	"go.uber.org/zap"

	"github.com/voidhaven/arena/internal/events"
	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/geom"
)

// Experience awards by source.
const (
	BossKillXP         = 100
	BossSkeletonKillXP = 5
	UnitKillXP         = 5
	WaveCompletionXP   = 10
	PvPKillXP          = 10
)

// The combat resolver: the only code paths where health decreases. A killing
// blow is exactly the transition previousHealth > 0 and newHealth == 0;
// dying or dead targets reject further damage silently.

// DamageEnemy applies player damage to a PvE enemy and resolves the kill
// rules. The attacker is pushed to the top of the enemy's aggro.
//
// Postcondition: unknown or dying enemies are a silent no-op.
func (r *Room) DamageEnemy(enemyID string, damage int, fromPlayerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enemies[enemyID]
	if !ok || e.IsDying {
		return
	}
	if damage < 0 {
		damage = 0
	}
	now := r.clock()

	e.Health -= damage
	if e.Health < 0 {
		e.Health = 0
	}
	wasKilled := e.Health == 0

	r.emitLocked(Outbound{
		Event: events.SEnemyDamaged,
		Payload: &events.EnemyDamaged{
			EnemyID:      enemyID,
			Damage:       damage,
			NewHealth:    e.Health,
			MaxHealth:    e.MaxHealth,
			WasKilled:    wasKilled,
			FromPlayerID: fromPlayerID,
		},
	})

	if fromPlayerID != "" && !wasKilled {
		a, ok := r.aggro[enemyID]
		if !ok {
			a = &entity.Aggro{}
			r.aggro[enemyID] = a
		}
		a.TargetPlayerID = fromPlayerID
		a.Score += entity.AggroDamageBonus
		a.LastUpdate = now
	}

	if wasKilled {
		r.killEnemyLocked(e, fromPlayerID, now)
	}
}

// killEnemyLocked marks an enemy dying, applies the per-type kill rewards,
// and schedules removal. Caller must hold r.mu.
func (r *Room) killEnemyLocked(e *entity.Enemy, fromPlayerID string, now time.Time) {
	e.IsDying = true
	e.DeathTime = now
	delete(r.aggro, e.ID)

	removeDelay := entity.EnemyRemoveDelay
	switch e.Type {
	case entity.EnemyBoss:
		for id := range r.players {
			r.awardExperienceLocked(id, BossKillXP, events.XPSourceBossKill, e.ID)
		}
		r.emitLocked(Outbound{
			Event:   events.SBossDefeated,
			Payload: &events.BossDefeated{EnemyID: e.ID, KilledBy: fromPlayerID},
		})
	case entity.EnemyBossSkeleton:
		if fromPlayerID != "" {
			r.awardExperienceLocked(fromPlayerID, BossSkeletonKillXP, events.XPSourceBossSkeleton, e.ID)
		}
		removeDelay = 0
	default:
		r.killCount++
		r.emitLocked(Outbound{
			Event:   events.SKillCountUpdated,
			Payload: &events.KillCountUpdated{KillCount: r.killCount, KilledBy: fromPlayerID},
		})
		for _, p := range r.players {
			p.ScaleMaxHealth(entity.MultiplayerBaseHealth + r.killCount)
			p.Heal(1)
			r.emitLocked(Outbound{
				Event: events.SPlayerHealthUpdated,
				Payload: &events.PlayerHealthUpdated{
					PlayerID:  p.ID,
					Health:    p.Health,
					MaxHealth: p.MaxHealth,
				},
			})
		}
	}

	if removeDelay == 0 {
		r.removeEnemyLocked(e.ID)
		return
	}
	enemyID := e.ID
	r.afterLocked(removeDelay, func() {
		r.removeEnemyLocked(enemyID)
	})

	r.logger.Debug("enemy killed",
		zap.String("enemy_id", e.ID),
		zap.String("type", string(e.Type)),
		zap.String("killed_by", fromPlayerID),
		zap.Int("kill_count", r.killCount),
	)
}

// removeEnemyLocked deletes an enemy and its effect state and announces the
// removal. Caller must hold r.mu.
func (r *Room) removeEnemyLocked(enemyID string) {
	if _, ok := r.enemies[enemyID]; !ok {
		return
	}
	delete(r.enemies, enemyID)
	delete(r.aggro, enemyID)
	delete(r.statusEffects, enemyID)

	r.emitLocked(Outbound{
		Event:   events.SEnemyRemoved,
		Payload: &events.EnemyRemoved{EnemyID: enemyID},
	})
}

// awardExperienceLocked records an XP award and emits the event. The server
// keeps a running total; level-up side effects belong to clients. Caller
// must hold r.mu.
func (r *Room) awardExperienceLocked(playerID string, amount int, source, detail string) {
	if _, ok := r.players[playerID]; !ok || amount <= 0 {
		return
	}
	r.experience[playerID] += amount

	r.emitLocked(Outbound{
		Event: events.SPlayerExperience,
		Payload: &events.PlayerExperience{
			PlayerID: playerID,
			Amount:   amount,
			Source:   source,
			Detail:   detail,
		},
	})
}

// Experience returns the server-side cumulative XP total for a player.
func (r *Room) Experience(playerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.experience[playerID]
}

// DamageTower applies damage to a PvP tower. Owners cannot damage their own
// tower. Returns true when the damage was applied.
func (r *Room) DamageTower(towerID string, damage int, fromPlayerID, damageType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.damageTowerLocked(towerID, damage, fromPlayerID, damageType)
}

func (r *Room) damageTowerLocked(towerID string, damage int, fromPlayerID, damageType string) bool {
	t, ok := r.towers[towerID]
	if !ok || t.IsDead {
		return false
	}
	if fromPlayerID != "" && fromPlayerID == t.OwnerID {
		return false
	}
	if damage < 0 {
		damage = 0
	}

	t.Health -= damage
	if t.Health < 0 {
		t.Health = 0
	}
	wasKilled := t.Health == 0

	r.emitLocked(Outbound{
		Event: events.STowerDamaged,
		Payload: &events.TowerDamaged{
			TowerID:      towerID,
			Damage:       damage,
			NewHealth:    t.Health,
			MaxHealth:    t.MaxHealth,
			WasKilled:    wasKilled,
			FromPlayerID: fromPlayerID,
			DamageType:   damageType,
		},
	})

	if wasKilled {
		t.IsDead = true
		t.IsActive = false
		r.emitLocked(Outbound{
			Event:   events.STowerDestroyed,
			Payload: &events.TowerDestroyed{TowerID: towerID, OwnerID: t.OwnerID},
		})
		r.afterLocked(entity.TowerRemoveDelay, func() {
			delete(r.towers, towerID)
		})
		r.logger.Info("tower destroyed",
			zap.String("tower_id", towerID),
			zap.String("destroyed_by", fromPlayerID),
		)
	}
	return true
}

// DamagePillar applies damage to a PvP pillar. Owners cannot damage their
// own pillars. Destroying a pillar escalates the destroyer's future waves.
func (r *Room) DamagePillar(pillarID string, damage int, fromPlayerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pillars[pillarID]
	if !ok || p.IsDead {
		return false
	}
	if fromPlayerID != "" && fromPlayerID == p.OwnerID {
		return false
	}
	if damage < 0 {
		damage = 0
	}

	p.Health -= damage
	if p.Health < 0 {
		p.Health = 0
	}
	wasKilled := p.Health == 0

	r.emitLocked(Outbound{
		Event: events.SPillarDamaged,
		Payload: &events.PillarDamaged{
			PillarID:     pillarID,
			Damage:       damage,
			NewHealth:    p.Health,
			MaxHealth:    p.MaxHealth,
			WasKilled:    wasKilled,
			FromPlayerID: fromPlayerID,
		},
	})

	if wasKilled {
		p.IsDead = true
		r.destroyedPillars[p.OwnerID]++
		r.emitLocked(Outbound{
			Event: events.SPillarDestroyed,
			Payload: &events.PillarDestroyed{
				PillarID:       pillarID,
				OwnerID:        p.OwnerID,
				DestroyedByID:  fromPlayerID,
				DestroyedTotal: r.destroyedPillars[p.OwnerID],
			},
		})
		r.afterLocked(entity.TowerRemoveDelay, func() {
			delete(r.pillars, pillarID)
		})
	}
	return true
}

// DamageSummonedUnit applies damage to a summoned unit. Owners cannot
// damage their own units. A PvP kill awards experience to the attacker.
func (r *Room) DamageSummonedUnit(unitID string, damage int, fromPlayerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.damageUnitLocked(unitID, damage, fromPlayerID, r.clock())
}

func (r *Room) damageUnitLocked(unitID string, damage int, fromPlayerID string, now time.Time) bool {
	u, ok := r.units[unitID]
	if !ok || u.IsDead || !u.IsActive {
		return false
	}
	if fromPlayerID != "" && fromPlayerID == u.OwnerID {
		return false
	}
	if damage < 0 {
		damage = 0
	}

	u.Health -= damage
	if u.Health < 0 {
		u.Health = 0
	}
	wasKilled := u.Health == 0

	r.emitLocked(Outbound{
		Event: events.SSummonedUnitDamaged,
		Payload: &events.SummonedUnitDamaged{
			UnitID:       unitID,
			OwnerID:      u.OwnerID,
			Damage:       damage,
			NewHealth:    u.Health,
			MaxHealth:    u.MaxHealth,
			WasKilled:    wasKilled,
			FromPlayerID: fromPlayerID,
		},
	})

	if wasKilled {
		u.IsDead = true
		r.removeUnitFromWaveLocked(u)
		r.deadUnitQueue = append(r.deadUnitQueue, unitID)
		if r.mode == entity.ModePvP && fromPlayerID != "" {
			r.awardExperienceLocked(fromPlayerID, UnitKillXP, events.XPSourceUnitKill, unitID)
		}
		r.checkWaveCompletionLocked()
	}
	return true
}

// DamagePlayer applies server-arbitrated PvP damage. Dead targets reject
// damage. A killing blow emits player-kill and stores a pending kill
// awaiting the victim's respawn.
func (r *Room) DamagePlayer(targetID string, damage int, fromPlayerID, damageType string, isCritical bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.players[targetID]
	if !ok || target.IsDead() {
		return
	}
	if damage < 0 {
		damage = 0
	}
	now := r.clock()

	target.SetHealth(target.Health - damage)
	wasKilled := target.Health == 0

	r.emitLocked(Outbound{
		Event: events.SPlayerDamaged,
		Payload: &events.PlayerDamaged{
			PlayerID:     targetID,
			FromPlayerID: fromPlayerID,
			Damage:       damage,
			NewHealth:    target.Health,
			MaxHealth:    target.MaxHealth,
			DamageType:   damageType,
			IsCritical:   isCritical,
			WasKilled:    wasKilled,
		},
	})

	if !wasKilled {
		return
	}

	killerName := ""
	if killer, ok := r.players[fromPlayerID]; ok {
		killerName = killer.Name
	}
	r.emitLocked(Outbound{
		Event: events.SPlayerKill,
		Payload: &events.PlayerKill{
			KillerID:   fromPlayerID,
			KillerName: killerName,
			VictimID:   targetID,
			VictimName: target.Name,
			DamageType: damageType,
		},
	})
	r.setPendingKillLocked(targetID, &entity.PendingKill{
		KillerID:   fromPlayerID,
		KillerName: killerName,
		VictimName: target.Name,
		DamageType: damageType,
		At:         now,
	})
}

// ReportPlayerDeath handles a player announcing its own death, the
// arbitration path used outside PvP damage.
func (r *Room) ReportPlayerDeath(playerID, damageType string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return
	}
	p.Health = 0

	r.emitLocked(Outbound{
		Event:           events.SPlayerDied,
		Payload:         &events.PlayerDiedEvt{PlayerID: playerID, DamageType: damageType},
		ExcludePlayerID: playerID,
	})
}

// RespawnPlayer restores a player to full health, confirms any pending kill
// on them (awarding the killer's experience), and announces the respawn.
func (r *Room) RespawnPlayer(playerID string, position *geom.Vector3) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return
	}
	p.Health = p.MaxHealth
	if position != nil {
		p.Position = *position
	}

	if pk, ok := r.pendingKills[playerID]; ok {
		if r.clock().Sub(pk.At) <= entity.PendingKillTTL {
			r.awardExperienceLocked(pk.KillerID, PvPKillXP, events.XPSourcePvPKill, playerID)
		}
		delete(r.pendingKills, playerID)
	}

	r.emitLocked(Outbound{
		Event: events.SPlayerRespawned,
		Payload: &events.PlayerRespawned{
			PlayerID:  playerID,
			Health:    p.Health,
			MaxHealth: p.MaxHealth,
			Position:  position,
		},
	})
}

// HealAllies heals every living player in the room by amount. Dead players
// are skipped.
func (r *Room) HealAllies(fromPlayerID string, amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healLocked(fromPlayerID, amount, func(*entity.Player) bool { return true })
}

// HealNearbyAllies heals living players within radius of the healer.
func (r *Room) HealNearbyAllies(fromPlayerID string, radius float64, amount int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	healer, ok := r.players[fromPlayerID]
	if !ok {
		return
	}
	origin := healer.Position
	r.healLocked(fromPlayerID, amount, func(p *entity.Player) bool {
		return geom.Dist(origin, p.Position) <= radius
	})
}

// healLocked applies a heal to every living player passing the filter and
// reports each result. Caller must hold r.mu.
func (r *Room) healLocked(fromPlayerID string, amount int, include func(*entity.Player) bool) {
	if amount <= 0 {
		return
	}
	for _, p := range r.players {
		if p.IsDead() || !include(p) {
			continue
		}
		applied := p.Heal(amount)
		if applied == 0 {
			continue
		}
		r.emitLocked(Outbound{
			Event: events.SAllyHealed,
			Payload: &events.AllyHealed{
				PlayerID:     p.ID,
				FromPlayerID: fromPlayerID,
				Amount:       applied,
				Health:       p.Health,
				MaxHealth:    p.MaxHealth,
			},
		})
	}
}
