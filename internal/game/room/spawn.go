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

// Enemy spawn placement: random angle, distance in [SpawnMinDist,
// SpawnMaxDist] from the arena center, on the ground plane.
const (
	SpawnMinDist = 5.0
	SpawnMaxDist = 20.0
)

// startSpawnTimersLocked launches one periodic timer per spawnable enemy
// archetype. Only the multiplayer mode runs these; PvP suppresses PvE
// entirely and coop replaces it with the boss one-shot. Caller must hold
// r.mu.
func (r *Room) startSpawnTimersLocked() {
	for _, typ := range r.catalog.SpawnableTypes() {
		typ := typ
		r.startTickerLocked(r.catalog[typ].SpawnInterval, func(now time.Time) {
			r.SpawnTick(typ, now)
		})
	}
}

// SpawnTick runs one spawn cycle for an enemy archetype: level gating, the
// global alive cap, and the per-type cap decide how many instances appear.
func (r *Room) SpawnTick(typ entity.EnemyType, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started || r.mode != entity.ModeMultiplayer {
		return
	}
	stats, ok := r.catalog[typ]
	if !ok {
		return
	}

	level := entity.LevelForKillCount(r.killCount)
	if level < stats.MinLevel {
		return
	}

	free := entity.MaxEnemies - r.aliveEnemyCountLocked()
	if free <= 0 {
		return
	}
	if stats.AliveCap > 0 && r.aliveOfTypeLocked(typ) >= stats.AliveCap {
		return
	}

	count := stats.PerSpawn
	if count > free {
		count = free
	}
	for i := 0; i < count; i++ {
		r.spawnEnemyLocked(typ, now)
	}
}

// aliveEnemyCountLocked counts live, non-dying enemies. Caller must hold
// r.mu.
func (r *Room) aliveEnemyCountLocked() int {
	n := 0
	for _, e := range r.enemies {
		if !e.IsDying {
			n++
		}
	}
	return n
}

// aliveOfTypeLocked counts live, non-dying enemies of one archetype. Caller
// must hold r.mu.
func (r *Room) aliveOfTypeLocked(typ entity.EnemyType) int {
	n := 0
	for _, e := range r.enemies {
		if e.Type == typ && !e.IsDying {
			n++
		}
	}
	return n
}

// spawnEnemyLocked materializes one enemy at a random ground position and
// announces it. Health is resolved from the catalog at the room's current
// difficulty level. Caller must hold r.mu.
func (r *Room) spawnEnemyLocked(typ entity.EnemyType, now time.Time) *entity.Enemy {
	level := entity.LevelForKillCount(r.killCount)
	maxHealth := r.catalog.MaxHealth(typ, level)
	if maxHealth <= 0 {
		return nil
	}

	angle := r.rng.Float64() * 2 * math.Pi
	dist := SpawnMinDist + r.rng.Float64()*(SpawnMaxDist-SpawnMinDist)

	e := &entity.Enemy{
		ID:        fmt.Sprintf("enemy_%s", uuid.NewString()),
		Type:      typ,
		Position:  geom.OnCircle(geom.Vector3{}, angle, dist),
		Health:    maxHealth,
		MaxHealth: maxHealth,
		SpawnedAt: now,
	}
	r.enemies[e.ID] = e

	r.emitLocked(Outbound{
		Event:   events.SEnemySpawned,
		Payload: &events.EnemySpawned{Enemy: events.NewEnemyState(e)},
	})

	r.logger.Debug("enemy spawned",
		zap.String("enemy_id", e.ID),
		zap.String("type", string(typ)),
		zap.Int("level", level),
		zap.Int("health", maxHealth),
	)
	return e
}

// scheduleBossSpawnLocked arms the coop one-shot boss timer. Caller must
// hold r.mu.
func (r *Room) scheduleBossSpawnLocked() {
	r.afterLocked(BossSpawnDelay, func() {
		r.spawnBossLocked(r.clock())
	})
}

// SpawnBoss spawns the coop boss immediately. Tests use this instead of
// waiting out the one-shot timer.
func (r *Room) SpawnBoss(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawnBossLocked(now)
}

// spawnBossLocked places the boss at the arena origin and announces it.
// Caller must hold r.mu.
func (r *Room) spawnBossLocked(now time.Time) {
	if !r.started || r.mode != entity.ModeCoop {
		return
	}
	e := &entity.Enemy{
		ID:        fmt.Sprintf("boss_%s", uuid.NewString()),
		Type:      entity.EnemyBoss,
		Health:    entity.BossHealth,
		MaxHealth: entity.BossHealth,
		SpawnedAt: now,
	}
	r.enemies[e.ID] = e

	r.emitLocked(Outbound{
		Event:   events.SBossSpawned,
		Payload: &events.BossSpawned{Enemy: events.NewEnemyState(e)},
	})

	r.logger.Info("boss spawned", zap.String("enemy_id", e.ID))
}

// SpawnBossSkeleton spawns a boss minion at a position, used by the boss
// fight's add phases. Minions are removed immediately on death.
func (r *Room) SpawnBossSkeleton(pos geom.Vector3, now time.Time) *entity.Enemy {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return nil
	}
	level := entity.LevelForKillCount(r.killCount)
	maxHealth := r.catalog.MaxHealth(entity.EnemyBossSkeleton, level)

	e := &entity.Enemy{
		ID:        fmt.Sprintf("boss_skeleton_%s", uuid.NewString()),
		Type:      entity.EnemyBossSkeleton,
		Position:  pos,
		Health:    maxHealth,
		MaxHealth: maxHealth,
		SpawnedAt: now,
	}
	r.enemies[e.ID] = e

	r.emitLocked(Outbound{
		Event:   events.SEnemySpawned,
		Payload: &events.EnemySpawned{Enemy: events.NewEnemyState(e)},
	})
	return e
}

// UpdateEnemyPosition applies a client-side position correction for an
// enemy, rebroadcast to the rest of the room.
func (r *Room) UpdateEnemyPosition(enemyID string, pos geom.Vector3, rotation float64, fromPlayerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enemies[enemyID]
	if !ok || e.IsDying {
		return
	}
	e.Position = pos
	e.Rotation = rotation

	r.emitLocked(Outbound{
		Event:           events.SEnemyMoved,
		Payload:         &events.EnemyMoved{EnemyID: enemyID, Position: pos, Rotation: rotation},
		ExcludePlayerID: fromPlayerID,
	})
}

// Enemies returns a defensive copy of the live enemy list.
func (r *Room) Enemies() []entity.Enemy {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Enemy, 0, len(r.enemies))
	for _, e := range r.enemies {
		out = append(out, *e)
	}
	return out
}

// Enemy returns a copy of one enemy's state.
func (r *Room) Enemy(enemyID string) (entity.Enemy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.enemies[enemyID]
	if !ok {
		return entity.Enemy{}, false
	}
	return *e, true
}
