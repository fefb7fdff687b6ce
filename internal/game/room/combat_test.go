package room_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/voidhaven/arena/internal/events"
	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/room"
)

// startedMultiplayer returns a running multiplayer room with the two
// initial elites and the given players.
func startedMultiplayer(t *testing.T, ids ...string) (*room.Room, *recorder, *testClock) {
	t.Helper()
	r, rec, clk := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, ids...)
	require.NoError(t, r.StartGame(ids[0]))
	return r, rec, clk
}

// startedPvP returns a running two-player PvP room.
func startedPvP(t *testing.T) (*room.Room, *recorder, *testClock) {
	t.Helper()
	r, rec, clk := newTestRoom(t)
	joinN(t, r, entity.ModePvP, "p1", "p2")
	require.NoError(t, r.StartGame("p1"))
	return r, rec, clk
}

func firstEnemyID(t *testing.T, r *room.Room) string {
	t.Helper()
	enemies := r.Enemies()
	require.NotEmpty(t, enemies)
	return enemies[0].ID
}

func TestDamageEnemy_Delta(t *testing.T) {
	r, rec, _ := startedMultiplayer(t, "p1")
	enemyID := firstEnemyID(t, r)
	rec.reset()

	r.DamageEnemy(enemyID, 300, "p1")

	dmg := rec.last(t, events.SEnemyDamaged).Payload.(*events.EnemyDamaged)
	assert.Equal(t, 700, dmg.NewHealth)
	assert.Equal(t, 1000, dmg.MaxHealth)
	assert.False(t, dmg.WasKilled)
	assert.Equal(t, "p1", dmg.FromPlayerID)
}

func TestDamageEnemy_AggroFollowsAttacker(t *testing.T) {
	r, _, _ := startedMultiplayer(t, "p1", "p2")
	enemyID := firstEnemyID(t, r)

	r.DamageEnemy(enemyID, 10, "p2")

	target, ok := r.AggroTarget(enemyID)
	require.True(t, ok)
	assert.Equal(t, "p2", target)
}

func TestDamageEnemy_KillScalesEveryPlayer(t *testing.T) {
	r, rec, _ := startedMultiplayer(t, "p1", "p2")
	enemyID := firstEnemyID(t, r)
	rec.reset()

	r.DamageEnemy(enemyID, 1000, "p1")

	dmg := rec.last(t, events.SEnemyDamaged).Payload.(*events.EnemyDamaged)
	assert.True(t, dmg.WasKilled)

	kc := rec.last(t, events.SKillCountUpdated).Payload.(*events.KillCountUpdated)
	assert.Equal(t, 1, kc.KillCount)
	assert.Equal(t, "p1", kc.KilledBy)
	assert.Equal(t, 1, r.KillCount())

	assert.Equal(t, 2, rec.count(events.SPlayerHealthUpdated))
	for _, id := range []string{"p1", "p2"} {
		p, ok := r.Player(id)
		require.True(t, ok)
		assert.Equal(t, entity.MultiplayerBaseHealth+1, p.MaxHealth)
		assert.Equal(t, entity.MultiplayerBaseHealth+1, p.Health)
	}
}

func TestDamageEnemy_DyingRejectsFurtherDamage(t *testing.T) {
	r, rec, _ := startedMultiplayer(t, "p1")
	enemyID := firstEnemyID(t, r)

	r.DamageEnemy(enemyID, 1000, "p1")
	rec.reset()
	r.DamageEnemy(enemyID, 500, "p1")

	assert.Zero(t, rec.count(events.SEnemyDamaged))
	assert.Equal(t, 1, r.KillCount())
}

func TestDamageEnemy_OverkillClampsToZero(t *testing.T) {
	r, rec, _ := startedMultiplayer(t, "p1")
	enemyID := firstEnemyID(t, r)
	rec.reset()

	r.DamageEnemy(enemyID, 99999, "p1")

	dmg := rec.last(t, events.SEnemyDamaged).Payload.(*events.EnemyDamaged)
	assert.Equal(t, 0, dmg.NewHealth)
	assert.True(t, dmg.WasKilled)
}

func TestBossKill_AwardsEveryPlayer(t *testing.T) {
	r, rec, clk := newTestRoom(t)
	joinN(t, r, entity.ModeCoop, "p1", "p2")
	require.NoError(t, r.StartGame("p1"))
	r.SpawnBoss(clk.Now())
	bossID := firstEnemyID(t, r)
	rec.reset()

	r.DamageEnemy(bossID, entity.BossHealth, "p1")

	assert.Equal(t, 1, rec.count(events.SBossDefeated))
	assert.Zero(t, rec.count(events.SKillCountUpdated))
	assert.Equal(t, room.BossKillXP, r.Experience("p1"))
	assert.Equal(t, room.BossKillXP, r.Experience("p2"))
}

func TestBossSkeletonKill_ImmediateRemoval(t *testing.T) {
	r, rec, clk := newTestRoom(t)
	joinN(t, r, entity.ModeCoop, "p1")
	require.NoError(t, r.StartGame("p1"))
	minion := r.SpawnBossSkeleton(vec(1, 0, 1), clk.Now())
	require.NotNil(t, minion)
	rec.reset()

	r.DamageEnemy(minion.ID, minion.Health, "p1")

	assert.Equal(t, 1, rec.count(events.SEnemyRemoved))
	assert.Equal(t, room.BossSkeletonKillXP, r.Experience("p1"))
	assert.Zero(t, r.KillCount())
	_, ok := r.Enemy(minion.ID)
	assert.False(t, ok)
}

func TestDamageTower_OwnerRejected(t *testing.T) {
	r, rec, _ := startedPvP(t)
	rec.reset()

	assert.False(t, r.DamageTower(entity.TowerID("p1"), 100, "p1", "melee"))
	assert.Zero(t, rec.count(events.STowerDamaged))

	tower, _ := r.Tower(entity.TowerID("p1"))
	assert.Equal(t, entity.TowerMaxHealth, tower.Health)
}

func TestDamageTower_DestroyedByOpponent(t *testing.T) {
	r, rec, _ := startedPvP(t)
	rec.reset()

	assert.True(t, r.DamageTower(entity.TowerID("p1"), entity.TowerMaxHealth, "p2", "melee"))

	dmg := rec.last(t, events.STowerDamaged).Payload.(*events.TowerDamaged)
	assert.True(t, dmg.WasKilled)
	destroyed := rec.last(t, events.STowerDestroyed).Payload.(*events.TowerDestroyed)
	assert.Equal(t, "p1", destroyed.OwnerID)

	tower, ok := r.Tower(entity.TowerID("p1"))
	require.True(t, ok)
	assert.True(t, tower.IsDead)
	assert.False(t, r.DamageTower(entity.TowerID("p1"), 1, "p2", "melee"))
}

func TestDamagePillar_EscalationCount(t *testing.T) {
	r, rec, _ := startedPvP(t)
	rec.reset()

	// p1 cannot break their own screen.
	assert.False(t, r.DamagePillar(entity.PillarID("p1", 0), 100, "p1"))

	assert.True(t, r.DamagePillar(entity.PillarID("p2", 0), entity.PillarMaxHealth, "p1"))

	destroyed := rec.last(t, events.SPillarDestroyed).Payload.(*events.PillarDestroyed)
	assert.Equal(t, "p2", destroyed.OwnerID)
	assert.Equal(t, "p1", destroyed.DestroyedByID)
	assert.Equal(t, 1, destroyed.DestroyedTotal)
	assert.Equal(t, 1, r.DestroyedPillarCount("p2"))
	assert.Zero(t, r.DestroyedPillarCount("p1"))
}

func TestDamagePlayer_KillingBlowSetsPendingKill(t *testing.T) {
	r, rec, _ := startedPvP(t)
	rec.reset()

	r.DamagePlayer("p1", entity.LevelMaxHealth(1)+500, "p2", "fire", true)

	dmg := rec.last(t, events.SPlayerDamaged).Payload.(*events.PlayerDamaged)
	assert.Equal(t, 0, dmg.NewHealth)
	assert.True(t, dmg.WasKilled)
	assert.True(t, dmg.IsCritical)

	kill := rec.last(t, events.SPlayerKill).Payload.(*events.PlayerKill)
	assert.Equal(t, "p2", kill.KillerID)
	assert.Equal(t, "p1", kill.VictimID)

	pk, ok := r.PendingKillFor("p1")
	require.True(t, ok)
	assert.Equal(t, "p2", pk.KillerID)

	// No XP until the victim respawns.
	assert.Zero(t, rec.count(events.SPlayerExperience))
}

func TestDamagePlayer_DeadTargetRejected(t *testing.T) {
	r, rec, _ := startedPvP(t)
	r.DamagePlayer("p1", 99999, "p2", "", false)
	rec.reset()

	r.DamagePlayer("p1", 10, "p2", "", false)
	assert.Zero(t, rec.count(events.SPlayerDamaged))
}

func TestRespawn_ConfirmsPendingKill(t *testing.T) {
	r, rec, _ := startedPvP(t)
	r.DamagePlayer("p1", 99999, "p2", "", false)
	rec.reset()

	r.RespawnPlayer("p1", nil)

	xp := rec.last(t, events.SPlayerExperience).Payload.(*events.PlayerExperience)
	assert.Equal(t, "p2", xp.PlayerID)
	assert.Equal(t, room.PvPKillXP, xp.Amount)
	assert.Equal(t, events.XPSourcePvPKill, xp.Source)

	respawn := rec.last(t, events.SPlayerRespawned).Payload.(*events.PlayerRespawned)
	assert.Equal(t, respawn.MaxHealth, respawn.Health)

	_, ok := r.PendingKillFor("p1")
	assert.False(t, ok)

	// A second respawn cannot award again.
	rec.reset()
	r.RespawnPlayer("p1", nil)
	assert.Zero(t, rec.count(events.SPlayerExperience))
}

func TestRespawn_StalePendingKillAwardsNothing(t *testing.T) {
	r, rec, clk := startedPvP(t)
	r.DamagePlayer("p1", 99999, "p2", "", false)
	clk.Advance(entity.PendingKillTTL + time.Second)
	rec.reset()

	r.RespawnPlayer("p1", nil)

	assert.Zero(t, rec.count(events.SPlayerExperience))
	assert.Equal(t, 1, rec.count(events.SPlayerRespawned))
}

func TestHealAllies_SkipsDead(t *testing.T) {
	r, rec, _ := startedPvP(t)
	r.UpdatePlayerHealth("p1", 100)
	r.DamagePlayer("p2", 99999, "p1", "", false)
	rec.reset()

	r.HealAllies("p1", 50)

	heals := rec.named(events.SAllyHealed)
	require.Len(t, heals, 1)
	healed := heals[0].Payload.(*events.AllyHealed)
	assert.Equal(t, "p1", healed.PlayerID)
	assert.Equal(t, 150, healed.Health)

	p2, _ := r.Player("p2")
	assert.Equal(t, 0, p2.Health)
}

func TestHealNearbyAllies_RadiusFilter(t *testing.T) {
	r, rec, _ := newTestRoom(t)
	joinN(t, r, entity.ModeMultiplayer, "p1", "p2", "p3")
	r.UpdatePlayerPosition("p2", vec(3, 0, 0), 0, "", nil, nil)
	r.UpdatePlayerPosition("p3", vec(50, 0, 0), 0, "", nil, nil)
	for _, id := range []string{"p1", "p2", "p3"} {
		r.UpdatePlayerHealth(id, 100)
	}
	rec.reset()

	r.HealNearbyAllies("p1", 10, 25)

	heals := rec.named(events.SAllyHealed)
	require.Len(t, heals, 2)
	healedIDs := map[string]bool{}
	for _, out := range heals {
		healedIDs[out.Payload.(*events.AllyHealed).PlayerID] = true
	}
	assert.True(t, healedIDs["p1"])
	assert.True(t, healedIDs["p2"])
	assert.False(t, healedIDs["p3"])
}

func TestStatusEffects_ApplyAndExpire(t *testing.T) {
	r, rec, clk := startedMultiplayer(t, "p1")
	enemyID := firstEnemyID(t, r)
	rec.reset()

	require.True(t, r.ApplyStatusEffect(enemyID, entity.EffectStun, 2*time.Second))

	evt := rec.last(t, events.SEnemyStatusEffect).Payload.(*events.EnemyStatusEffect)
	assert.Equal(t, "stun", evt.EffectType)
	assert.Equal(t, 2000, evt.DurationMs)

	assert.True(t, r.IsAffectedBy(enemyID, entity.EffectStun))
	assert.Len(t, r.StatusEffects(enemyID), 1)

	clk.Advance(3 * time.Second)
	assert.False(t, r.IsAffectedBy(enemyID, entity.EffectStun))
	assert.Empty(t, r.StatusEffects(enemyID))
}

func TestStatusEffects_ReapplyOverwrites(t *testing.T) {
	r, _, clk := startedMultiplayer(t, "p1")
	enemyID := firstEnemyID(t, r)

	require.True(t, r.ApplyStatusEffect(enemyID, entity.EffectBurning, time.Second))
	clk.Advance(900 * time.Millisecond)
	require.True(t, r.ApplyStatusEffect(enemyID, entity.EffectBurning, time.Second))
	clk.Advance(500 * time.Millisecond)

	assert.True(t, r.IsAffectedBy(enemyID, entity.EffectBurning))
}

func TestStatusEffects_Invalid(t *testing.T) {
	r, _, _ := startedMultiplayer(t, "p1")
	enemyID := firstEnemyID(t, r)

	assert.False(t, r.ApplyStatusEffect(enemyID, entity.StatusEffectType("charmed"), time.Second))
	assert.False(t, r.ApplyStatusEffect("ghost", entity.EffectStun, time.Second))
	assert.False(t, r.ApplyStatusEffect(enemyID, entity.EffectStun, 0))
}

// Property: however damage is sequenced, tower health stays in range and
// exactly one broadcast carries the killing blow.
func TestDamageTower_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rec := &recorder{}
		clk := newTestClock()
		r := room.NewManual("prop", zaptest.NewLogger(t), entity.DefaultCatalog(), rec.emit, clk.Now)
		defer r.Destroy()

		_, err := r.AddPlayer("p1", "P1", "sword", "", entity.ModePvP)
		require.NoError(rt, err)
		_, err = r.AddPlayer("p2", "P2", "sword", "", entity.ModePvP)
		require.NoError(rt, err)

		towerID := entity.TowerID("p1")
		hits := rapid.SliceOfN(rapid.IntRange(0, 4000), 1, 30).Draw(rt, "hits")

		for _, dmg := range hits {
			r.DamageTower(towerID, dmg, "p2", "melee")
		}

		kills := 0
		lastHealth := entity.TowerMaxHealth
		for _, out := range rec.named(events.STowerDamaged) {
			payload := out.Payload.(*events.TowerDamaged)
			require.GreaterOrEqual(rt, payload.NewHealth, 0)
			require.LessOrEqual(rt, payload.NewHealth, lastHealth)
			lastHealth = payload.NewHealth
			if payload.WasKilled {
				kills++
			}
		}
		require.LessOrEqual(rt, kills, 1)
		require.Equal(rt, kills, rec.count(events.STowerDestroyed))
	})
}
