package entity_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidhaven/arena/internal/game/entity"
	"github.com/voidhaven/arena/internal/game/geom"
)

// --- Player ---

func TestNewPlayer_MultiplayerHealth(t *testing.T) {
	p := entity.NewPlayer("p1", "Ash", "sword", "", entity.ModeMultiplayer, time.Now())
	assert.Equal(t, 200, p.MaxHealth)
	assert.Equal(t, 200, p.Health)
	assert.Equal(t, 1, p.Level)
}

func TestNewPlayer_PvPHealth(t *testing.T) {
	p := entity.NewPlayer("p1", "Ash", "sword", "", entity.ModePvP, time.Now())
	assert.Equal(t, 1000, p.MaxHealth)
}

func TestLevelMaxHealth_Scaling(t *testing.T) {
	assert.Equal(t, 1000, entity.LevelMaxHealth(1))
	assert.Equal(t, 1150, entity.LevelMaxHealth(2))
	assert.Equal(t, 1600, entity.LevelMaxHealth(5))
}

func TestPlayer_SetHealth_Clamps(t *testing.T) {
	p := entity.NewPlayer("p1", "Ash", "sword", "", entity.ModeMultiplayer, time.Now())
	p.SetHealth(-50)
	assert.Equal(t, 0, p.Health)
	p.SetHealth(9999)
	assert.Equal(t, p.MaxHealth, p.Health)
}

func TestPlayer_Heal_IgnoresDead(t *testing.T) {
	p := entity.NewPlayer("p1", "Ash", "sword", "", entity.ModeMultiplayer, time.Now())
	p.SetHealth(0)
	assert.Equal(t, 0, p.Heal(25))
	assert.Equal(t, 0, p.Health)
}

func TestPlayer_ScaleMaxHealth_ClampsCurrent(t *testing.T) {
	p := entity.NewPlayer("p1", "Ash", "sword", "", entity.ModeMultiplayer, time.Now())
	p.ScaleMaxHealth(150)
	assert.Equal(t, 150, p.MaxHealth)
	assert.Equal(t, 150, p.Health)
}

func TestLevelForExperience_Thresholds(t *testing.T) {
	cases := []struct {
		xp    int
		level int
	}{
		{0, 1}, {24, 1}, {25, 2}, {74, 2}, {75, 3}, {149, 3}, {150, 4}, {249, 4}, {250, 5}, {10000, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, entity.LevelForExperience(tc.xp), "xp=%d", tc.xp)
	}
}

// --- Enemy level gating ---

func TestLevelForKillCount_Boundaries(t *testing.T) {
	cases := []struct {
		kills int
		level int
	}{
		{0, 1}, {9, 1}, {10, 2}, {24, 2}, {25, 3}, {44, 3}, {45, 4}, {69, 4}, {70, 5}, {500, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, entity.LevelForKillCount(tc.kills), "kills=%d", tc.kills)
	}
}

// --- Catalog ---

func TestDefaultCatalog_SkeletonHealthTable(t *testing.T) {
	c := entity.DefaultCatalog()
	want := []int{725, 1084, 1241, 1361, 1424}
	for level := 1; level <= 5; level++ {
		assert.Equal(t, want[level-1], c.MaxHealth(entity.EnemySkeleton, level))
	}
}

func TestDefaultCatalog_EliteScalesByLevel(t *testing.T) {
	c := entity.DefaultCatalog()
	for level := 1; level <= 5; level++ {
		assert.Equal(t, 1000*level, c.MaxHealth(entity.EnemyElite, level))
	}
}

func TestDefaultCatalog_GatedTypesUnavailableBelowMinLevel(t *testing.T) {
	c := entity.DefaultCatalog()
	assert.Zero(t, c.MaxHealth(entity.EnemyReaper, 1))
	assert.Zero(t, c.MaxHealth(entity.EnemyAbomination, 2))
	assert.Zero(t, c.MaxHealth(entity.EnemyAscendant, 3))
	assert.Equal(t, 2081, c.MaxHealth(entity.EnemyAscendant, 4))
}

func TestDefaultCatalog_FixedHealthTypes(t *testing.T) {
	c := entity.DefaultCatalog()
	assert.Equal(t, 9704, c.MaxHealth(entity.EnemyFallenTitan, 1))
	assert.Equal(t, 9704, c.MaxHealth(entity.EnemyFallenTitan, 5))
	assert.Equal(t, 25000, c.MaxHealth(entity.EnemyBoss, 3))
}

func TestDefaultCatalog_SpawnableTypes(t *testing.T) {
	c := entity.DefaultCatalog()
	types := c.SpawnableTypes()
	assert.Len(t, types, 7)
	assert.NotContains(t, types, entity.EnemyBoss)
	assert.NotContains(t, types, entity.EnemyElite)
}

func TestLoadCatalog_EmptyPathReturnsDefaults(t *testing.T) {
	c, err := entity.LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultCatalog(), c)
}

func TestLoadCatalog_OverridesFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enemies.yaml")
	content := []byte(`enemies:
  - type: skeleton
    move_speed: 3.5
    spawn_interval_ms: 10000
  - type: mage
    alive_cap: 4
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	c, err := entity.LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 3.5, c.MoveSpeed(entity.EnemySkeleton))
	assert.Equal(t, 10*time.Second, c[entity.EnemySkeleton].SpawnInterval)
	assert.Equal(t, 4, c[entity.EnemyMage].AliveCap)
	// Untouched fields keep defaults.
	assert.Equal(t, 725, c.MaxHealth(entity.EnemySkeleton, 1))
}

func TestLoadCatalog_UnknownTypeFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enemies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enemies:\n  - type: dragon\n"), 0o644))

	_, err := entity.LoadCatalog(path)
	assert.Error(t, err)
}

// --- PvP structures ---

func TestNewTower_Defaults(t *testing.T) {
	tw := entity.NewTower("p1", "Ash", 0)
	assert.Equal(t, "tower_p1", tw.ID)
	assert.Equal(t, 10000, tw.Health)
	assert.True(t, tw.IsActive)
	assert.False(t, tw.IsDead)
}

func TestTowerPosition_SlotsOppose(t *testing.T) {
	a := entity.TowerPosition(0)
	b := entity.TowerPosition(1)
	assert.InDelta(t, entity.TowerRingRadius, geom.HorizontalDist(geom.Vector3{}, a), 1e-9)
	assert.InDelta(t, 2*entity.TowerRingRadius, geom.HorizontalDist(a, b), 1e-9)
}

func TestNewPillars_PlacementAndIDs(t *testing.T) {
	towerPos := entity.TowerPosition(0)
	pillars := entity.NewPillars("p1", towerPos)
	require.Len(t, pillars, 3)

	for i, p := range pillars {
		assert.Equal(t, entity.PillarID("p1", i), p.ID)
		assert.Equal(t, 4000, p.Health)
		// Every pillar sits behind the tower, further from the arena center.
		assert.Greater(t,
			geom.HorizontalDist(geom.Vector3{}, p.Position),
			geom.HorizontalDist(geom.Vector3{}, towerPos)-1e-9)
	}

	// Outer pillars are spaced symmetrically around the middle one.
	d0 := geom.HorizontalDist(pillars[0].Position, pillars[1].Position)
	d2 := geom.HorizontalDist(pillars[2].Position, pillars[1].Position)
	assert.InDelta(t, entity.PillarSideSpacing, d0, 1e-9)
	assert.InDelta(t, entity.PillarSideSpacing, d2, 1e-9)
}

func TestPlayerSpawnPosition_InsideTower(t *testing.T) {
	towerPos := entity.TowerPosition(0)
	spawn := entity.PlayerSpawnPosition(towerPos)
	assert.InDelta(t, entity.PlayerSpawnRadius, geom.HorizontalDist(spawn, towerPos), 1e-9)
	assert.Less(t,
		geom.HorizontalDist(geom.Vector3{}, spawn),
		geom.HorizontalDist(geom.Vector3{}, towerPos))
}

// --- Summoned units ---

func TestSummonedUnit_Expired(t *testing.T) {
	now := time.Now()
	u := &entity.SummonedUnit{
		Health:     100,
		SummonTime: now,
		Lifetime:   entity.UnitLifetime,
	}
	assert.False(t, u.Expired(now))
	assert.False(t, u.Expired(now.Add(entity.UnitLifetime-time.Second)))
	assert.True(t, u.Expired(now.Add(entity.UnitLifetime)))

	u.Health = 0
	assert.True(t, u.Expired(now))
}

// --- Status effects ---

func TestStatusEffectType_Valid(t *testing.T) {
	for _, typ := range []entity.StatusEffectType{
		entity.EffectStun, entity.EffectFreeze, entity.EffectSlow,
		entity.EffectBurning, entity.EffectCorrupted, entity.EffectVenom,
	} {
		assert.True(t, typ.Valid(), string(typ))
	}
	assert.False(t, entity.StatusEffectType("charmed").Valid())
}

func TestGameMode_Valid(t *testing.T) {
	assert.True(t, entity.ModeMultiplayer.Valid())
	assert.True(t, entity.ModePvP.Valid())
	assert.True(t, entity.ModeCoop.Valid())
	assert.False(t, entity.GameMode("ranked").Valid())
}
