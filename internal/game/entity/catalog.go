package entity

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnemyStats holds the tuning for one enemy archetype: per-level max health,
// movement, and spawn cadence.
//
// Invariant: HealthByLevel[l-1] == 0 means the type is unavailable at level l.
type EnemyStats struct {
	// HealthByLevel is max health indexed by difficulty level 1..5.
	HealthByLevel [5]int
	// MoveSpeed is the pursuit speed in units/s. Zero means stationary.
	MoveSpeed float64
	// SpawnInterval is the periodic spawn cadence. Zero means the type is
	// never spawned by the spawn engine (boss, boss-skeleton).
	SpawnInterval time.Duration
	// MinLevel is the lowest difficulty level at which the type spawns.
	MinLevel int
	// AliveCap limits concurrent live instances of this type. Zero = uncapped.
	AliveCap int
	// PerSpawn is how many instances one timer firing produces.
	PerSpawn int
}

// Catalog maps every enemy archetype to its stats.
type Catalog map[EnemyType]EnemyStats

// MaxEnemies is the global cap on concurrent PvE enemies in a room.
const MaxEnemies = 5

// BossHealth is the fixed health of the coop boss.
const BossHealth = 25000

// DefaultCatalog returns the built-in tuning tables. These numbers are the
// authoritative live values; a YAML content file may override individual
// fields via LoadCatalog.
func DefaultCatalog() Catalog {
	return Catalog{
		EnemyElite: {
			HealthByLevel: [5]int{1000, 2000, 3000, 4000, 5000},
			MoveSpeed:     0,
			MinLevel:      1,
		},
		EnemySkeleton: {
			HealthByLevel: [5]int{725, 1084, 1241, 1361, 1424},
			MoveSpeed:     2.0,
			SpawnInterval: 13500 * time.Millisecond,
			MinLevel:      1,
			PerSpawn:      2,
		},
		EnemyMage: {
			HealthByLevel: [5]int{684, 829, 925, 1029, 1141},
			MoveSpeed:     1.5,
			SpawnInterval: 20500 * time.Millisecond,
			MinLevel:      1,
			AliveCap:      2,
			PerSpawn:      1,
		},
		EnemyReaper: {
			HealthByLevel: [5]int{0, 1084, 1241, 1361, 1424},
			MoveSpeed:     2.5,
			SpawnInterval: 22500 * time.Millisecond,
			MinLevel:      2,
			PerSpawn:      1,
		},
		EnemyDeathKnight: {
			HealthByLevel: [5]int{0, 0, 1681, 1849, 2081},
			MoveSpeed:     1.8,
			SpawnInterval: 17500 * time.Millisecond,
			MinLevel:      3,
			PerSpawn:      1,
		},
		EnemyAbomination: {
			HealthByLevel: [5]int{0, 0, 2304, 2500, 2704},
			MoveSpeed:     1.0,
			SpawnInterval: 45 * time.Second,
			MinLevel:      3,
			PerSpawn:      1,
		},
		EnemyAscendant: {
			HealthByLevel: [5]int{0, 0, 0, 2081, 2249},
			MoveSpeed:     2.2,
			SpawnInterval: 35 * time.Second,
			MinLevel:      4,
			PerSpawn:      1,
		},
		EnemyFallenTitan: {
			HealthByLevel: [5]int{9704, 9704, 9704, 9704, 9704},
			MoveSpeed:     0.8,
			SpawnInterval: 60 * time.Second,
			MinLevel:      5,
			AliveCap:      1,
			PerSpawn:      1,
		},
		EnemyBoss: {
			HealthByLevel: [5]int{BossHealth, BossHealth, BossHealth, BossHealth, BossHealth},
			MoveSpeed:     0,
			MinLevel:      1,
		},
		EnemyBossSkeleton: {
			HealthByLevel: [5]int{1000, 1000, 1000, 1000, 1000},
			MoveSpeed:     2.0,
			MinLevel:      1,
		},
	}
}

// MaxHealth returns the max health for typ at the given difficulty level.
// Returns 0 when the type is unavailable at that level.
//
// Precondition: level in [1, 5].
func (c Catalog) MaxHealth(typ EnemyType, level int) int {
	stats, ok := c[typ]
	if !ok {
		return 0
	}
	if level < 1 || level > len(stats.HealthByLevel) {
		return 0
	}
	return stats.HealthByLevel[level-1]
}

// MoveSpeed returns the pursuit speed for typ, 0 for unknown types.
func (c Catalog) MoveSpeed(typ EnemyType) float64 {
	return c[typ].MoveSpeed
}

// SpawnableTypes returns the archetypes the spawn engine drives on timers,
// in a stable order.
func (c Catalog) SpawnableTypes() []EnemyType {
	ordered := []EnemyType{
		EnemySkeleton, EnemyMage, EnemyReaper, EnemyDeathKnight,
		EnemyAbomination, EnemyAscendant, EnemyFallenTitan,
	}
	result := make([]EnemyType, 0, len(ordered))
	for _, typ := range ordered {
		if c[typ].SpawnInterval > 0 {
			result = append(result, typ)
		}
	}
	return result
}

// catalogFile is the YAML schema for enemy tuning overrides.
type catalogFile struct {
	Enemies []struct {
		Type            string   `yaml:"type"`
		HealthByLevel   []int    `yaml:"health_by_level"`
		MoveSpeed       *float64 `yaml:"move_speed"`
		SpawnIntervalMs *int     `yaml:"spawn_interval_ms"`
		MinLevel        *int     `yaml:"min_level"`
		AliveCap        *int     `yaml:"alive_cap"`
		PerSpawn        *int     `yaml:"per_spawn"`
	} `yaml:"enemies"`
}

// LoadCatalog reads a YAML tuning file and applies it on top of the defaults.
// Fields omitted in the file keep their default values. An empty path returns
// the defaults unchanged.
//
// Postcondition: Returns a complete Catalog or a non-nil error.
func LoadCatalog(path string) (Catalog, error) {
	catalog := DefaultCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading enemy catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing enemy catalog: %w", err)
	}

	for _, entry := range file.Enemies {
		typ := EnemyType(entry.Type)
		stats, ok := catalog[typ]
		if !ok {
			return nil, fmt.Errorf("enemy catalog: unknown type %q", entry.Type)
		}
		if len(entry.HealthByLevel) > 0 {
			if len(entry.HealthByLevel) != len(stats.HealthByLevel) {
				return nil, fmt.Errorf("enemy catalog: %s health_by_level must have %d entries, got %d",
					entry.Type, len(stats.HealthByLevel), len(entry.HealthByLevel))
			}
			copy(stats.HealthByLevel[:], entry.HealthByLevel)
		}
		if entry.MoveSpeed != nil {
			stats.MoveSpeed = *entry.MoveSpeed
		}
		if entry.SpawnIntervalMs != nil {
			stats.SpawnInterval = time.Duration(*entry.SpawnIntervalMs) * time.Millisecond
		}
		if entry.MinLevel != nil {
			stats.MinLevel = *entry.MinLevel
		}
		if entry.AliveCap != nil {
			stats.AliveCap = *entry.AliveCap
		}
		if entry.PerSpawn != nil {
			stats.PerSpawn = *entry.PerSpawn
		}
		catalog[typ] = stats
	}

	return catalog, nil
}
