// Package config loads the planner's tuning file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nstehr/lantern/model"
	"github.com/nstehr/lantern/rules"
)

// Config is the full tuning surface. Zero values in the file keep the
// defaults from Default.
type Config struct {
	TurnBudget time.Duration   `yaml:"turn_budget"`
	Game       model.Constants `yaml:"game"`
	Distance   Distance        `yaml:"distance"`
	Cluster    Cluster         `yaml:"cluster"`
	Scoring    Scoring         `yaml:"scoring"`
	Mission    Mission         `yaml:"mission"`
	Doctrine   rules.Doctrine  `yaml:"doctrine"`
	Annotate   bool            `yaml:"annotate"`
}

// Distance holds the traversal cost model for weighted distance fields.
type Distance struct {
	// BlockedPenalty is the cost of entering a cell held by a blocking unit.
	BlockedPenalty int `yaml:"blocked_penalty"`
	// EnemyStructureMultiplier scales BlockedPenalty for enemy city tiles.
	EnemyStructureMultiplier int `yaml:"enemy_structure_multiplier"`
}

// EnemyStructurePenalty is the cost of entering an enemy city tile.
func (d Distance) EnemyStructurePenalty() int {
	return d.BlockedPenalty * d.EnemyStructureMultiplier
}

type Cluster struct {
	TierWeights map[model.ResourceType]int `yaml:"tier_weights"`
}

// Scoring weights the combined component of the cluster score.
type Scoring struct {
	PathDistance  int `yaml:"path_distance"`
	EnemyDistance int `yaml:"enemy_distance"`
	EdgeDistance  int `yaml:"edge_distance"`
	EdgeCap       int `yaml:"edge_cap"`
	AdjacentEnemy int `yaml:"adjacent_enemy"`
	// RangeSlack is subtracted from the daylight travel range.
	RangeSlack int `yaml:"range_slack"`
}

type Mission struct {
	// RetryBudget is how many failed turns a mission survives.
	RetryBudget int `yaml:"retry_budget"`
	// BornTTL is how many turns a freshly spawned unit's mission is protected.
	BornTTL int `yaml:"born_ttl"`
	// BuildRadius bounds how far a full unit walks to found a city.
	BuildRadius int `yaml:"build_radius"`
}

// Default returns the tuning used when no file is given.
func Default() Config {
	return Config{
		TurnBudget: 3 * time.Second,
		Game:       model.DefaultConstants(),
		Distance: Distance{
			BlockedPenalty:           100,
			EnemyStructureMultiplier: 50,
		},
		Cluster: Cluster{
			TierWeights: map[model.ResourceType]int{model.Wood: 1, model.Coal: 2, model.Uranium: 3},
		},
		Scoring: Scoring{
			PathDistance:  4,
			EnemyDistance: 1,
			EdgeDistance:  1,
			EdgeCap:       3,
			AdjacentEnemy: 10,
			RangeSlack:    2,
		},
		Mission: Mission{
			RetryBudget: 1,
			BornTTL:     3,
			BuildRadius: 3,
		},
		Doctrine: rules.DefaultDoctrine(),
	}
}

// Load reads a YAML tuning file on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the planner cannot run with.
func (c Config) Validate() error {
	switch {
	case c.TurnBudget <= 0:
		return fmt.Errorf("turn_budget must be positive, got %v", c.TurnBudget)
	case c.Game.DayLength <= 0 || c.Game.NightLength < 0:
		return fmt.Errorf("invalid day/night lengths %d/%d", c.Game.DayLength, c.Game.NightLength)
	case c.Game.MaxTurns <= 0:
		return fmt.Errorf("max_turns must be positive, got %d", c.Game.MaxTurns)
	case c.Game.WorkerCooldown <= 0:
		return fmt.Errorf("worker_cooldown must be positive, got %d", c.Game.WorkerCooldown)
	case c.Game.WorkerCapacity <= 0:
		return fmt.Errorf("worker_capacity must be positive, got %d", c.Game.WorkerCapacity)
	case c.Game.CoalResearch >= c.Game.UraniumResearch:
		return fmt.Errorf("uranium_research (%d) must exceed coal_research (%d)", c.Game.UraniumResearch, c.Game.CoalResearch)
	case c.Distance.BlockedPenalty <= 1 || c.Distance.EnemyStructureMultiplier <= 1:
		return fmt.Errorf("distance penalties must exceed 1")
	case c.Mission.RetryBudget < 0:
		return fmt.Errorf("retry_budget must not be negative, got %d", c.Mission.RetryBudget)
	case c.Doctrine.ResearchPriority < 0 || c.Doctrine.ResearchPriority > 1 ||
		c.Doctrine.ExpansionPriority < 0 || c.Doctrine.ExpansionPriority > 1:
		return fmt.Errorf("doctrine weights must lie in [0, 1], got %+v", c.Doctrine)
	}
	return nil
}
