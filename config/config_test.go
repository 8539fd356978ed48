package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nstehr/lantern/model"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if got := Default().Distance.EnemyStructurePenalty(); got != 5000 {
		t.Errorf("EnemyStructurePenalty() = %d, want 5000", got)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lantern.yaml")
	src := `
turn_budget: 1500ms
game:
  day_length: 20
distance:
  blocked_penalty: 50
mission:
  retry_budget: 0
doctrine:
  name: rush
  research_priority: 0.2
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TurnBudget != 1500*time.Millisecond {
		t.Errorf("TurnBudget = %v, want 1.5s", cfg.TurnBudget)
	}
	if cfg.Game.DayLength != 20 || cfg.Game.NightLength != 10 {
		t.Errorf("day/night = %d/%d, want 20/10", cfg.Game.DayLength, cfg.Game.NightLength)
	}
	if cfg.Distance.BlockedPenalty != 50 || cfg.Distance.EnemyStructureMultiplier != 50 {
		t.Errorf("distance = %+v", cfg.Distance)
	}
	if cfg.Mission.RetryBudget != 0 || cfg.Mission.BornTTL != 3 {
		t.Errorf("mission = %+v", cfg.Mission)
	}
	if cfg.Doctrine.Name != "rush" || cfg.Doctrine.ExpansionPriority != 0.5 {
		t.Errorf("doctrine = %+v", cfg.Doctrine)
	}
	if cfg.Game.FuelRate[model.Uranium] != 40 {
		t.Errorf("fuel rate for uranium = %d, want 40", cfg.Game.FuelRate[model.Uranium])
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("game:\n  worker_cooldown: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for zero worker_cooldown")
	}
	if err := os.WriteFile(path, []byte("doctrine:\n  research_priority: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for out of range doctrine weight")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
