package rules

import (
	"log/slog"

	"github.com/nstehr/lantern/model"
)

// ActionResearch invests the tile's turn in research. The tally's research
// counter moves immediately so later tiles see the unlock.
func ActionResearch(env CityEnv) error {
	env.Tally.Actions = append(env.Tally.Actions, model.Research(env.Tile.Pos))
	env.Tally.ResearchPoints++
	slog.Debug("research", "tile", env.Tile.Pos, "points", env.Tally.ResearchPoints)
	return nil
}

// ActionBuildWorker spawns a worker on the tile and records the birth so the
// planner can protect the newcomer's first mission.
func ActionBuildWorker(env CityEnv) error {
	env.Tally.Actions = append(env.Tally.Actions, model.BuildWorker(env.Tile.Pos))
	env.Tally.Units++
	env.Tally.Births = append(env.Tally.Births, env.Tile.Pos)
	slog.Debug("build worker", "tile", env.Tile.Pos, "units", env.Tally.Units, "cap", env.Tally.UnitCap)
	return nil
}

// ActionHold deliberately issues nothing. It exists so an exclusive rule can
// claim the tile's category.
func ActionHold(env CityEnv) error {
	slog.Debug("hold", "tile", env.Tile.Pos)
	return nil
}
