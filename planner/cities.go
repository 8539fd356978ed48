package planner

import (
	"github.com/nstehr/lantern/model"
	"github.com/nstehr/lantern/rules"
)

// CityActions evaluates the rule engine for every city tile that can act, in
// row-major order. Research and unit counts carry over from tile to tile.
// Tiles that build a worker are remembered so the newcomer may leave even
// when the city needs fuel.
func (t *Turn) CityActions(engine *rules.Engine) {
	g := t.Game
	clk := g.Clock()
	tally := rules.NewTally(g.Player)

	for _, tile := range g.Player.CityTiles() {
		if !tile.CanAct() {
			continue
		}
		root := t.Clusters.Find(tile.Pos)
		engine.Evaluate(rules.CityEnv{
			Tile:            tile,
			Turn:            g.Turn,
			MaxTurns:        g.Constants.MaxTurns,
			TurnsToNight:    clk.TurnsToNight(),
			NearestResource: t.FromCollectable.At(tile.Pos),
			TravelRange:     clk.TurnsToNight() / g.Constants.WorkerCooldown,
			ClusterUnits:    len(t.clusterUnits[root]),
			ClusterTiles:    t.Clusters.TileCount(root),
			CoalResearch:    g.Constants.CoalResearch,
			UraniumResearch: g.Constants.UraniumResearch,
			Tally:           tally,
		})
	}

	t.actions = append(t.actions, tally.Actions...)
	for _, a := range tally.Actions {
		if a.Kind == model.ActionResearch {
			t.note(a.Pos, "R")
		}
	}
	for _, p := range tally.Births {
		t.births.Add(p)
	}
}
