package planner

import (
	"context"
	"log/slog"

	"github.com/nstehr/lantern/mission"
	"github.com/nstehr/lantern/model"
)

// PlanMissions gives every unit without a live mission a new one. Missions
// are planned whether or not the unit can act this turn. In order of
// preference a unit:
//   - stays put to fuel the city tile it stands on
//   - founds a city on a nearby empty cell when its cargo is full
//   - keeps its current mission
//   - heads for the best scoring resource
//   - carries its cargo home
func (t *Turn) PlanMissions(ctx context.Context, store *mission.Store) {
	clk := t.Game.Clock()
	c := t.Game.Constants
	cycle := c.Cycle()

	for _, u := range t.units {
		if err := ctx.Err(); err != nil {
			t.markDegraded("missions", err)
			return
		}
		cur, has := store.Get(u.ID)

		if t.fuellingCity(u) {
			slog.Debug("staying to fuel city", "unit", u.ID, "pos", u.Pos)
			continue
		}

		phase := clk.Turn % cycle
		stayTillDawn := u.Cargo.SpaceLeft(c.WorkerCapacity) <= 4 && (phase >= cycle-4 || phase == 0)
		if u.Cargo.SpaceLeft(c.WorkerCapacity) == 0 || stayTillDawn {
			var own *model.Pos
			if has {
				own = &cur.Target
			}
			spot, d, ok := t.nearestBuildSpot(u.Pos, own)
			if ok && d <= t.Config.Mission.BuildRadius && (stayTillDawn || d*2 <= clk.TurnsToNight()-2) {
				if has && cur.Action == mission.BuildCity && cur.Target == spot {
					continue
				}
				slog.Debug("mission: build city", "unit", u.ID, "pos", u.Pos, "target", spot)
				t.assign(store, mission.Mission{UnitID: u.ID, Target: spot, Action: mission.BuildCity, CreatedTurn: clk.Turn})
				continue
			}
		}

		if has {
			continue
		}

		if target, score, ok := t.BestTarget(ctx, u); ok {
			m := mission.Mission{UnitID: u.ID, Target: target, CreatedTurn: clk.Turn}
			if t.Maps.PlayerCitySet.Has(u.Pos) && u.Cargo.Total() == 0 {
				m.Detail = mission.DetailBorn
			}
			slog.Debug("mission: mine", "unit", u.ID, "pos", u.Pos, "target", target, "score", score)
			t.assign(store, m)
			continue
		}

		if u.Cargo.Total() > 0 {
			if home, ok := t.nearestHome(u.Pos); ok {
				slog.Debug("mission: homing", "unit", u.ID, "pos", u.Pos, "target", home)
				t.assign(store, mission.Mission{UnitID: u.ID, Target: home, Detail: mission.DetailHoming, CreatedTurn: clk.Turn})
			}
		}
	}
}

func (t *Turn) assign(store *mission.Store, m mission.Mission) {
	store.Assign(m)
	t.refresh(store)
}

// fuellingCity reports whether u stands on one of its city tiles that is short
// of fuel while a researched high-tier resource is in reach. New workers
// spawning on the tile are exempt so they can leave.
func (t *Turn) fuellingCity(u model.Unit) bool {
	cell := t.Game.At(u.Pos)
	if cell.CityTile == nil || cell.CityTile.Team != t.Game.Player.Team || t.births.Has(u.Pos) {
		return false
	}
	city := t.Game.Player.Cities[cell.CityTile.CityID]
	c := t.Game.Constants
	if t.Game.Clock().FuelShortfall(city) > 0 && t.Game.Player.ResearchedUranium(c) && t.nearUranium.At(u.Pos) > 0 {
		return true
	}
	nightNeed := city.LightUpkeep*float64(c.NightLength) - city.Fuel
	return nightNeed > 0 && t.Game.Player.ResearchedCoal(c) && t.nearCoal.At(u.Pos) > 0
}

// nearestBuildSpot returns the closest empty cell no other mission targets.
// The unit's own cell counts when it is buildable. own is the unit's current
// target, which stays eligible.
func (t *Turn) nearestBuildSpot(from model.Pos, own *model.Pos) (model.Pos, int, bool) {
	claimed := func(p model.Pos) bool {
		return t.targets.Has(p) && (own == nil || *own != p)
	}
	if t.Maps.BuildableSet.Has(from) && !claimed(from) {
		return from, 0, true
	}
	var (
		best  model.Pos
		bestD int
		found bool
	)
	for _, p := range t.Maps.EmptySet.Sorted() {
		if claimed(p) {
			continue
		}
		if d := from.Distance(p); !found || d < bestD {
			best, bestD, found = p, d, true
		}
	}
	return best, bestD, found
}

// nearestHome returns the closest friendly city tile, preferring cities that
// will run out of fuel before the match ends.
func (t *Turn) nearestHome(from model.Pos) (model.Pos, bool) {
	clk := t.Game.Clock()
	var (
		best        model.Pos
		bestFuelled bool
		bestD       int
		found       bool
	)
	for _, tile := range t.Game.Player.CityTiles() {
		fuelled := clk.FuelShortfall(t.Game.Player.Cities[tile.CityID]) == 0
		d := from.Distance(tile.Pos)
		better := !found ||
			(!fuelled && bestFuelled) ||
			(fuelled == bestFuelled && d < bestD)
		if better {
			best, bestFuelled, bestD, found = tile.Pos, fuelled, d, true
		}
	}
	return best, found
}
