package planner

import (
	"context"
	"log/slog"

	"github.com/nstehr/lantern/mission"
	"github.com/nstehr/lantern/model"
)

// Resolve turns missions into at most one action per unit. The primary pass
// repeats until no unit can make further progress, since a unit blocked by
// another may be freed once that unit moves. Ejection, dispersal and
// sitting-duck passes run afterwards. Units whose missions produced no action
// are charged a failed turn.
func (t *Turn) Resolve(ctx context.Context, store *mission.Store) {
	pending := map[string]bool{}
	for _, id := range store.IDs() {
		pending[id] = true
	}

	for progress := true; progress; {
		progress = false
		for i := range t.units {
			if err := ctx.Err(); err != nil {
				t.markDegraded("resolver", err)
				return
			}
			u := &t.units[i]
			if t.acted[u.ID] || !u.CanAct() {
				delete(pending, u.ID)
				continue
			}
			m, ok := store.Get(u.ID)
			if !ok {
				delete(pending, u.ID)
				continue
			}

			if u.Pos == m.Target {
				delete(pending, u.ID)
				store.Delete(u.ID)
				if t.canFound(*u, m) {
					t.emit(u, model.BuildCity(u.ID))
					progress = true
				}
				continue
			}

			if dir, ok := t.step(*u, m.Target); ok {
				delete(pending, u.ID)
				store.ResetDelay(u.ID)
				if t.Config.Annotate {
					t.notes = append(t.notes, model.DrawLine(u.Pos, m.Target))
				}
				t.move(u, dir)
				progress = true
			}
		}
	}

	t.eject(ctx, store)
	t.disperse()
	t.unseatSittingDucks(store)

	// A unit moved by a fallback pass did act this turn.
	for id := range pending {
		if t.acted[id] {
			delete(pending, id)
		}
	}

	if len(pending) > 0 {
		failed := make([]string, 0, len(pending))
		for id := range pending {
			failed = append(failed, id)
		}
		for _, id := range store.Decay(failed) {
			slog.Debug("mission abandoned", "unit", id)
		}
	}
}

// canFound reports whether arriving on the target should found a city. Never
// at dusk: the new tile would face the whole night unfuelled.
func (t *Turn) canFound(u model.Unit, m mission.Mission) bool {
	return m.Action == mission.BuildCity &&
		!t.Game.Clock().IsDusk() &&
		u.Cargo.Total() >= t.Game.Constants.CityBuildCost &&
		t.Maps.BuildableSet.Has(u.Pos)
}

// step picks the best single move toward target. Candidates are compared on
// (soft penalty, path distance, Manhattan distance, -nearby resources) and the
// winner is taken only if it strictly beats staying put on the last three.
func (t *Turn) step(u model.Unit, target model.Pos) (model.Direction, bool) {
	fromCity := t.Maps.PlayerCitySet.Has(u.Pos)
	pathTo := func(p model.Pos) int {
		if fromCity {
			return p.Distance(target)
		}
		return t.distance(p, target)
	}
	stay := [3]int{pathTo(u.Pos), u.Pos.Distance(target), -t.Maps.ConvolvedCollectable.At(u.Pos)}

	var (
		bestDir  model.Direction
		bestCost [4]int
		found    bool
	)
	for _, dir := range model.Directions {
		p := u.Pos.Translate(dir)
		if !t.Game.InBounds(p) || t.Maps.OpponentCitySet.Has(p) {
			continue
		}
		if t.occupied.Has(p) && !t.Maps.PlayerCitySet.Has(p) {
			continue
		}
		soft := 0
		// Early on, keep wood out of cities unless the city is the goal.
		if t.Maps.PlayerCitySet.Has(p) && p != target && u.Cargo.Wood >= 60 && t.Game.Turn <= 80 {
			soft = 1
		}
		cost := [4]int{soft, pathTo(p), p.Distance(target), -t.Maps.ConvolvedCollectable.At(p)}
		if !found || lessCost(cost[:], bestCost[:]) {
			bestDir, bestCost, found = dir, cost, true
		}
	}
	if !found || !lessCost(bestCost[1:], stay[:]) {
		return model.Center, false
	}
	return bestDir, true
}

func lessCost(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// move commits a step and updates occupancy immediately so later units in
// the same pass see it.
func (t *Turn) move(u *model.Unit, dir model.Direction) {
	from, to := u.Pos, u.Pos.Translate(dir)
	t.emit(u, model.Move(u.ID, dir))

	t.unitsAt.Set(from, t.unitsAt.At(from)-1)
	if t.unitsAt.At(from) == 0 {
		t.occupied.Remove(from)
	}
	t.unitsAt.Set(to, t.unitsAt.At(to)+1)
	if !t.Maps.PlayerCitySet.Has(to) {
		t.occupied.Add(to)
	}
	u.Pos = to
}

func (t *Turn) emit(u *model.Unit, a model.Action) {
	t.actions = append(t.actions, a)
	t.acted[u.ID] = true
	u.Cooldown += float64(t.Game.Constants.WorkerCooldown)
}

// free reports whether a unit may step into p this turn.
func (t *Turn) free(p model.Pos) bool {
	if !t.Game.InBounds(p) || t.Maps.OpponentCitySet.Has(p) {
		return false
	}
	return t.Maps.PlayerCitySet.Has(p) || !t.occupied.Has(p)
}

func (t *Turn) idle(u *model.Unit) bool { return u.CanAct() && !t.acted[u.ID] }

// eject lets a nearly full unit standing off open ground hand its cargo to a
// neighbour sitting on a city tile beside open ground, which then steps out
// onto that open cell with a fresh mission.
func (t *Turn) eject(ctx context.Context, store *mission.Store) {
	c := t.Game.Constants
	for progress := true; progress; {
		progress = false
		for i := range t.units {
			src := &t.units[i]
			if !t.idle(src) || t.Maps.EmptySet.Has(src.Pos) || src.Cargo.SpaceLeft(c.WorkerCapacity) > 4 {
				continue
			}
			for j := range t.units {
				dst := &t.units[j]
				if i == j || !t.idle(dst) || src.Pos.Distance(dst.Pos) != 1 {
					continue
				}
				if !t.Maps.PlayerCitySet.Has(dst.Pos) || t.FromEmpty.At(dst.Pos) != 1 {
					continue
				}
				dir, ok := t.firstOpen(dst.Pos, func(p model.Pos) bool { return t.Maps.EmptySet.Has(p) })
				if !ok {
					continue
				}
				slog.Debug("ejecting", "unit", src.ID, "pos", src.Pos, "ejected", dst.ID, "from", dst.Pos)
				t.note(src.Pos, "E")
				t.emit(src, model.Transfer(src.ID, dst.ID, src.Cargo.MostCommon(), 2000))
				t.move(dst, dir)
				t.reassign(ctx, store, *dst)
				progress = true
				break
			}
		}
	}
}

// reassign points an ejected unit at a fresh target from its new cell.
func (t *Turn) reassign(ctx context.Context, store *mission.Store, u model.Unit) {
	store.Delete(u.ID)
	t.refresh(store)
	target, _, ok := t.BestTarget(ctx, u)
	if !ok {
		return
	}
	t.assign(store, mission.Mission{UnitID: u.ID, Target: target, CreatedTurn: t.Game.Turn})
}

// disperse moves all but one unit off any non-city cell holding several.
func (t *Turn) disperse() {
	for i := range t.units {
		u := &t.units[i]
		if !t.idle(u) || t.Maps.PlayerCitySet.Has(u.Pos) || t.unitsAt.At(u.Pos) <= 1 {
			continue
		}
		if dir, ok := t.firstOpen(u.Pos, t.free); ok {
			slog.Debug("dispersing", "unit", u.ID, "pos", u.Pos)
			t.note(u.Pos, "D")
			t.move(u, dir)
		}
	}
}

// unseatSittingDucks nudges idle units with no mission that stand in the open
// away from any resource toward the nearest collectable cell. Units inside a
// city and units at night stay put.
func (t *Turn) unseatSittingDucks(store *mission.Store) {
	if t.Game.Clock().IsNight() {
		return
	}
	for i := range t.units {
		u := &t.units[i]
		if !t.idle(u) || t.Maps.ConvolvedCollectableSet.Has(u.Pos) || t.Maps.PlayerCitySet.Has(u.Pos) {
			continue
		}
		if _, ok := store.Get(u.ID); ok {
			continue
		}
		var (
			bestDir model.Direction
			bestD   int
			found   bool
		)
		for _, dir := range model.Directions {
			p := u.Pos.Translate(dir)
			if !t.free(p) {
				continue
			}
			if d := t.FromCollectable.At(p); !found || d < bestD {
				bestDir, bestD, found = dir, d, true
			}
		}
		if found {
			slog.Debug("unseating sitting duck", "unit", u.ID, "pos", u.Pos)
			t.note(u.Pos, "S")
			t.move(u, bestDir)
		}
	}
}

// firstOpen returns the first direction, in priority order, whose cell is
// free and satisfies ok.
func (t *Turn) firstOpen(from model.Pos, ok func(model.Pos) bool) (model.Direction, bool) {
	for _, dir := range model.Directions {
		p := from.Translate(dir)
		if t.free(p) && ok(p) {
			return dir, true
		}
	}
	return model.Center, false
}

func (t *Turn) note(p model.Pos, text string) {
	if t.Config.Annotate {
		t.notes = append(t.notes, model.DrawText(p, text))
	}
}
