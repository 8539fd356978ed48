// Package planner turns a validated game snapshot into the turn's orders:
// city actions, unit missions and collision-free moves.
package planner

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/nstehr/lantern/cluster"
	"github.com/nstehr/lantern/config"
	"github.com/nstehr/lantern/distance"
	"github.com/nstehr/lantern/features"
	"github.com/nstehr/lantern/mission"
	"github.com/nstehr/lantern/model"
)

// Turn holds everything derived from one snapshot plus the mutable state the
// planning passes share. It is single-use and single-writer.
type Turn struct {
	Game     *model.Game
	Config   config.Config
	Maps     *features.Maps
	Clusters *cluster.Index
	Table    *distance.Table

	// Step distances to the nearest cell of each kind.
	FromEmpty       features.Matrix
	FromEnemy       features.Matrix
	FromCollectable features.Matrix
	FromPlayerCity  features.Matrix
	FromEdge        features.Matrix

	nearCoal    features.Matrix
	nearUranium features.Matrix

	// occupied holds cells a unit may not step into: unit cells off friendly
	// city tiles and enemy city tiles.
	occupied features.PosSet
	unitsAt  features.Matrix
	targets  features.PosSet
	births   features.PosSet
	// clusterUnits maps a cluster root to the units standing in or heading
	// for it.
	clusterUnits map[model.Pos]map[string]bool
	missionless  map[string]bool

	units   []model.Unit
	acted   map[string]bool
	actions model.Actions
	notes   model.Actions

	mu       sync.Mutex
	degraded bool
}

// NewTurn derives the feature maps, then builds the distance table, the
// cluster index and the BFS fields concurrently. If ctx ends mid-way the turn
// is marked degraded and whatever finished is used.
func NewTurn(ctx context.Context, g *model.Game, cfg config.Config) *Turn {
	m := features.Compute(g)
	t := &Turn{
		Game:         g,
		Config:       cfg,
		Maps:         m,
		FromEdge:     edgeDistance(g.Width, g.Height),
		nearCoal:     features.Convolve(m.Exists[model.Coal]),
		nearUranium:  features.Convolve(m.Exists[model.Uranium]),
		births:       features.PosSet{},
		acted:        map[string]bool{},
		clusterUnits: map[model.Pos]map[string]bool{},
		missionless:  map[string]bool{},
	}

	t.units = append([]model.Unit(nil), g.Player.Units...)
	sort.Slice(t.units, func(i, j int) bool {
		a, b := t.units[i], t.units[j]
		if a.Pos.X != b.Pos.X {
			return a.Pos.X < b.Pos.X
		}
		if a.Pos.Y != b.Pos.Y {
			return a.Pos.Y < b.Pos.Y
		}
		return a.ID < b.ID
	})

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		t.Table = t.buildTable(ctx)
	}()
	go func() {
		defer wg.Done()
		t.Clusters = cluster.Build(g, m, cfg.Cluster.TierWeights)
	}()
	go func() {
		defer wg.Done()
		t.buildFields(ctx)
	}()
	wg.Wait()

	t.occupied = features.PosSet{}
	for _, u := range g.Player.Units {
		if !m.PlayerCitySet.Has(u.Pos) {
			t.occupied.Add(u.Pos)
		}
	}
	for _, u := range g.Opponent.Units {
		t.occupied.Add(u.Pos)
	}
	for p := range m.OpponentCitySet {
		t.occupied.Add(p)
	}
	t.unitsAt = features.NewMatrix(g.Width, g.Height)
	for _, u := range g.Player.Units {
		t.unitsAt.Set(u.Pos, t.unitsAt.At(u.Pos)+1)
	}
	return t
}

func (t *Turn) buildTable(ctx context.Context) *distance.Table {
	g, m := t.Game, t.Maps
	blocked := features.PosSet{}
	for _, u := range g.Opponent.Units {
		blocked.Add(u.Pos)
	}
	for _, u := range g.Player.Units {
		if !u.CanAct() && !m.PlayerCitySet.Has(u.Pos) {
			blocked.Add(u.Pos)
		}
	}
	costs := distance.Costs{
		Blocked:        blocked,
		EnemyStructure: m.OpponentCitySet,
		BlockedPenalty: t.Config.Distance.BlockedPenalty,
		EnemyPenalty:   t.Config.Distance.EnemyStructurePenalty(),
	}
	cells := make([]model.Pos, len(g.Player.Units))
	for i, u := range g.Player.Units {
		cells[i] = u.Pos
	}
	table, err := distance.NewTable(ctx, g.Width, g.Height, distance.Origins(g.Width, g.Height, cells), costs)
	if err != nil {
		t.markDegraded("distance table", err)
	}
	return table
}

func (t *Turn) buildFields(ctx context.Context) {
	g, m := t.Game, t.Maps
	var enemy []model.Pos
	for _, u := range g.Opponent.Units {
		enemy = append(enemy, u.Pos)
	}
	enemy = append(enemy, m.OpponentCitySet.Sorted()...)

	fields := []struct {
		dst     *features.Matrix
		sources []model.Pos
	}{
		{&t.FromEmpty, m.EmptySet.Sorted()},
		{&t.FromEnemy, enemy},
		{&t.FromCollectable, m.CollectableSet.Sorted()},
		{&t.FromPlayerCity, m.PlayerCitySet.Sorted()},
	}
	for _, f := range fields {
		field, err := distance.BFS(ctx, g.Width, g.Height, f.sources)
		if err != nil {
			t.markDegraded("bfs", err)
		}
		*f.dst = field
	}
}

// markDegraded is safe to call from the NewTurn workers.
func (t *Turn) markDegraded(stage string, err error) {
	t.mu.Lock()
	t.degraded = true
	t.mu.Unlock()
	slog.Warn("turn degraded", "turn", t.Game.Turn, "stage", stage, "error", err)
}

// Degraded reports whether any stage hit the deadline.
func (t *Turn) Degraded() bool { return t.degraded }

// Actions returns the turn's gameplay actions in emission order, followed by
// annotations when enabled.
func (t *Turn) Actions() model.Actions {
	out := append(model.Actions(nil), t.actions...)
	if t.Config.Annotate {
		out = append(out, t.notes...)
	}
	return out
}

// Units returns the player's units with positions updated by this turn's
// moves, in planning order.
func (t *Turn) Units() []model.Unit { return t.units }

// refresh rebuilds the target set and per-cluster unit counts from the store.
func (t *Turn) refresh(store *mission.Store) {
	t.targets = store.Targets()
	t.clusterUnits = map[model.Pos]map[string]bool{}
	t.missionless = map[string]bool{}
	for _, u := range t.units {
		t.countIn(u.Pos, u.ID)
		if _, ok := store.Get(u.ID); !ok {
			t.missionless[u.ID] = true
		}
	}
	for _, m := range store.All() {
		t.countIn(m.Target, m.UnitID)
	}
}

func (t *Turn) countIn(p model.Pos, unitID string) {
	if !t.Clusters.Member(p) {
		return
	}
	root := t.Clusters.Find(p)
	if t.clusterUnits[root] == nil {
		t.clusterUnits[root] = map[string]bool{}
	}
	t.clusterUnits[root][unitID] = true
}

// othersIn counts units other than unitID committed to the cluster at root.
func (t *Turn) othersIn(root model.Pos, unitID string) int {
	set := t.clusterUnits[root]
	if set[unitID] {
		return len(set) - 1
	}
	return len(set)
}

// conditions snapshots what mission cleanup checks against.
func (t *Turn) conditions() mission.Conditions {
	units := make(map[string]model.Unit, len(t.units))
	for _, u := range t.units {
		units[u.ID] = u
	}
	return mission.Conditions{
		Turn:           t.Game.Turn,
		Units:          units,
		BuildCost:      t.Game.Constants.CityBuildCost,
		PlayerCities:   t.Maps.PlayerCitySet,
		OpponentCities: t.Maps.OpponentCitySet,
		Mineable:       t.Maps.ConvolvedCollectableSet,
		Buildable:      t.Maps.BuildableSet,
	}
}

// distance looks up the weighted path cost, falling back to Manhattan
// distance for unseeded origins. Fallbacks are counted by the table.
func (t *Turn) distance(a, b model.Pos) int {
	d, err := t.Table.Distance(a, b)
	if err != nil {
		slog.Debug("approximated distance", "from", a, "to", b, "error", err)
	}
	return d
}

// travelRange is how many steps a worker can take before night falls or the
// match ends.
func (t *Turn) travelRange() int {
	c := t.Game.Constants
	clk := t.Game.Clock()
	r := clk.TurnsToNight()/c.WorkerCooldown - t.Config.Scoring.RangeSlack
	if left := clk.TurnsLeft() / c.WorkerCooldown; left < r {
		r = left
	}
	return max(r, 0)
}

func edgeDistance(w, h int) features.Matrix {
	m := features.NewMatrix(w, h)
	for y := range m {
		for x := range m[y] {
			m[y][x] = min(x, y, w-1-x, h-1-y)
		}
	}
	return m
}
