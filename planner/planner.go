package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nstehr/lantern/config"
	"github.com/nstehr/lantern/mission"
	"github.com/nstehr/lantern/model"
	"github.com/nstehr/lantern/rules"
)

// Planner carries missions from turn to turn for one player.
type Planner struct {
	cfg    config.Config
	store  *mission.Store
	engine *rules.Engine
}

func New(cfg config.Config, engine *rules.Engine) *Planner {
	return &Planner{
		cfg:    cfg,
		store:  mission.NewStore(cfg.Mission.RetryBudget, cfg.Mission.BornTTL),
		engine: engine,
	}
}

// Missions exposes the store, e.g. for replay records.
func (p *Planner) Missions() *mission.Store { return p.store }

// Result is one planned turn.
type Result struct {
	Turn    int
	Actions model.Actions
	// Missions is the store after planning, ordered by unit id.
	Missions       []mission.Mission
	Degraded       bool
	Approximations int
	Elapsed        time.Duration
}

// Plan runs the whole turn pipeline against g. It never fails: a deadline
// hit anywhere yields a degraded result holding whatever was decided in time.
func (p *Planner) Plan(ctx context.Context, g *model.Game) Result {
	start := time.Now()
	t, dropped := p.run(ctx, g)

	res := Result{
		Turn:           g.Turn,
		Actions:        t.Actions(),
		Missions:       p.store.All(),
		Degraded:       t.Degraded(),
		Approximations: t.Table.Approximations(),
		Elapsed:        time.Since(start),
	}
	if res.Approximations > 0 {
		slog.Warn("distance lookups approximated", "turn", g.Turn, "count", res.Approximations)
	}
	slog.Info("turn planned",
		"turn", g.Turn,
		"units", len(g.Player.Units),
		"cityTiles", len(g.Player.CityTiles()),
		"missions", len(res.Missions),
		"dropped", len(dropped),
		"actions", len(res.Actions.Gameplay()),
		"degraded", res.Degraded,
		"elapsed", res.Elapsed,
	)
	return res
}

func (p *Planner) run(ctx context.Context, g *model.Game) (*Turn, []string) {
	t := NewTurn(ctx, g, p.cfg)
	dropped := p.store.Cleanup(t.conditions())
	t.refresh(p.store)

	t.CityActions(p.engine)
	t.PlanMissions(ctx, p.store)
	t.Resolve(ctx, p.store)

	if p.cfg.Annotate {
		t.notes = append(t.notes, model.SideText(fmt.Sprintf("turn %d units %d missions %d", g.Turn, len(g.Player.Units), p.store.Len())))
	}
	return t, dropped
}
