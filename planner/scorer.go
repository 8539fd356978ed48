package planner

import (
	"context"

	"github.com/nstehr/lantern/model"
)

// Score ranks a candidate target. Components compare lexicographically:
//
//	[0] cluster preference: room in the cluster, pressure to leave a crowded
//	    one, minus a point when another free unit is closer
//	[1] closeness to open building ground
//	[2] weighted travel, enemy proximity, edge and adjacent-enemy terms
//	[3] best resource tier on or beside the cell
//
// The zero Score means no viable target; every real candidate has [0] >= 1.
type Score [4]int

// Less reports whether s ranks strictly below o.
func (s Score) Less(o Score) bool {
	for i := range s {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}

func (s Score) IsZero() bool { return s == Score{} }

// BestTarget scans every collectable cell in row-major order and returns the
// highest scoring one within travel range. Ties keep the first cell seen. It
// returns ok=false when nothing is reachable in time or ctx has ended.
func (t *Turn) BestTarget(ctx context.Context, u model.Unit) (model.Pos, Score, bool) {
	reach := t.travelRange()
	own, ownMember := t.Clusters.Find(u.Pos), t.Clusters.Member(u.Pos)
	ownCrowd := 0
	if ownMember {
		ownCrowd = t.othersIn(own, u.ID)
	}

	var (
		best      model.Pos
		bestScore Score
		found     bool
	)
	for y := 0; y < t.Game.Height; y++ {
		if err := ctx.Err(); err != nil {
			t.markDegraded("scorer", err)
			return model.Pos{}, Score{}, false
		}
		for x := 0; x < t.Game.Width; x++ {
			p := model.Pos{X: x, Y: y}
			if !t.Maps.CollectableSet.Has(p) || t.targets.Has(p) {
				continue
			}
			if t.Maps.PlayerCitySet.Has(p) || t.Maps.OpponentCitySet.Has(p) {
				continue
			}
			d := t.distance(u.Pos, p)
			if d > reach {
				continue
			}

			root := t.Clusters.Find(p)
			occupants := t.othersIn(root, u.ID)
			pref := 1
			if t.Clusters.TileCount(root) > occupants {
				pref++
			}
			if ownMember && ownCrowd > 0 && root != own && occupants < ownCrowd {
				pref++
			}
			if t.closerRival(u, p) {
				pref--
			}

			w := t.Config.Scoring
			combined := -w.PathDistance*d -
				w.EnemyDistance*t.FromEnemy.At(p) +
				w.EdgeDistance*min(t.FromEdge.At(p), w.EdgeCap) -
				w.AdjacentEnemy*t.adjacentEnemies(p)

			s := Score{max(1, pref), -t.FromEmpty.At(p), combined, t.bestTier(p)}
			if !found || bestScore.Less(s) {
				best, bestScore, found = p, s, true
			}
		}
	}
	return best, bestScore, found
}

// closerRival reports whether another unit without a mission is strictly
// closer to p, so it is the natural claimant.
func (t *Turn) closerRival(u model.Unit, p model.Pos) bool {
	d := u.Pos.Distance(p)
	for _, o := range t.units {
		if o.ID != u.ID && t.missionless[o.ID] && o.Pos.Distance(p) < d {
			return true
		}
	}
	return false
}

func (t *Turn) adjacentEnemies(p model.Pos) int {
	n := 0
	for _, q := range p.Neighbors() {
		n += t.Maps.OpponentUnits.At(q)
	}
	return n
}

// bestTier is the highest collectable tier on p or its neighbours.
func (t *Turn) bestTier(p model.Pos) int {
	best := 0
	nb := p.Neighbors()
	cells := append([]model.Pos{p}, nb[:]...)
	for _, q := range cells {
		if !t.Maps.CollectableSet.Has(q) {
			continue
		}
		if tier := t.Game.At(q).Resource.Type.Tier(); tier > best {
			best = tier
		}
	}
	return best
}
