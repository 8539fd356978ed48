// Package distance computes multi-source shortest-path fields over the grid.
package distance

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/nstehr/lantern/features"
	"github.com/nstehr/lantern/model"
)

// Infinity marks cells a weighted search never reached. It exceeds any real
// path cost on a playable grid.
const Infinity = 1 << 30

// checkEvery is how many cells a search settles between deadline checks.
const checkEvery = 64

// Unreached returns the sentinel BFS uses for a w x h grid.
func Unreached(w, h int) int { return w + h }

// BFS returns the unweighted step distance from the nearest source to every
// cell. Cells no source reaches hold Unreached(w, h). Sources off the grid are
// ignored. If ctx ends mid-search the partial field is returned with the
// context's error.
func BFS(ctx context.Context, w, h int, sources []model.Pos) (features.Matrix, error) {
	unreached := Unreached(w, h)
	dist := features.NewMatrix(w, h)
	for y := range dist {
		for x := range dist[y] {
			dist[y][x] = unreached
		}
	}

	queue := make([]model.Pos, 0, w*h)
	for _, s := range sources {
		if !inBounds(s, w, h) || dist[s.Y][s.X] == 0 {
			continue
		}
		dist[s.Y][s.X] = 0
		queue = append(queue, s)
	}

	for i := 0; i < len(queue); i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return dist, fmt.Errorf("bfs aborted after %d cells: %w", i, err)
			}
		}
		p := queue[i]
		next := dist[p.Y][p.X] + 1
		for _, n := range p.Neighbors() {
			if !inBounds(n, w, h) || dist[n.Y][n.X] <= next {
				continue
			}
			dist[n.Y][n.X] = next
			queue = append(queue, n)
		}
	}
	return dist, nil
}

// CostFunc returns the cost of stepping into p. It must be at least 1.
type CostFunc func(p model.Pos) int

// Dijkstra returns the weighted distance from the nearest source to every
// cell, where entering a cell costs cost(cell). Unreached cells hold Infinity.
// Sources are at distance 0 before the first deadline check, so an aborted
// search still reports them correctly.
func Dijkstra(ctx context.Context, w, h int, sources []model.Pos, cost CostFunc) (features.Matrix, error) {
	dist := features.NewMatrix(w, h)
	for y := range dist {
		for x := range dist[y] {
			dist[y][x] = Infinity
		}
	}

	pq := &queue{}
	for _, s := range sources {
		if !inBounds(s, w, h) || dist[s.Y][s.X] == 0 {
			continue
		}
		dist[s.Y][s.X] = 0
		heap.Push(pq, item{pos: s})
	}

	for pops := 0; pq.Len() > 0; pops++ {
		if pops%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return dist, fmt.Errorf("dijkstra aborted after %d cells: %w", pops, err)
			}
		}
		cur := heap.Pop(pq).(item)
		if cur.dist > dist[cur.pos.Y][cur.pos.X] {
			continue
		}
		for _, n := range cur.pos.Neighbors() {
			if !inBounds(n, w, h) {
				continue
			}
			nd := cur.dist + cost(n)
			if nd < dist[n.Y][n.X] {
				dist[n.Y][n.X] = nd
				heap.Push(pq, item{pos: n, dist: nd})
			}
		}
	}
	return dist, nil
}

// Costs is the traversal model for planning fields. Friendly city tiles are
// always open; stacking there is legal.
type Costs struct {
	Blocked        features.PosSet
	EnemyStructure features.PosSet
	BlockedPenalty int
	EnemyPenalty   int
}

// Enter returns the cost of stepping into p.
func (c Costs) Enter(p model.Pos) int {
	switch {
	case c.EnemyStructure.Has(p):
		return c.EnemyPenalty
	case c.Blocked.Has(p):
		return c.BlockedPenalty
	}
	return 1
}

// Uniform reports whether every cell costs one step to enter.
func (c Costs) Uniform() bool {
	return (len(c.Blocked) == 0 || c.BlockedPenalty == 1) &&
		(len(c.EnemyStructure) == 0 || c.EnemyPenalty == 1)
}

// From computes the distance field from sources under c. Uniform costs take
// the BFS path; anything else runs Dijkstra. Either way unreached cells hold
// Infinity.
func From(ctx context.Context, w, h int, sources []model.Pos, c Costs) (features.Matrix, error) {
	if !c.Uniform() {
		return Dijkstra(ctx, w, h, sources, c.Enter)
	}
	dist, err := BFS(ctx, w, h, sources)
	if err != nil {
		return dist, err
	}
	unreached := Unreached(w, h)
	for y := range dist {
		for x := range dist[y] {
			if dist[y][x] == unreached {
				dist[y][x] = Infinity
			}
		}
	}
	return dist, nil
}

type item struct {
	pos  model.Pos
	dist int
}

// queue is a min-heap on distance. Equal distances pop in row-major order so
// the settle order never depends on push order.
type queue []item

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].pos.Less(q[j].pos)
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(item)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

func inBounds(p model.Pos, w, h int) bool {
	return p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h
}
