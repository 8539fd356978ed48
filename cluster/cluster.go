// Package cluster groups nearby collectable tiles, plus the building spots
// beside them, into clusters the scorer can reason about as one target.
package cluster

import (
	"sort"

	"github.com/nstehr/lantern/features"
	"github.com/nstehr/lantern/model"
)

// bridgeOffsets are the cells exactly two steps away.
var bridgeOffsets = [8]model.Pos{
	{X: 2, Y: 0}, {X: -2, Y: 0}, {X: 0, Y: 2}, {X: 0, Y: -2},
	{X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: -1, Y: -1},
}

// Index is a union-find over grid cells. It is rebuilt every turn and never
// unmerged. The smaller cell index always becomes the root, so the structure
// is independent of goroutine scheduling and map order.
type Index struct {
	width, height int

	parent []int
	member []bool

	// Aggregates are only meaningful at roots.
	value      []int
	tiles      []int
	structures []int
}

// New returns an index with no members.
func New(w, h int) *Index {
	n := w * h
	ix := &Index{
		width:      w,
		height:     h,
		parent:     make([]int, n),
		member:     make([]bool, n),
		value:      make([]int, n),
		tiles:      make([]int, n),
		structures: make([]int, n),
	}
	for i := range ix.parent {
		ix.parent[i] = i
	}
	return ix
}

// Build constructs the turn's clusters:
//  1. every collectable cell is a singleton weighted by its tier
//  2. orthogonal neighbours merge, whatever their type
//  3. cells two steps apart merge when the target is still a singleton
//  4. clusters, most friendly structures first, claim adjacent buildable cells
//     and friendly city tiles nobody has claimed yet
func Build(g *model.Game, m *features.Maps, weights map[model.ResourceType]int) *Index {
	ix := New(g.Width, g.Height)
	collectable := m.CollectableSet.Sorted()

	for _, p := range collectable {
		ix.Add(p, weights[g.At(p).Resource.Type])
	}
	for _, p := range collectable {
		for _, n := range [2]model.Pos{p.Translate(model.East), p.Translate(model.South)} {
			if m.CollectableSet.Has(n) {
				ix.Union(p, n)
			}
		}
	}
	for _, p := range collectable {
		for _, off := range bridgeOffsets {
			q := model.Pos{X: p.X + off.X, Y: p.Y + off.Y}
			if m.CollectableSet.Has(q) && ix.TileCount(ix.Find(q)) <= 1 {
				ix.Union(p, q)
			}
		}
	}

	ix.countStructures(m.PlayerCitySet)
	ix.absorb(m)
	return ix
}

// Add seeds p as a singleton cluster worth value. Adding an existing member
// is a no-op.
func (ix *Index) Add(p model.Pos, value int) {
	i, ok := ix.index(p)
	if !ok || ix.member[i] {
		return
	}
	ix.member[i] = true
	ix.value[i] = value
	ix.tiles[i] = 1
}

// Member reports whether p belongs to any cluster.
func (ix *Index) Member(p model.Pos) bool {
	i, ok := ix.index(p)
	return ok && ix.member[i]
}

// Find returns the root cell of p's cluster. A cell outside every cluster is
// its own root.
func (ix *Index) Find(p model.Pos) model.Pos {
	i, ok := ix.index(p)
	if !ok {
		return p
	}
	return ix.pos(ix.find(i))
}

// Union merges the clusters of a and b. Both must be members.
func (ix *Index) Union(a, b model.Pos) {
	i, okA := ix.index(a)
	j, okB := ix.index(b)
	if !okA || !okB || !ix.member[i] || !ix.member[j] {
		return
	}
	ix.union(i, j)
}

// Value is the tier-weighted resource total of the cluster rooted at root.
func (ix *Index) Value(root model.Pos) int { return ix.aggregate(root, ix.value) }

// TileCount is the number of resource tiles in the cluster rooted at root.
// Absorbed building spots do not count.
func (ix *Index) TileCount(root model.Pos) int { return ix.aggregate(root, ix.tiles) }

// StructureAdjacency counts friendly city tiles touching the cluster's
// resource tiles.
func (ix *Index) StructureAdjacency(root model.Pos) int { return ix.aggregate(root, ix.structures) }

// Roots returns the root of every cluster in row-major order.
func (ix *Index) Roots() []model.Pos {
	var out []model.Pos
	for i, ok := range ix.member {
		if ok && ix.find(i) == i {
			out = append(out, ix.pos(i))
		}
	}
	return out
}

func (ix *Index) aggregate(root model.Pos, agg []int) int {
	i, ok := ix.index(root)
	if !ok || !ix.member[i] {
		return 0
	}
	return agg[ix.find(i)]
}

func (ix *Index) find(i int) int {
	if ix.parent[i] == i {
		return i
	}
	ix.parent[i] = ix.find(ix.parent[i])
	return ix.parent[i]
}

func (ix *Index) union(i, j int) {
	ri, rj := ix.find(i), ix.find(j)
	if ri == rj {
		return
	}
	if rj < ri {
		ri, rj = rj, ri
	}
	ix.parent[rj] = ri
	ix.value[ri] += ix.value[rj]
	ix.tiles[ri] += ix.tiles[rj]
	ix.structures[ri] += ix.structures[rj]
}

// countStructures credits every friendly city tile once to each distinct
// cluster it touches.
func (ix *Index) countStructures(cities features.PosSet) {
	for _, c := range cities.Sorted() {
		seen := map[int]bool{}
		for _, n := range c.Neighbors() {
			i, ok := ix.index(n)
			if !ok || !ix.member[i] {
				continue
			}
			r := ix.find(i)
			if !seen[r] {
				seen[r] = true
				ix.structures[r]++
			}
		}
	}
}

// absorb lets each cluster claim the open and friendly-structure cells beside
// its resource tiles. Claimed cells join with zero value and zero tiles.
func (ix *Index) absorb(m *features.Maps) {
	groups := map[int][]int{}
	var roots []int
	for i, ok := range ix.member {
		if !ok {
			continue
		}
		r := ix.find(i)
		if _, seen := groups[r]; !seen {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}
	sort.Slice(roots, func(a, b int) bool {
		ra, rb := roots[a], roots[b]
		if ix.structures[ra] != ix.structures[rb] {
			return ix.structures[ra] > ix.structures[rb]
		}
		if ix.tiles[ra] != ix.tiles[rb] {
			return ix.tiles[ra] > ix.tiles[rb]
		}
		return ra < rb
	})

	for _, r := range roots {
		for _, i := range groups[r] {
			for _, n := range ix.pos(i).Neighbors() {
				j, ok := ix.index(n)
				if !ok || ix.member[j] {
					continue
				}
				if !m.BuildableSet.Has(n) && !m.PlayerCitySet.Has(n) {
					continue
				}
				ix.member[j] = true
				ix.parent[j] = r
			}
		}
	}
}

func (ix *Index) index(p model.Pos) (int, bool) {
	if p.X < 0 || p.X >= ix.width || p.Y < 0 || p.Y >= ix.height {
		return 0, false
	}
	return p.Y*ix.width + p.X, true
}

func (ix *Index) pos(i int) model.Pos {
	return model.Pos{X: i % ix.width, Y: i / ix.width}
}
