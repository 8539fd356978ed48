package distance

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/nstehr/lantern/features"
	"github.com/nstehr/lantern/model"
)

// ErrOriginNotSeeded is returned when a pairwise lookup starts from a cell the
// table was not built for.
var ErrOriginNotSeeded = errors.New("distance origin not seeded")

// Table caches one weighted field per seeded origin so pairwise lookups are
// O(1). Only the cells the planner asks about are seeded: every unit's cell and
// its four neighbours.
type Table struct {
	width, height int
	fields        map[model.Pos]features.Matrix
	approximated  atomic.Int64
}

// Origins returns the seed set for units standing on cells: each cell and its
// in-bounds neighbours, deduplicated, in row-major order.
func Origins(w, h int, cells []model.Pos) []model.Pos {
	set := features.PosSet{}
	for _, c := range cells {
		if inBounds(c, w, h) {
			set.Add(c)
		}
		for _, n := range c.Neighbors() {
			if inBounds(n, w, h) {
				set.Add(n)
			}
		}
	}
	return set.Sorted()
}

// NewTable runs one search per origin, spread across GOMAXPROCS workers. If
// ctx ends, origins that were not finished stay unseeded and the context's
// error is returned alongside the usable table.
func NewTable(ctx context.Context, w, h int, origins []model.Pos, costs Costs) (*Table, error) {
	t := &Table{width: w, height: h, fields: make(map[model.Pos]features.Matrix, len(origins))}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		aborted atomic.Bool
	)
	work := make(chan model.Pos)
	workers := min(runtime.GOMAXPROCS(0), len(origins))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for o := range work {
				field, err := From(ctx, w, h, []model.Pos{o}, costs)
				if err != nil {
					aborted.Store(true)
					continue
				}
				mu.Lock()
				t.fields[o] = field
				mu.Unlock()
			}
		}()
	}
	for _, o := range origins {
		if ctx.Err() != nil {
			break
		}
		work <- o
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil || aborted.Load() {
		return t, fmt.Errorf("distance table seeded %d of %d origins: %w", len(t.fields), len(origins), context.Cause(ctx))
	}
	return t, nil
}

// Seeded reports whether lookups from p are exact.
func (t *Table) Seeded(p model.Pos) bool {
	_, ok := t.fields[p]
	return ok
}

// Distance returns the weighted path cost from a to b. If a was not seeded it
// returns the Manhattan distance together with ErrOriginNotSeeded, and the
// lookup is counted as an approximation.
func (t *Table) Distance(a, b model.Pos) (int, error) {
	field, ok := t.fields[a]
	if !ok {
		t.approximated.Add(1)
		return a.Distance(b), fmt.Errorf("%w: %v", ErrOriginNotSeeded, a)
	}
	if !inBounds(b, t.width, t.height) {
		return Infinity, nil
	}
	return field[b.Y][b.X], nil
}

// Approximations counts lookups answered with Manhattan distance.
func (t *Table) Approximations() int { return int(t.approximated.Load()) }
