package features

import (
	"sort"

	"github.com/nstehr/lantern/model"
)

// Maps holds every derived layer for one turn. All fields are read-only once
// Compute returns.
type Maps struct {
	Width, Height int

	Exists      map[model.ResourceType]Matrix
	AnyResource Matrix
	// Collectable is the union of the tiers the player's research unlocks.
	Collectable          Matrix
	ConvolvedCollectable Matrix
	// Buildable ignores units: a cell with neither a resource nor a city tile.
	Buildable Matrix
	// Empty is Buildable with no unit standing on it.
	Empty Matrix

	PlayerCities   Matrix
	OpponentCities Matrix
	PlayerUnits    Matrix
	OpponentUnits  Matrix

	CollectableSet          PosSet
	ConvolvedCollectableSet PosSet
	BuildableSet            PosSet
	EmptySet                PosSet
	PlayerCitySet           PosSet
	OpponentCitySet         PosSet
	PlayerUnitSet           PosSet
	OpponentUnitSet         PosSet
}

// Compute builds every layer from g. It never fails; an empty grid yields
// empty layers.
func Compute(g *model.Game) *Maps {
	w, h := g.Width, g.Height
	m := &Maps{
		Width:          w,
		Height:         h,
		Exists:         make(map[model.ResourceType]Matrix, len(model.ResourceTypes)),
		AnyResource:    NewMatrix(w, h),
		Collectable:    NewMatrix(w, h),
		Buildable:      NewMatrix(w, h),
		Empty:          NewMatrix(w, h),
		PlayerCities:   NewMatrix(w, h),
		OpponentCities: NewMatrix(w, h),
		PlayerUnits:    NewMatrix(w, h),
		OpponentUnits:  NewMatrix(w, h),
	}
	for _, rt := range model.ResourceTypes {
		m.Exists[rt] = NewMatrix(w, h)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := model.Pos{X: x, Y: y}
			cell := g.At(p)
			if cell.HasResource() {
				rt := cell.Resource.Type
				m.Exists[rt][y][x] = 1
				m.AnyResource[y][x] = 1
				if g.Player.CanCollect(rt, g.Constants) {
					m.Collectable[y][x] = 1
				}
			}
			if cell.CityTile != nil {
				if cell.CityTile.Team == g.Player.Team {
					m.PlayerCities[y][x] = 1
				} else {
					m.OpponentCities[y][x] = 1
				}
			}
			if !cell.HasResource() && cell.CityTile == nil {
				m.Buildable[y][x] = 1
			}
		}
	}
	for _, u := range g.Player.Units {
		m.PlayerUnits.Set(u.Pos, m.PlayerUnits.At(u.Pos)+1)
	}
	for _, u := range g.Opponent.Units {
		m.OpponentUnits.Set(u.Pos, m.OpponentUnits.At(u.Pos)+1)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.Buildable[y][x] > 0 && m.PlayerUnits[y][x] == 0 && m.OpponentUnits[y][x] == 0 {
				m.Empty[y][x] = 1
			}
		}
	}
	m.ConvolvedCollectable = Convolve(m.Collectable)

	m.CollectableSet = m.Collectable.Positive()
	m.ConvolvedCollectableSet = m.ConvolvedCollectable.Positive()
	m.BuildableSet = m.Buildable.Positive()
	m.EmptySet = m.Empty.Positive()
	m.PlayerCitySet = m.PlayerCities.Positive()
	m.OpponentCitySet = m.OpponentCities.Positive()
	m.PlayerUnitSet = m.PlayerUnits.Positive()
	m.OpponentUnitSet = m.OpponentUnits.Positive()
	return m
}

// InBounds reports whether p lies on the grid.
func (m *Maps) InBounds(p model.Pos) bool {
	return p.X >= 0 && p.X < m.Width && p.Y >= 0 && p.Y < m.Height
}

// Cells returns every grid position in row-major order.
func (m *Maps) Cells() []model.Pos {
	out := make([]model.Pos, 0, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out = append(out, model.Pos{X: x, Y: y})
		}
	}
	return out
}

func sortPositions(ps []model.Pos) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
}
