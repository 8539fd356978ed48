package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSnapshot is wrapped by every rejection NewGame produces.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Pos is a grid coordinate. (0,0) is the top-left cell; y grows downwards.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns the Manhattan distance to q.
func (p Pos) Distance(q Pos) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

// Translate returns the cell one step away in direction d.
func (p Pos) Translate(d Direction) Pos {
	switch d {
	case North:
		return Pos{p.X, p.Y - 1}
	case East:
		return Pos{p.X + 1, p.Y}
	case South:
		return Pos{p.X, p.Y + 1}
	case West:
		return Pos{p.X - 1, p.Y}
	}
	return p
}

// Neighbors returns the four orthogonal neighbours in Directions order.
// Cells off the grid are included; callers check bounds.
func (p Pos) Neighbors() [4]Pos {
	return [4]Pos{p.Translate(North), p.Translate(East), p.Translate(South), p.Translate(West)}
}

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Less orders positions row-major, the iteration order used for every
// deterministic scan in the planner.
func (p Pos) Less(q Pos) bool {
	if p.Y != q.Y {
		return p.Y < q.Y
	}
	return p.X < q.X
}

type Direction string

const (
	North  Direction = "n"
	East   Direction = "e"
	South  Direction = "s"
	West   Direction = "w"
	Center Direction = "c"
)

// Directions is the fixed priority order for movement candidates.
var Directions = [4]Direction{North, East, South, West}

// ResourceType is a resource tier. Wood is the low tier, coal mid, uranium high.
type ResourceType string

const (
	Wood    ResourceType = "wood"
	Coal    ResourceType = "coal"
	Uranium ResourceType = "uranium"
)

// ResourceTypes lists tiers from lowest to highest.
var ResourceTypes = [3]ResourceType{Wood, Coal, Uranium}

// Tier returns 1 for wood, 2 for coal, 3 for uranium and 0 for unknown types.
func (r ResourceType) Tier() int {
	switch r {
	case Wood:
		return 1
	case Coal:
		return 2
	case Uranium:
		return 3
	}
	return 0
}

type Resource struct {
	Type   ResourceType
	Amount int
}

type Cargo struct {
	Wood    int `json:"wood"`
	Coal    int `json:"coal"`
	Uranium int `json:"uranium"`
}

func (c Cargo) Total() int { return c.Wood + c.Coal + c.Uranium }

// SpaceLeft returns how much more the unit can carry.
func (c Cargo) SpaceLeft(capacity int) int {
	if left := capacity - c.Total(); left > 0 {
		return left
	}
	return 0
}

// MostCommon returns the resource the unit holds the most of. Ties go to the
// lower tier.
func (c Cargo) MostCommon() ResourceType {
	best, amount := Wood, c.Wood
	if c.Coal > amount {
		best, amount = Coal, c.Coal
	}
	if c.Uranium > amount {
		best = Uranium
	}
	return best
}

type Unit struct {
	ID       string
	Team     int
	Type     int
	Pos      Pos
	Cooldown float64
	Cargo    Cargo
}

// CanAct reports whether the unit may act this turn.
func (u Unit) CanAct() bool { return u.Cooldown < 1 }

type CityTile struct {
	CityID   string
	Team     int
	Pos      Pos
	Cooldown float64
}

func (t CityTile) CanAct() bool { return t.Cooldown < 1 }

// City is a set of tiles sharing one fuel pool.
type City struct {
	ID          string
	Team        int
	Fuel        float64
	LightUpkeep float64
	Tiles       []CityTile
}

type Player struct {
	Team           int
	ResearchPoints int
	Units          []Unit
	Cities         map[string]*City
}

// CityTiles returns every tile the player owns in row-major order.
func (p *Player) CityTiles() []CityTile {
	var out []CityTile
	for _, c := range p.Cities {
		out = append(out, c.Tiles...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pos.Less(out[j].Pos) })
	return out
}

// ResearchedCoal and ResearchedUranium report tier unlocks.
func (p *Player) ResearchedCoal(c Constants) bool {
	return p.ResearchPoints >= c.CoalResearch
}

func (p *Player) ResearchedUranium(c Constants) bool {
	return p.ResearchPoints >= c.UraniumResearch
}

// CanCollect reports whether the player's research unlocks the tier.
func (p *Player) CanCollect(r ResourceType, c Constants) bool {
	switch r {
	case Wood:
		return true
	case Coal:
		return p.ResearchedCoal(c)
	case Uranium:
		return p.ResearchedUranium(c)
	}
	return false
}

// Cell holds at most one of a resource or a city tile. Units stack on top.
type Cell struct {
	Pos      Pos
	Resource *Resource
	CityTile *CityTile
	Road     float64
}

func (c *Cell) HasResource() bool { return c.Resource != nil && c.Resource.Amount > 0 }

// Game is the validated grid view of one Snapshot.
type Game struct {
	Turn      int
	Width     int
	Height    int
	Constants Constants
	Player    *Player
	Opponent  *Player

	cells []Cell // row-major: cells[y*Width + x]
}

// At returns the cell at p. p must be on the grid.
func (g *Game) At(p Pos) *Cell {
	return &g.cells[p.Y*g.Width+p.X]
}

// InBounds reports whether p lies on the grid.
func (g *Game) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < g.Width && p.Y >= 0 && p.Y < g.Height
}

// Clock returns the day/night view of the current turn.
func (g *Game) Clock() Clock {
	return Clock{Turn: g.Turn, Constants: g.Constants}
}

// NewGame validates s and builds the grid. Any malformed input is rejected
// with an error wrapping ErrInvalidSnapshot; nothing is guessed.
func NewGame(s Snapshot, c Constants) (*Game, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidSnapshot, s.Width, s.Height)
	}
	if s.PlayerID != 0 && s.PlayerID != 1 {
		return nil, fmt.Errorf("%w: player id %d", ErrInvalidSnapshot, s.PlayerID)
	}
	if s.Turn < 0 {
		return nil, fmt.Errorf("%w: turn %d", ErrInvalidSnapshot, s.Turn)
	}

	g := &Game{
		Turn:      s.Turn,
		Width:     s.Width,
		Height:    s.Height,
		Constants: c,
		cells:     make([]Cell, s.Width*s.Height),
	}
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			g.cells[y*s.Width+x].Pos = Pos{x, y}
		}
	}

	players := [2]*Player{
		{Team: 0, ResearchPoints: s.ResearchPoints[0], Cities: map[string]*City{}},
		{Team: 1, ResearchPoints: s.ResearchPoints[1], Cities: map[string]*City{}},
	}

	for _, r := range s.Resources {
		p := Pos{r.X, r.Y}
		if !g.InBounds(p) {
			return nil, fmt.Errorf("%w: resource at %v outside grid", ErrInvalidSnapshot, p)
		}
		rt := ResourceType(r.Type)
		if rt.Tier() == 0 {
			return nil, fmt.Errorf("%w: unknown resource type %q at %v", ErrInvalidSnapshot, r.Type, p)
		}
		if r.Amount < 0 {
			return nil, fmt.Errorf("%w: negative resource amount at %v", ErrInvalidSnapshot, p)
		}
		g.At(p).Resource = &Resource{Type: rt, Amount: r.Amount}
	}

	for _, cs := range s.Cities {
		if err := checkTeam(cs.Team); err != nil {
			return nil, err
		}
		if _, dup := players[cs.Team].Cities[cs.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate city %q", ErrInvalidSnapshot, cs.ID)
		}
		players[cs.Team].Cities[cs.ID] = &City{ID: cs.ID, Team: cs.Team, Fuel: cs.Fuel, LightUpkeep: cs.LightUpkeep}
	}

	for _, ts := range s.CityTiles {
		if err := checkTeam(ts.Team); err != nil {
			return nil, err
		}
		p := Pos{ts.X, ts.Y}
		if !g.InBounds(p) {
			return nil, fmt.Errorf("%w: city tile at %v outside grid", ErrInvalidSnapshot, p)
		}
		city, ok := players[ts.Team].Cities[ts.CityID]
		if !ok {
			return nil, fmt.Errorf("%w: city tile at %v references unknown city %q", ErrInvalidSnapshot, p, ts.CityID)
		}
		cell := g.At(p)
		if cell.Resource != nil {
			return nil, fmt.Errorf("%w: city tile and resource both at %v", ErrInvalidSnapshot, p)
		}
		if cell.CityTile != nil {
			return nil, fmt.Errorf("%w: two city tiles at %v", ErrInvalidSnapshot, p)
		}
		tile := CityTile{CityID: ts.CityID, Team: ts.Team, Pos: p, Cooldown: ts.Cooldown}
		city.Tiles = append(city.Tiles, tile)
		cell.CityTile = &city.Tiles[len(city.Tiles)-1]
	}
	// Re-point cells at the final backing arrays; append may have moved them.
	for _, pl := range players {
		for _, city := range pl.Cities {
			if len(city.Tiles) == 0 {
				return nil, fmt.Errorf("%w: city %q has no tiles", ErrInvalidSnapshot, city.ID)
			}
			for i := range city.Tiles {
				g.At(city.Tiles[i].Pos).CityTile = &city.Tiles[i]
			}
		}
	}

	seen := make(map[string]bool, len(s.Units))
	for _, us := range s.Units {
		if err := checkTeam(us.Team); err != nil {
			return nil, err
		}
		p := Pos{us.X, us.Y}
		if !g.InBounds(p) {
			return nil, fmt.Errorf("%w: unit %q at %v outside grid", ErrInvalidSnapshot, us.ID, p)
		}
		if us.ID == "" || seen[us.ID] {
			return nil, fmt.Errorf("%w: missing or duplicate unit id %q", ErrInvalidSnapshot, us.ID)
		}
		seen[us.ID] = true
		players[us.Team].Units = append(players[us.Team].Units, Unit{
			ID:       us.ID,
			Team:     us.Team,
			Type:     us.Type,
			Pos:      p,
			Cooldown: us.Cooldown,
			Cargo:    Cargo{Wood: us.Wood, Coal: us.Coal, Uranium: us.Uranium},
		})
	}

	for _, rs := range s.Roads {
		p := Pos{rs.X, rs.Y}
		if !g.InBounds(p) {
			return nil, fmt.Errorf("%w: road at %v outside grid", ErrInvalidSnapshot, p)
		}
		g.At(p).Road = rs.Level
	}

	g.Player = players[s.PlayerID]
	g.Opponent = players[1-s.PlayerID]
	return g, nil
}

func checkTeam(team int) error {
	if team != 0 && team != 1 {
		return fmt.Errorf("%w: team %d", ErrInvalidSnapshot, team)
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
