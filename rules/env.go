package rules

import "github.com/nstehr/lantern/model"

// Tally is the running state shared by every tile evaluated in one turn.
// Orders issued by earlier tiles are visible to later ones.
type Tally struct {
	ResearchPoints int
	Units          int
	UnitCap        int
	Actions        model.Actions
	// Births lists tiles that build a worker this turn, in order.
	Births []model.Pos
}

// NewTally starts a turn's tally. The unit cap is one unit per city tile.
func NewTally(p *model.Player) *Tally {
	return &Tally{
		ResearchPoints: p.ResearchPoints,
		Units:          len(p.Units),
		UnitCap:        len(p.CityTiles()),
	}
}

// CityEnv wraps one city tile's situation and exposes helper methods callable
// from expr expressions.
type CityEnv struct {
	Tile model.CityTile

	Turn         int
	MaxTurns     int
	TurnsToNight int
	// NearestResource is the step distance to the closest collectable tile.
	NearestResource int
	// TravelRange is how far a new worker can walk before night.
	TravelRange int
	// ClusterUnits and ClusterTiles describe the resource cluster the tile
	// belongs to.
	ClusterUnits int
	ClusterTiles int

	CoalResearch    int
	UraniumResearch int

	Tally *Tally
}

func (e CityEnv) ResearchedCoal() bool {
	return e.Tally.ResearchPoints >= e.CoalResearch
}

func (e CityEnv) ResearchedUranium() bool {
	return e.Tally.ResearchPoints >= e.UraniumResearch
}

func (e CityEnv) UnitCapReached() bool {
	return e.Tally.Units >= e.Tally.UnitCap
}

func (e CityEnv) ResourceInRange() bool {
	return e.NearestResource < e.TravelRange
}

// ClusterSaturated reports whether the tile's cluster already has enough
// workers. slack shifts the threshold: positive values allow extra workers.
func (e CityEnv) ClusterSaturated(slack int) bool {
	return e.ClusterTiles+slack <= e.ClusterUnits
}

// TurnsLeft counts turns remaining after this one.
func (e CityEnv) TurnsLeft() int {
	if left := e.MaxTurns - 1 - e.Turn; left > 0 {
		return left
	}
	return 0
}

func (e CityEnv) IsLastTurn() bool { return e.TurnsLeft() == 0 }
