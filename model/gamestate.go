package model

// Snapshot is the already-decoded per-turn observation handed over by the
// protocol layer. It is a flat list of entities; NewGame turns it into a grid.
type Snapshot struct {
	Turn           int             `json:"turn"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	PlayerID       int             `json:"player_id"`
	ResearchPoints [2]int          `json:"research_points"`
	Resources      []ResourceState `json:"resources"`
	Units          []UnitState     `json:"units"`
	Cities         []CityState     `json:"cities"`
	CityTiles      []CityTileState `json:"city_tiles"`
	Roads          []RoadState     `json:"roads,omitempty"`
}

type ResourceState struct {
	Type   string `json:"type"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Amount int    `json:"amount"`
}

type UnitState struct {
	ID       string  `json:"id"`
	Team     int     `json:"team"`
	Type     int     `json:"type"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Cooldown float64 `json:"cooldown"`
	Wood     int     `json:"wood"`
	Coal     int     `json:"coal"`
	Uranium  int     `json:"uranium"`
}

type CityState struct {
	ID          string  `json:"id"`
	Team        int     `json:"team"`
	Fuel        float64 `json:"fuel"`
	LightUpkeep float64 `json:"light_upkeep"`
}

type CityTileState struct {
	CityID   string  `json:"city_id"`
	Team     int     `json:"team"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Cooldown float64 `json:"cooldown"`
}

type RoadState struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Level float64 `json:"level"`
}

// Unit types as they appear on the wire.
const (
	UnitWorker = 0
	UnitCart   = 1
)
