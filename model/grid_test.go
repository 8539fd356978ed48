package model

import (
	"errors"
	"testing"
)

func validSnapshot() Snapshot {
	return Snapshot{
		Turn:           5,
		Width:          4,
		Height:         3,
		PlayerID:       1,
		ResearchPoints: [2]int{10, 60},
		Resources: []ResourceState{
			{Type: "wood", X: 0, Y: 0, Amount: 300},
			{Type: "coal", X: 3, Y: 2, Amount: 50},
		},
		Units: []UnitState{
			{ID: "u_1", Team: 1, X: 1, Y: 1, Wood: 20},
			{ID: "u_2", Team: 0, X: 2, Y: 1, Cooldown: 2},
		},
		Cities:    []CityState{{ID: "c_1", Team: 1, Fuel: 40, LightUpkeep: 23}},
		CityTiles: []CityTileState{{CityID: "c_1", Team: 1, X: 1, Y: 1}, {CityID: "c_1", Team: 1, X: 2, Y: 2}},
	}
}

func TestNewGame(t *testing.T) {
	g, err := NewGame(validSnapshot(), DefaultConstants())
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	if g.Player.Team != 1 || g.Opponent.Team != 0 {
		t.Errorf("teams = %d/%d, want 1/0", g.Player.Team, g.Opponent.Team)
	}
	if len(g.Player.Units) != 1 || g.Player.Units[0].ID != "u_1" {
		t.Errorf("player units = %v, want [u_1]", g.Player.Units)
	}
	if !g.At(Pos{0, 0}).HasResource() {
		t.Error("expected wood at (0,0)")
	}
	tile := g.At(Pos{2, 2}).CityTile
	if tile == nil || tile.CityID != "c_1" {
		t.Fatalf("city tile at (2,2) = %v, want c_1", tile)
	}
	if got := len(g.Player.CityTiles()); got != 2 {
		t.Errorf("CityTiles() returned %d tiles, want 2", got)
	}
	if !g.Player.ResearchedCoal(g.Constants) || g.Player.ResearchedUranium(g.Constants) {
		t.Error("research 60 should unlock coal only")
	}
	if g.Player.Units[0].Cargo.Total() != 20 {
		t.Errorf("cargo total = %d, want 20", g.Player.Units[0].Cargo.Total())
	}
}

func TestNewGameRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Snapshot)
	}{
		{"unknown resource", func(s *Snapshot) { s.Resources[0].Type = "gold" }},
		{"resource outside grid", func(s *Snapshot) { s.Resources[0].X = 4 }},
		{"negative amount", func(s *Snapshot) { s.Resources[0].Amount = -1 }},
		{"unit outside grid", func(s *Snapshot) { s.Units[0].Y = -1 }},
		{"duplicate unit", func(s *Snapshot) { s.Units[1].ID = "u_1" }},
		{"bad player id", func(s *Snapshot) { s.PlayerID = 2 }},
		{"empty grid", func(s *Snapshot) { s.Width = 0 }},
		{"unknown city", func(s *Snapshot) { s.CityTiles[0].CityID = "c_9" }},
		{"tile on resource", func(s *Snapshot) { s.CityTiles[0].X, s.CityTiles[0].Y = 0, 0 }},
		{"city without tiles", func(s *Snapshot) {
			s.Cities = append(s.Cities, CityState{ID: "c_2", Team: 0})
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := validSnapshot()
			tc.mutate(&s)
			if _, err := NewGame(s, DefaultConstants()); !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("NewGame error = %v, want ErrInvalidSnapshot", err)
			}
		})
	}
}

func TestNewGameZeroResources(t *testing.T) {
	s := Snapshot{Width: 3, Height: 3}
	if _, err := NewGame(s, DefaultConstants()); err != nil {
		t.Fatalf("NewGame on empty grid failed: %v", err)
	}
}

func TestClock(t *testing.T) {
	c := DefaultConstants()
	tests := []struct {
		turn       int
		toNight    int
		toDawn     int
		night      bool
		dusk       bool
		nightTurns int
	}{
		{0, 30, 40, false, false, 90},
		{29, 1, 11, false, false, 90},
		{30, 0, 10, true, true, 90},
		{35, 35, 5, true, false, 85},
		{40, 30, 40, false, false, 80},
		{359, 31, 1, true, false, 1},
	}
	for _, tc := range tests {
		clk := Clock{Turn: tc.turn, Constants: c}
		if got := clk.TurnsToNight(); got != tc.toNight {
			t.Errorf("turn %d: TurnsToNight() = %d, want %d", tc.turn, got, tc.toNight)
		}
		if got := clk.TurnsToDawn(); got != tc.toDawn {
			t.Errorf("turn %d: TurnsToDawn() = %d, want %d", tc.turn, got, tc.toDawn)
		}
		if got := clk.IsNight(); got != tc.night {
			t.Errorf("turn %d: IsNight() = %v, want %v", tc.turn, got, tc.night)
		}
		if got := clk.IsDusk(); got != tc.dusk {
			t.Errorf("turn %d: IsDusk() = %v, want %v", tc.turn, got, tc.dusk)
		}
		if got := clk.NightTurnsLeft(); got != tc.nightTurns {
			t.Errorf("turn %d: NightTurnsLeft() = %d, want %d", tc.turn, got, tc.nightTurns)
		}
	}
	if !(Clock{Turn: 359, Constants: c}).IsLastTurn() {
		t.Error("turn 359 should be the last turn")
	}
}

func TestCargoMostCommon(t *testing.T) {
	tests := []struct {
		cargo Cargo
		want  ResourceType
	}{
		{Cargo{}, Wood},
		{Cargo{Wood: 10, Coal: 20}, Coal},
		{Cargo{Wood: 5, Coal: 5, Uranium: 6}, Uranium},
		{Cargo{Wood: 7, Coal: 7}, Wood},
	}
	for _, tc := range tests {
		if got := tc.cargo.MostCommon(); got != tc.want {
			t.Errorf("%+v.MostCommon() = %s, want %s", tc.cargo, got, tc.want)
		}
	}
	if got := (Cargo{Wood: 120}).SpaceLeft(100); got != 0 {
		t.Errorf("SpaceLeft on overfull cargo = %d, want 0", got)
	}
}

func TestActionStrings(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{Move("u_1", North), "m u_1 n"},
		{BuildCity("u_2"), "bcity u_2"},
		{Transfer("u_1", "u_2", Coal, 2000), "t u_1 u_2 coal 2000"},
		{BuildWorker(Pos{3, 4}), "bw 3 4"},
		{Research(Pos{0, 1}), "r 0 1"},
		{DrawLine(Pos{1, 2}, Pos{3, 4}), "dl 1 2 3 4"},
		{DrawText(Pos{1, 1}, "it's"), "dt 1 1 'its' 16"},
	}
	for _, tc := range tests {
		if got := tc.action.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}

	as := Actions{Move("u_1", East), DrawCircle(Pos{1, 1}), Research(Pos{0, 0})}
	if got := len(as.Gameplay()); got != 2 {
		t.Errorf("Gameplay() kept %d actions, want 2", got)
	}
}

func TestDecodeSnapshot(t *testing.T) {
	raw := []byte(`{"turn":3,"width":2,"height":2,"player_id":0,"research_points":[0,0],
		"resources":[{"type":"wood","x":1,"y":1,"amount":400}],
		"units":[{"id":"u_1","team":0,"type":0,"x":0,"y":0,"cooldown":0,"wood":0,"coal":0,"uranium":0}]}`)
	s, err := DecodeSnapshot(raw)
	if err != nil {
		t.Fatalf("DecodeSnapshot failed: %v", err)
	}
	if s.Turn != 3 || len(s.Resources) != 1 || len(s.Units) != 1 {
		t.Errorf("decoded %+v", s)
	}

	bad := [][]byte{
		[]byte(`{"turn":3,"width":2,"height":2,"player_id":0,"resources":[{"type":"gold","x":1,"y":1,"amount":1}]}`),
		[]byte(`{"turn":3,"width":2,"player_id":0}`),
		[]byte(`{"turn":3,"width":2,"height":2,"player_id":0,"units":[{"id":"u","team":0,"x":-1,"y":0}]}`),
		[]byte(`not json`),
	}
	for i, b := range bad {
		if _, err := DecodeSnapshot(b); !errors.Is(err, ErrInvalidSnapshot) {
			t.Errorf("bad[%d]: error = %v, want ErrInvalidSnapshot", i, err)
		}
	}
}
