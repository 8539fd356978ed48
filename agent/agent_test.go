package agent

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nstehr/lantern/config"
	"github.com/nstehr/lantern/ipc"
	"github.com/nstehr/lantern/model"
	"github.com/nstehr/lantern/replay"
)

func envelope(t *testing.T, msgType string, data any) ipc.Envelope {
	t.Helper()
	env, err := ipc.NewEnvelope(msgType, data)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

// lone returns a 5x5 snapshot with one wood tile in the middle and one worker
// in the top-left corner.
func lone(turn, x, y int) model.Snapshot {
	return model.Snapshot{
		Turn:      turn,
		Width:     5,
		Height:    5,
		Resources: []model.ResourceState{{Type: "wood", X: 2, Y: 2, Amount: 500}},
		Units:     []model.UnitState{{ID: "u_1", X: x, Y: y}},
	}
}

func newSession(t *testing.T, dir string) *Session {
	t.Helper()
	s, err := New(config.Default(), dir)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionTurn(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newSession(t, dir)

	if _, err := s.HandleTurn(ctx, envelope(t, ipc.TypeTurn, lone(0, 0, 0))); !errors.Is(err, ErrNoHello) {
		t.Fatalf("turn before hello: error = %v, want ErrNoHello", err)
	}

	resp, err := s.HandleHello(ctx, envelope(t, ipc.TypeHello, ipc.HelloMessage{PlayerID: 0, Width: 5, Height: 5, MatchID: "m1"}))
	if err != nil || resp.Type != ipc.TypeAck {
		t.Fatalf("HandleHello() = %v, %v, want ack", resp, err)
	}

	resp, err = s.HandleTurn(ctx, envelope(t, ipc.TypeTurn, lone(0, 0, 0)))
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	var msg ipc.ActionsMessage
	if err := json.Unmarshal(resp.Data, &msg); err != nil {
		t.Fatal(err)
	}
	if resp.Type != ipc.TypeActions || msg.Degraded || !reflect.DeepEqual(msg.Actions, []string{"m u_1 e"}) {
		t.Errorf("HandleTurn() = %s %+v, want actions [m u_1 e]", resp.Type, msg)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	records, err := replay.ReadAll(filepath.Join(dir, "m1"+replay.Ext))
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(records) != 1 || records[0].Turn != 0 || len(records[0].Missions) != 1 {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Missions[0].Target != (model.Pos{X: 2, Y: 2}) {
		t.Errorf("recorded mission target = %v, want (2,2)", records[0].Missions[0].Target)
	}
}

func TestSessionRejects(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, "")
	if err := s.Start(ipc.HelloMessage{PlayerID: 0, Width: 5, Height: 5}); err != nil {
		t.Fatal(err)
	}

	wrongPlayer := lone(0, 0, 0)
	wrongPlayer.PlayerID = 1
	wrongSize := lone(0, 0, 0)
	wrongSize.Width = 6
	badUnit := lone(0, 0, 0)
	badUnit.Units[0].X = 9

	tests := []struct {
		name string
		raw  []byte
	}{
		{"not json", []byte(`{`)},
		{"schema", []byte(`{"turn":0,"width":5}`)},
		{"wrong player", mustJSON(t, wrongPlayer)},
		{"wrong size", mustJSON(t, wrongSize)},
		{"unit off grid", mustJSON(t, badUnit)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Plan(ctx, tc.raw); !errors.Is(err, model.ErrInvalidSnapshot) {
				t.Errorf("Plan() error = %v, want ErrInvalidSnapshot", err)
			}
		})
	}

	for _, hello := range []ipc.HelloMessage{{PlayerID: 2, Width: 5, Height: 5}, {PlayerID: 0, Width: 0, Height: 5}} {
		if err := s.Start(hello); err == nil {
			t.Errorf("Start(%+v) succeeded", hello)
		}
	}
}

func TestHelloDoctrine(t *testing.T) {
	s := newSession(t, "")
	err := s.Start(ipc.HelloMessage{
		PlayerID: 1,
		Width:    8,
		Height:   8,
		Doctrine: &ipc.DoctrineMessage{Name: "turtle", ResearchPriority: 3, ExpansionPriority: 0.1},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if s.Doctrine.Name != "turtle" || s.Doctrine.ResearchPriority != 1 {
		t.Errorf("Doctrine = %+v, want turtle with clamped research priority", s.Doctrine)
	}
	if s.Match == "" {
		t.Error("Match id not generated")
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newSession(t, dir)
	if err := s.Start(ipc.HelloMessage{PlayerID: 0, Width: 5, Height: 5, MatchID: "v"}); err != nil {
		t.Fatal(err)
	}
	for turn, pos := range []model.Pos{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}} {
		if _, err := s.HandleTurn(ctx, envelope(t, ipc.TypeTurn, lone(turn, pos.X, pos.Y))); err != nil {
			t.Fatalf("turn %d: %v", turn, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	records, err := replay.ReadAll(filepath.Join(dir, "v"+replay.Ext))
	if err != nil {
		t.Fatal(err)
	}

	report, err := Verify(ctx, config.Default(), records)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if report.Turns != 3 || len(report.Mismatches) != 0 {
		t.Errorf("Verify() = %+v, want 3 clean turns", report)
	}

	records[1].Actions = []string{"m u_1 w"}
	report, err = Verify(ctx, config.Default(), records)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(report.Mismatches) != 1 || report.Mismatches[0].Turn != 1 {
		t.Errorf("Verify() mismatches = %+v, want turn 1", report.Mismatches)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
