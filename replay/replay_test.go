package replay

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nstehr/lantern/mission"
	"github.com/nstehr/lantern/model"
	"github.com/nstehr/lantern/rules"
)

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	w, err := Create(dir, "match-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if want := filepath.Join(dir, "match-1"+Ext); w.Path() != want {
		t.Errorf("Path() = %s, want %s", w.Path(), want)
	}

	records := []Record{
		{
			Match:    "match-1",
			Turn:     0,
			Doctrine: rules.DefaultDoctrine(),
			Snapshot: json.RawMessage(`{"turn":0,"width":2,"height":2,"player_id":0}`),
			Actions:  []string{"bw 0 0"},
		},
		{
			Match:    "match-1",
			Turn:     1,
			Snapshot: json.RawMessage(`{"turn":1,"width":2,"height":2,"player_id":0}`),
			Actions:  []string{"m u_1 e"},
			Missions: []mission.Mission{{UnitID: "u_1", Target: model.Pos{X: 1, Y: 0}}},
			Degraded: true,
		},
	}
	for _, r := range records {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Write(records[0]); err == nil {
		t.Error("Write after Close succeeded")
	}

	got, err := ReadAll(w.Path())
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadAll() returned %d records, want 2", len(got))
	}
	if got[0].Doctrine.Name != rules.DefaultDoctrine().Name || got[0].Actions[0] != "bw 0 0" {
		t.Errorf("record 0 = %+v", got[0])
	}
	if !got[1].Degraded || len(got[1].Missions) != 1 || got[1].Missions[0].Target != (model.Pos{X: 1, Y: 0}) {
		t.Errorf("record 1 = %+v", got[1])
	}
}

func TestReaderEOF(t *testing.T) {
	w, err := Create(t.TempDir(), "empty")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	r, err := Open(w.Path())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next() on empty replay = %v, want io.EOF", err)
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad"+Ext)
	if err := os.WriteFile(path, []byte("not zstd at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadAll(path); err == nil {
		t.Error("ReadAll on garbage succeeded")
	}
}
