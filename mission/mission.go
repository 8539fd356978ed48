// Package mission keeps each unit's standing order across turns.
package mission

import (
	"log/slog"
	"sort"

	"github.com/nstehr/lantern/features"
	"github.com/nstehr/lantern/model"
)

// Action is the terminal action a mission performs on arrival.
type Action int

const (
	// None means reaching the target is the whole mission (mine, go home).
	None Action = iota
	BuildCity
)

func (a Action) String() string {
	if a == BuildCity {
		return "bcity"
	}
	return "none"
}

// Detail tags protect a mission from the target-validity checks in Cleanup.
// Tagged missions expire by their own rules instead.
const (
	DetailHoming = "homing"
	DetailBorn   = "born"
)

// Mission is a unit's target cell and what to do there.
type Mission struct {
	UnitID      string    `json:"unit_id"`
	Target      model.Pos `json:"target"`
	Action      Action    `json:"action"`
	Delays      int       `json:"delays"`
	Detail      string    `json:"detail,omitempty"`
	CreatedTurn int       `json:"created_turn"`
}

// Store is the authoritative unit -> mission mapping. One mission per unit;
// missions are never shared. Not safe for concurrent use: the turn loop is
// its only writer.
type Store struct {
	missions    map[string]*Mission
	retryBudget int
	bornTTL     int
}

// NewStore returns an empty store. A mission survives retryBudget failed
// turns and is dropped on the next one. Born missions are protected for
// bornTTL turns after creation.
func NewStore(retryBudget, bornTTL int) *Store {
	return &Store{missions: map[string]*Mission{}, retryBudget: retryBudget, bornTTL: bornTTL}
}

// Assign upserts m, replacing any mission the unit had.
func (s *Store) Assign(m Mission) {
	s.missions[m.UnitID] = &m
}

// Get returns a copy of the unit's mission.
func (s *Store) Get(unitID string) (Mission, bool) {
	m, ok := s.missions[unitID]
	if !ok {
		return Mission{}, false
	}
	return *m, true
}

func (s *Store) Delete(unitID string) { delete(s.missions, unitID) }

func (s *Store) Len() int { return len(s.missions) }

// IDs returns the unit ids with missions, sorted.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.missions))
	for id := range s.missions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns copies of every mission ordered by unit id.
func (s *Store) All() []Mission {
	out := make([]Mission, 0, len(s.missions))
	for _, id := range s.IDs() {
		out = append(out, *s.missions[id])
	}
	return out
}

// Targets returns every live target cell, rebuilt on each call so the scorer
// always excludes the current set.
func (s *Store) Targets() features.PosSet {
	t := make(features.PosSet, len(s.missions))
	for _, m := range s.missions {
		t.Add(m.Target)
	}
	return t
}

// Conditions is what Cleanup checks missions against.
type Conditions struct {
	Turn  int
	Units map[string]model.Unit
	// BuildCost is the cargo a unit needs to found a city.
	BuildCost int

	PlayerCities   features.PosSet
	OpponentCities features.PosSet
	// Mineable holds cells on or beside a collectable resource.
	Mineable  features.PosSet
	Buildable features.PosSet
}

// Cleanup drops missions that can no longer succeed and returns the dropped
// unit ids in order. Running it twice with the same conditions drops nothing
// the second time.
func (s *Store) Cleanup(c Conditions) []string {
	var dropped []string
	for _, id := range s.IDs() {
		m := s.missions[id]
		if reason := s.invalid(m, c); reason != "" {
			slog.Debug("mission dropped", "unit", id, "target", m.Target, "reason", reason)
			delete(s.missions, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

func (s *Store) invalid(m *Mission, c Conditions) string {
	u, alive := c.Units[m.UnitID]
	if !alive {
		return "unit gone"
	}
	if c.OpponentCities.Has(m.Target) {
		return "target captured"
	}
	if m.Action == BuildCity {
		if u.Cargo.Total() < c.BuildCost {
			return "not enough cargo to build"
		}
		if !c.Buildable.Has(m.Target) {
			return "target no longer buildable"
		}
		return ""
	}
	switch m.Detail {
	case DetailHoming:
		if !c.PlayerCities.Has(m.Target) {
			return "home lost"
		}
	case DetailBorn:
		if c.Turn > m.CreatedTurn+s.bornTTL {
			return "born mission expired"
		}
	default:
		if !c.Mineable.Has(m.Target) {
			return "target exhausted"
		}
	}
	return ""
}

// Decay charges one failed turn to each unit's mission. Missions past the
// retry budget are deleted and their ids returned.
func (s *Store) Decay(failed []string) []string {
	var dropped []string
	sorted := append([]string(nil), failed...)
	sort.Strings(sorted)
	for _, id := range sorted {
		m, ok := s.missions[id]
		if !ok {
			continue
		}
		m.Delays++
		if m.Delays > s.retryBudget {
			slog.Debug("mission dropped", "unit", id, "target", m.Target, "reason", "retry budget exhausted", "delays", m.Delays)
			delete(s.missions, id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

// ResetDelay clears the failure count after the unit acted on its mission.
func (s *Store) ResetDelay(unitID string) {
	if m, ok := s.missions[unitID]; ok {
		m.Delays = 0
	}
}
