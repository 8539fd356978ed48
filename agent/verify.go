package agent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/nstehr/lantern/config"
	"github.com/nstehr/lantern/ipc"
	"github.com/nstehr/lantern/model"
	"github.com/nstehr/lantern/replay"
)

// Mismatch is a recorded turn whose re-planned actions differ.
type Mismatch struct {
	Match string
	Turn  int
	Want  []string
	Got   []string
}

// VerifyReport summarises a determinism check.
type VerifyReport struct {
	Turns      int
	Skipped    int
	Mismatches []Mismatch
}

// Verify re-plans every record with a fresh session per match and compares
// gameplay actions. Turns that were degraded when recorded, or are degraded
// now, depend on timing and are skipped.
func Verify(ctx context.Context, cfg config.Config, records []replay.Record) (VerifyReport, error) {
	var (
		report  VerifyReport
		session *Session
		match   string
	)
	for i, rec := range records {
		if session == nil || rec.Match != match {
			snap, err := model.DecodeSnapshot(rec.Snapshot)
			if err != nil {
				return report, fmt.Errorf("record %d: %w", i, err)
			}
			if session, err = New(cfg, ""); err != nil {
				return report, err
			}
			d := rec.Doctrine
			err = session.Start(ipc.HelloMessage{
				PlayerID: rec.PlayerID,
				Width:    snap.Width,
				Height:   snap.Height,
				MatchID:  rec.Match,
				Doctrine: &ipc.DoctrineMessage{Name: d.Name, ResearchPriority: d.ResearchPriority, ExpansionPriority: d.ExpansionPriority},
			})
			if err != nil {
				return report, fmt.Errorf("record %d: %w", i, err)
			}
			match = rec.Match
		}

		res, err := session.Plan(ctx, rec.Snapshot)
		if err != nil {
			return report, fmt.Errorf("record %d (turn %d): %w", i, rec.Turn, err)
		}
		report.Turns++
		if rec.Degraded || res.Degraded {
			report.Skipped++
			continue
		}
		got := res.Actions.Gameplay().Strings()
		if !slices.Equal(got, rec.Actions) {
			slog.Warn("replay mismatch", "match", rec.Match, "turn", rec.Turn, "want", rec.Actions, "got", got)
			report.Mismatches = append(report.Mismatches, Mismatch{Match: rec.Match, Turn: rec.Turn, Want: rec.Actions, Got: got})
		}
	}
	return report, nil
}
