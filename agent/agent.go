package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nstehr/lantern/config"
	"github.com/nstehr/lantern/ipc"
	"github.com/nstehr/lantern/model"
	"github.com/nstehr/lantern/planner"
	"github.com/nstehr/lantern/replay"
	"github.com/nstehr/lantern/rules"
)

// ErrNoHello is returned for turns that arrive before the handshake.
var ErrNoHello = errors.New("turn received before hello")

// Session owns the decision-making for a single player connection. Handlers
// are called from one read loop, so a Session is not safe for concurrent use.
type Session struct {
	cfg       config.Config
	engine    *rules.Engine
	replayDir string

	Player   int
	Match    string
	Doctrine rules.Doctrine

	width, height int
	planner       *planner.Planner
	recorder      *replay.Writer
}

// New prepares a session. When replayDir is set every planned turn is
// recorded there, one file per match.
func New(cfg config.Config, replayDir string) (*Session, error) {
	engine, err := rules.NewEngine(rules.CompileDoctrine(cfg.Doctrine))
	if err != nil {
		return nil, fmt.Errorf("compile doctrine %q: %w", cfg.Doctrine.Name, err)
	}
	return &Session{cfg: cfg, engine: engine, replayDir: replayDir, Doctrine: cfg.Doctrine}, nil
}

// Register wires the session's handlers into conn.
func (s *Session) Register(conn *ipc.Connection) {
	conn.RegisterHandler(ipc.TypeHello, s.HandleHello)
	conn.RegisterHandler(ipc.TypeTurn, s.HandleTurn)
}

// HandleHello starts a new match. Missions from any earlier match on the same
// connection are discarded.
func (s *Session) HandleHello(ctx context.Context, env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}
	if err := s.Start(hello); err != nil {
		return nil, err
	}

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok"})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// Start applies a handshake: it checks the grid, installs the doctrine and
// opens a fresh planner and recording.
func (s *Session) Start(hello ipc.HelloMessage) error {
	if hello.PlayerID != 0 && hello.PlayerID != 1 {
		return fmt.Errorf("hello: player id %d", hello.PlayerID)
	}
	if hello.Width <= 0 || hello.Height <= 0 {
		return fmt.Errorf("hello: grid %dx%d", hello.Width, hello.Height)
	}

	doctrine := s.cfg.Doctrine
	if hello.Doctrine != nil {
		doctrine = rules.Doctrine{
			Name:              hello.Doctrine.Name,
			ResearchPriority:  hello.Doctrine.ResearchPriority,
			ExpansionPriority: hello.Doctrine.ExpansionPriority,
		}
		doctrine.Validate()
	}
	if err := s.engine.Swap(rules.CompileDoctrine(doctrine)); err != nil {
		return fmt.Errorf("doctrine %q: %w", doctrine.Name, err)
	}

	if err := s.Close(); err != nil {
		slog.Warn("failed to close previous replay", "match", s.Match, "error", err)
	}
	s.Player, s.width, s.height = hello.PlayerID, hello.Width, hello.Height
	s.Doctrine = doctrine
	s.Match = hello.MatchID
	if s.Match == "" {
		s.Match = fmt.Sprintf("match-%d-p%d", time.Now().Unix(), hello.PlayerID)
	}
	s.planner = planner.New(s.cfg, s.engine)

	if s.replayDir != "" {
		w, err := replay.Create(s.replayDir, s.Match)
		if err != nil {
			// Recording is best effort; play on without it.
			slog.Error("replay disabled", "match", s.Match, "error", err)
		} else {
			s.recorder = w
		}
	}

	slog.Info("player identified",
		"player", s.Player,
		"match", s.Match,
		"grid", fmt.Sprintf("%dx%d", s.width, s.height),
		"doctrine", s.Doctrine.Name,
		"rules", s.engine.Rules(),
	)
	return nil
}

// HandleTurn plans one snapshot and replies with its actions.
func (s *Session) HandleTurn(ctx context.Context, env ipc.Envelope) (*ipc.Envelope, error) {
	res, err := s.Plan(ctx, env.Data)
	if err != nil {
		return nil, err
	}

	gameplay := res.Actions.Gameplay().Strings()
	if s.recorder != nil {
		err := s.recorder.Write(replay.Record{
			Match:     s.Match,
			Turn:      res.Turn,
			PlayerID:  s.Player,
			Doctrine:  s.Doctrine,
			Snapshot:  env.Data,
			Actions:   gameplay,
			Missions:  res.Missions,
			ElapsedMs: res.Elapsed.Milliseconds(),
			Degraded:  res.Degraded,
		})
		if err != nil {
			slog.Error("failed to record turn", "match", s.Match, "turn", res.Turn, "error", err)
		}
	}

	out, err := ipc.NewEnvelope(ipc.TypeActions, ipc.ActionsMessage{
		Turn:      res.Turn,
		Actions:   res.Actions.Strings(),
		ElapsedMs: res.Elapsed.Milliseconds(),
		Degraded:  res.Degraded,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Plan validates and decodes raw, then plans it within the turn budget.
func (s *Session) Plan(ctx context.Context, raw []byte) (planner.Result, error) {
	if s.planner == nil {
		return planner.Result{}, ErrNoHello
	}
	snap, err := model.DecodeSnapshot(raw)
	if err != nil {
		return planner.Result{}, err
	}
	if snap.PlayerID != s.Player {
		return planner.Result{}, fmt.Errorf("%w: snapshot for player %d on player %d's session", model.ErrInvalidSnapshot, snap.PlayerID, s.Player)
	}
	if snap.Width != s.width || snap.Height != s.height {
		return planner.Result{}, fmt.Errorf("%w: grid %dx%d, hello said %dx%d", model.ErrInvalidSnapshot, snap.Width, snap.Height, s.width, s.height)
	}
	g, err := model.NewGame(snap, s.cfg.Game)
	if err != nil {
		return planner.Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TurnBudget)
	defer cancel()
	return s.planner.Plan(ctx, g), nil
}

// Close finishes the current recording, if any.
func (s *Session) Close() error {
	if s.recorder == nil {
		return nil
	}
	err := s.recorder.Close()
	s.recorder = nil
	return err
}
