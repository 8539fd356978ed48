package model

import (
	"fmt"
	"strings"
)

// ActionKind identifies one of the discrete tokens the game accepts.
type ActionKind int

const (
	ActionMove ActionKind = iota
	ActionBuildCity
	ActionTransfer
	ActionBuildWorker
	ActionResearch

	// Annotations have no gameplay effect.
	ActionDrawCircle
	ActionDrawCross
	ActionDrawLine
	ActionDrawText
	ActionSideText
)

// Action is a single output token. Only the fields relevant to Kind are set.
type Action struct {
	Kind     ActionKind
	UnitID   string
	TargetID string
	Dir      Direction
	Pos      Pos
	To       Pos
	Resource ResourceType
	Amount   int
	Text     string
	FontSize int
}

func Move(unitID string, d Direction) Action {
	return Action{Kind: ActionMove, UnitID: unitID, Dir: d}
}

func BuildCity(unitID string) Action {
	return Action{Kind: ActionBuildCity, UnitID: unitID}
}

func Transfer(from, to string, r ResourceType, amount int) Action {
	return Action{Kind: ActionTransfer, UnitID: from, TargetID: to, Resource: r, Amount: amount}
}

func BuildWorker(at Pos) Action { return Action{Kind: ActionBuildWorker, Pos: at} }

func Research(at Pos) Action { return Action{Kind: ActionResearch, Pos: at} }

func DrawCircle(at Pos) Action { return Action{Kind: ActionDrawCircle, Pos: at} }

func DrawCross(at Pos) Action { return Action{Kind: ActionDrawCross, Pos: at} }

func DrawLine(from, to Pos) Action { return Action{Kind: ActionDrawLine, Pos: from, To: to} }

func DrawText(at Pos, text string) Action {
	return Action{Kind: ActionDrawText, Pos: at, Text: text, FontSize: 16}
}

func SideText(text string) Action { return Action{Kind: ActionSideText, Text: text} }

// IsAnnotation reports whether the action is a visualisation-only token.
func (a Action) IsAnnotation() bool { return a.Kind >= ActionDrawCircle }

// String renders the wire token.
func (a Action) String() string {
	switch a.Kind {
	case ActionMove:
		return fmt.Sprintf("m %s %s", a.UnitID, a.Dir)
	case ActionBuildCity:
		return "bcity " + a.UnitID
	case ActionTransfer:
		return fmt.Sprintf("t %s %s %s %d", a.UnitID, a.TargetID, a.Resource, a.Amount)
	case ActionBuildWorker:
		return fmt.Sprintf("bw %d %d", a.Pos.X, a.Pos.Y)
	case ActionResearch:
		return fmt.Sprintf("r %d %d", a.Pos.X, a.Pos.Y)
	case ActionDrawCircle:
		return fmt.Sprintf("dc %d %d", a.Pos.X, a.Pos.Y)
	case ActionDrawCross:
		return fmt.Sprintf("dx %d %d", a.Pos.X, a.Pos.Y)
	case ActionDrawLine:
		return fmt.Sprintf("dl %d %d %d %d", a.Pos.X, a.Pos.Y, a.To.X, a.To.Y)
	case ActionDrawText:
		return fmt.Sprintf("dt %d %d '%s' %d", a.Pos.X, a.Pos.Y, quote(a.Text), a.FontSize)
	case ActionSideText:
		return fmt.Sprintf("dst '%s'", quote(a.Text))
	}
	return ""
}

// quote strips the delimiter the annotation tokens use.
func quote(s string) string { return strings.ReplaceAll(s, "'", "") }

// Actions is an ordered turn output.
type Actions []Action

// Gameplay returns the actions with annotations dropped.
func (as Actions) Gameplay() Actions {
	out := make(Actions, 0, len(as))
	for _, a := range as {
		if !a.IsAnnotation() {
			out = append(out, a)
		}
	}
	return out
}

// Strings renders every action token in order.
func (as Actions) Strings() []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.String()
	}
	return out
}
