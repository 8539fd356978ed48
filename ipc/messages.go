package ipc

// Message types. The runner opens with hello, then sends one turn per game
// step and expects exactly one actions reply to each.
const (
	TypeHello   = "hello"
	TypeAck     = "ack"
	TypeTurn    = "turn" // data is the raw snapshot JSON
	TypeActions = "actions"
	TypeError   = "error"
)

type HelloMessage struct {
	PlayerID int    `json:"player_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MatchID  string `json:"match_id,omitempty"`
	// Doctrine optionally overrides the configured city-tile doctrine for
	// this match.
	Doctrine *DoctrineMessage `json:"doctrine,omitempty"`
}

type DoctrineMessage struct {
	Name              string  `json:"name"`
	ResearchPriority  float64 `json:"research_priority"`
	ExpansionPriority float64 `json:"expansion_priority"`
}

type AckMessage struct {
	Status string `json:"status"`
}

type ActionsMessage struct {
	Turn      int      `json:"turn"`
	Actions   []string `json:"actions"`
	ElapsedMs int64    `json:"elapsed_ms"`
	Degraded  bool     `json:"degraded"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
