package chessdto

import "time"

type Score struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// SessionState is the wire view of a live or just-finished game. Squares are
// algebraic ("e4") and moves are from/to pairs ("e2e4").
type SessionState struct {
	SessionUUID string `json:"session_id"`
	Mode        string `json:"mode"`
	WhiteName   string `json:"white_name"`
	BlackName   string `json:"black_name"`
	// Computer is the side played by the greedy policy, empty in friends mode.
	Computer string `json:"computer,omitempty"`

	FEN string `json:"fen"`
	// Rows lists the ranks from 8 down to 1, one FEN letter per square and '.' for empty.
	Rows         []string `json:"rows"`
	Turn         string   `json:"turn"`
	TurnName     string   `json:"turn_name"`
	Scores       Score    `json:"scores"`
	MovesUCI     []string `json:"moves"`
	LastMove     string   `json:"last_move,omitempty"`
	Selected     string   `json:"selected,omitempty"`
	Destinations []string `json:"destinations,omitempty"`
	CanUndo      bool     `json:"can_undo"`
	CanRedo      bool     `json:"can_redo"`

	Finished     bool   `json:"finished"`
	Winner       string `json:"winner,omitempty"`
	ResultMethod string `json:"result_method,omitempty"`
	GameID       int64  `json:"game_id,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActionResponse is returned by every endpoint that drives a session. Error is
// set when a rule rejected the action; State still reflects the session.
type ActionResponse struct {
	State      *SessionState `json:"state,omitempty"`
	Applied    string        `json:"applied,omitempty"`
	Reply      string        `json:"reply,omitempty"`
	Reselected bool          `json:"reselected,omitempty"`
	Message    string        `json:"message,omitempty"`
	Error      *DomainError  `json:"error,omitempty"`
}
