package chessdto

import "time"

type GameRecord struct {
	ID           int64         `json:"id"`
	SessionUUID  string        `json:"session_id"`
	Mode         string        `json:"mode"`
	WhiteName    string        `json:"white_name"`
	BlackName    string        `json:"black_name"`
	Winner       string        `json:"winner"`
	ResultMethod string        `json:"result_method"`
	Scores       Score         `json:"scores"`
	MovesUCI     []string      `json:"moves"`
	FinalFEN     string        `json:"final_fen"`
	StartedAt    time.Time     `json:"started_at"`
	EndedAt      time.Time     `json:"ended_at"`
	Duration     time.Duration `json:"duration_ns"`
}

type HistoryResponse struct {
	Player string        `json:"player,omitempty"`
	Games  []*GameRecord `json:"games"`
}
