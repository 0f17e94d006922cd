package chessdto

import "time"

type PlayerProfile struct {
	Name         string    `json:"name"`
	GamesPlayed  int       `json:"games_played"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Streak       int       `json:"streak"`
	StreakType   string    `json:"streak_type,omitempty"`
	BestScore    int       `json:"best_score"`
	LastPlayedAt time.Time `json:"last_played_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CreatedAt    time.Time `json:"created_at"`
}
