package domain

import "time"

// GameRecord is a finished game as stored by the repository.
type GameRecord struct {
	ID          int64
	SessionUUID string
	Mode        string
	WhiteName   string
	BlackName   string
	// Winner is "white", "black" or empty.
	Winner       string
	ResultMethod string
	WhiteScore   int
	BlackScore   int
	MovesUCI     []string
	FinalFEN     string
	StartedAt    time.Time
	EndedAt      time.Time
	Duration     time.Duration
}

// PlayerProfile aggregates results per player name.
type PlayerProfile struct {
	Name         string
	GamesPlayed  int
	Wins         int
	Losses       int
	Streak       int
	StreakType   string
	BestScore    int
	LastPlayedAt time.Time
	UpdatedAt    time.Time
	CreatedAt    time.Time
}
