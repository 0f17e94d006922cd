package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/park285/Cheese-boardchess/internal/chess"
)

type AppConfig struct {
	HTTPAddr string

	RedisURL string
	// DatabaseURL selects the game repository: postgres:// (lib/pq) or
	// sqlite:<path> (modernc sqlite). Empty keeps records in memory.
	DatabaseURL string
	// ServerURL points chess-cli at a running chess-server instead of a local service.
	ServerURL string

	SessionTTLSec int
	HistoryLimit  int

	MessagesDir string

	ComputerSide chess.Side
	WhiteName    string
	BlackName    string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:      ":8080",
		SessionTTLSec: 3600,
		HistoryLimit:  10,
		ComputerSide:  chess.Black,
		WhiteName:     "White",
		BlackName:     "Black",
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	cfg.ServerURL = strings.TrimSpace(os.Getenv("CHESS_SERVER_URL"))

	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" { // seconds
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("COMPUTER_SIDE")); v != "" {
		side, err := chess.ParseSide(v)
		if err != nil {
			return nil, fmt.Errorf("COMPUTER_SIDE: %w", err)
		}
		cfg.ComputerSide = side
	}
	if v := strings.TrimSpace(os.Getenv("WHITE_NAME")); v != "" {
		cfg.WhiteName = v
	}
	if v := strings.TrimSpace(os.Getenv("BLACK_NAME")); v != "" {
		cfg.BlackName = v
	}

	return cfg, nil
}
