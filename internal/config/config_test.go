package config

import (
	"testing"

	"github.com/park285/Cheese-boardchess/internal/chess"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "REDIS_URL", "DATABASE_URL", "SESSION_TTL", "HISTORY_LIMIT", "MESSAGES_DIR", "COMPUTER_SIDE", "WHITE_NAME", "BLACK_NAME", "CHESS_SERVER_URL"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, 3600, cfg.SessionTTLSec)
	require.Equal(t, 10, cfg.HistoryLimit)
	require.Equal(t, chess.Black, cfg.ComputerSide)
	require.Equal(t, "White", cfg.WhiteName)
	require.Equal(t, "Black", cfg.BlackName)
	require.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("SESSION_TTL", "60")
	t.Setenv("HISTORY_LIMIT", "nope")
	t.Setenv("COMPUTER_SIDE", "white")
	t.Setenv("WHITE_NAME", " Alice ")
	t.Setenv("CHESS_SERVER_URL", "http://localhost:8080")
	t.Setenv("DATABASE_URL", "sqlite:games.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	require.Equal(t, 60, cfg.SessionTTLSec)
	require.Equal(t, 10, cfg.HistoryLimit, "invalid numbers keep the default")
	require.Equal(t, chess.White, cfg.ComputerSide)
	require.Equal(t, "Alice", cfg.WhiteName)
	require.Equal(t, "http://localhost:8080", cfg.ServerURL)
	require.Equal(t, "sqlite:games.db", cfg.DatabaseURL)
}

func TestLoadRejectsUnknownSide(t *testing.T) {
	t.Setenv("COMPUTER_SIDE", "purple")
	_, err := Load()
	require.Error(t, err)
}
