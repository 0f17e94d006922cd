package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/park285/Cheese-boardchess/internal/domain"
)

var ErrDuplicateGame = errors.New("game record already exists")

// Repository persists finished games and per-player profiles.
// Lookups that find nothing return (nil, nil).
type Repository interface {
	InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error)
	GetRecentGames(ctx context.Context, player string, limit int) ([]*domain.GameRecord, error)
	GetGame(ctx context.Context, id int64) (*domain.GameRecord, error)
	GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error)
	GetProfile(ctx context.Context, name string) (*domain.PlayerProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error
}

// Schema creates the tables used by the Postgres repository.
const Schema = `
CREATE TABLE IF NOT EXISTS board_games (
	id            BIGSERIAL PRIMARY KEY,
	session_uuid  TEXT NOT NULL UNIQUE,
	mode          TEXT NOT NULL,
	white_name    TEXT NOT NULL,
	black_name    TEXT NOT NULL,
	winner        TEXT NOT NULL DEFAULT '',
	result_method TEXT NOT NULL,
	white_score   INTEGER NOT NULL DEFAULT 0,
	black_score   INTEGER NOT NULL DEFAULT 0,
	moves_uci     JSONB NOT NULL DEFAULT '[]'::jsonb,
	final_fen     TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT
);
CREATE INDEX IF NOT EXISTS board_games_white_idx ON board_games (white_name, ended_at DESC);
CREATE INDEX IF NOT EXISTS board_games_black_idx ON board_games (black_name, ended_at DESC);
CREATE TABLE IF NOT EXISTS board_profiles (
	name           TEXT PRIMARY KEY,
	games_played   INTEGER NOT NULL DEFAULT 0,
	wins           INTEGER NOT NULL DEFAULT 0,
	losses         INTEGER NOT NULL DEFAULT 0,
	streak         INTEGER NOT NULL DEFAULT 0,
	streak_type    TEXT NOT NULL DEFAULT '',
	best_score     INTEGER NOT NULL DEFAULT 0,
	last_played_at TIMESTAMPTZ,
	updated_at     TIMESTAMPTZ NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);`

type repository struct {
	db *sql.DB
}

// NewRepository returns a Postgres-backed Repository. The driver is registered
// by the caller (lib/pq).
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// EnsureSchema applies Schema. Statements are idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const gameColumns = `
	id,
	session_uuid,
	mode,
	white_name,
	black_name,
	winner,
	result_method,
	white_score,
	black_score,
	moves_uci,
	final_fen,
	started_at,
	ended_at,
	duration_ms`

func (r *repository) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil game record")
	}
	moves := game.MovesUCI
	if moves == nil {
		moves = []string{}
	}
	movesJSON, err := json.Marshal(moves)
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}

	const query = `
		INSERT INTO board_games (
			session_uuid,
			mode,
			white_name,
			black_name,
			winner,
			result_method,
			white_score,
			black_score,
			moves_uci,
			final_fen,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11, $12, $13)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.SessionUUID,
		game.Mode,
		game.WhiteName,
		game.BlackName,
		game.Winner,
		game.ResultMethod,
		game.WhiteScore,
		game.BlackScore,
		movesJSON,
		game.FinalFEN,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id.Int64, nil
}

func (r *repository) GetRecentGames(ctx context.Context, player string, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT` + gameColumns + `
		FROM board_games
		WHERE white_name = $1 OR black_name = $1
		ORDER BY ended_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, player, limit)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

func (r *repository) GetGame(ctx context.Context, id int64) (*domain.GameRecord, error) {
	query := `SELECT` + gameColumns + `
		FROM board_games
		WHERE id = $1`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

func (r *repository) GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error) {
	query := `SELECT` + gameColumns + `
		FROM board_games
		WHERE session_uuid = $1
		LIMIT 1`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, sessionUUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.GameRecord, error) {
	var (
		game       domain.GameRecord
		movesJSON  []byte
		durationMS sql.NullInt64
	)
	err := row.Scan(
		&game.ID,
		&game.SessionUUID,
		&game.Mode,
		&game.WhiteName,
		&game.BlackName,
		&game.Winner,
		&game.ResultMethod,
		&game.WhiteScore,
		&game.BlackScore,
		&movesJSON,
		&game.FinalFEN,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan game: %w", err)
	}
	if durationMS.Valid {
		game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if len(movesJSON) > 0 {
		if err := json.Unmarshal(movesJSON, &game.MovesUCI); err != nil {
			return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
		}
	}
	return &game, nil
}

func (r *repository) GetProfile(ctx context.Context, name string) (*domain.PlayerProfile, error) {
	const query = `
		SELECT
			name,
			games_played,
			wins,
			losses,
			streak,
			streak_type,
			best_score,
			last_played_at,
			updated_at,
			created_at
		FROM board_profiles
		WHERE name = $1
		LIMIT 1`

	var (
		profile    domain.PlayerProfile
		lastPlayed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&profile.Name,
		&profile.GamesPlayed,
		&profile.Wins,
		&profile.Losses,
		&profile.Streak,
		&profile.StreakType,
		&profile.BestScore,
		&lastPlayed,
		&profile.UpdatedAt,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	if lastPlayed.Valid {
		profile.LastPlayedAt = lastPlayed.Time
	}
	return &profile, nil
}

func (r *repository) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if profile == nil {
		return fmt.Errorf("nil profile")
	}
	const query = `
		INSERT INTO board_profiles (
			name,
			games_played,
			wins,
			losses,
			streak,
			streak_type,
			best_score,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (name)
		DO UPDATE SET
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			streak = EXCLUDED.streak,
			streak_type = EXCLUDED.streak_type,
			best_score = EXCLUDED.best_score,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.Name,
		profile.GamesPlayed,
		profile.Wins,
		profile.Losses,
		profile.Streak,
		profile.StreakType,
		profile.BestScore,
		profile.LastPlayedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
