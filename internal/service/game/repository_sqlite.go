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

// SQLiteSchema mirrors Schema for SQLite. Timestamps are unix milliseconds.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS board_games (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_uuid  TEXT NOT NULL UNIQUE,
	mode          TEXT NOT NULL,
	white_name    TEXT NOT NULL,
	black_name    TEXT NOT NULL,
	winner        TEXT NOT NULL DEFAULT '',
	result_method TEXT NOT NULL,
	white_score   INTEGER NOT NULL DEFAULT 0,
	black_score   INTEGER NOT NULL DEFAULT 0,
	moves_uci     TEXT NOT NULL DEFAULT '[]',
	final_fen     TEXT NOT NULL DEFAULT '',
	started_at    INTEGER NOT NULL,
	ended_at      INTEGER NOT NULL,
	duration_ms   INTEGER
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
	last_played_at INTEGER,
	updated_at     INTEGER NOT NULL,
	created_at     INTEGER NOT NULL
);`

type sqliteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository returns a Repository over a database opened with the
// "sqlite" driver (modernc.org/sqlite).
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db, now: time.Now}
}

func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}

func (r *sqliteRepository) InsertGame(ctx context.Context, game *domain.GameRecord) (int64, error) {
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
			session_uuid, mode, white_name, black_name, winner, result_method,
			white_score, black_score, moves_uci, final_fen, started_at, ended_at, duration_ms
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		game.SessionUUID,
		game.Mode,
		game.WhiteName,
		game.BlackName,
		game.Winner,
		game.ResultMethod,
		game.WhiteScore,
		game.BlackScore,
		string(movesJSON),
		game.FinalFEN,
		toMillis(game.StartedAt),
		toMillis(game.EndedAt),
		game.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return id, nil
}

const sqliteGameSelect = `SELECT
	id, session_uuid, mode, white_name, black_name, winner, result_method,
	white_score, black_score, moves_uci, final_fen, started_at, ended_at, duration_ms
	FROM board_games`

func (r *sqliteRepository) GetRecentGames(ctx context.Context, player string, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, sqliteGameSelect+`
		WHERE white_name = ? OR black_name = ?
		ORDER BY ended_at DESC, id DESC
		LIMIT ?`, player, player, limit)
	if err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		game, err := scanSQLiteGame(rows)
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

func (r *sqliteRepository) GetGame(ctx context.Context, id int64) (*domain.GameRecord, error) {
	game, err := scanSQLiteGame(r.db.QueryRowContext(ctx, sqliteGameSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

func (r *sqliteRepository) GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error) {
	game, err := scanSQLiteGame(r.db.QueryRowContext(ctx, sqliteGameSelect+` WHERE session_uuid = ? LIMIT 1`, sessionUUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return game, err
}

func scanSQLiteGame(row rowScanner) (*domain.GameRecord, error) {
	var (
		game       domain.GameRecord
		movesJSON  string
		startedMS  int64
		endedMS    int64
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
		&startedMS,
		&endedMS,
		&durationMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan game: %w", err)
	}
	game.StartedAt = fromMillis(startedMS)
	game.EndedAt = fromMillis(endedMS)
	if durationMS.Valid {
		game.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if movesJSON != "" {
		if err := json.Unmarshal([]byte(movesJSON), &game.MovesUCI); err != nil {
			return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
		}
	}
	return &game, nil
}

func (r *sqliteRepository) GetProfile(ctx context.Context, name string) (*domain.PlayerProfile, error) {
	const query = `
		SELECT name, games_played, wins, losses, streak, streak_type, best_score,
			last_played_at, updated_at, created_at
		FROM board_profiles
		WHERE name = ?
		LIMIT 1`

	var (
		profile              domain.PlayerProfile
		lastPlayed           sql.NullInt64
		updatedMS, createdMS int64
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
		&updatedMS,
		&createdMS,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	if lastPlayed.Valid {
		profile.LastPlayedAt = fromMillis(lastPlayed.Int64)
	}
	profile.UpdatedAt = fromMillis(updatedMS)
	profile.CreatedAt = fromMillis(createdMS)
	return &profile, nil
}

func (r *sqliteRepository) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if profile == nil {
		return fmt.Errorf("nil profile")
	}
	const query = `
		INSERT INTO board_profiles (
			name, games_played, wins, losses, streak, streak_type, best_score,
			last_played_at, updated_at, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name)
		DO UPDATE SET
			games_played = excluded.games_played,
			wins = excluded.wins,
			losses = excluded.losses,
			streak = excluded.streak,
			streak_type = excluded.streak_type,
			best_score = excluded.best_score,
			last_played_at = excluded.last_played_at,
			updated_at = excluded.updated_at`

	now := toMillis(r.now())
	created := toMillis(profile.CreatedAt)
	if created == 0 {
		created = now
	}
	_, err := r.db.ExecContext(ctx, query,
		profile.Name,
		profile.GamesPlayed,
		profile.Wins,
		profile.Losses,
		profile.Streak,
		profile.StreakType,
		profile.BestScore,
		toMillis(profile.LastPlayedAt),
		now,
		created,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
