// Package store persists finished game results to Postgres and serves
// the all-time leaderboard. The server runs without a database when no
// URL is configured; callers hold a nil *Store in that case.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq" // postgres driver

	"github.com/cardhall/holdem/internal/game"
	"github.com/cardhall/holdem/internal/gameid"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS game_results (
		id VARCHAR(36) PRIMARY KEY,
		played_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS game_result_players (
		id VARCHAR(36) PRIMARY KEY,
		game_result_id VARCHAR(36) NOT NULL REFERENCES game_results(id) ON DELETE CASCADE,
		nickname VARCHAR(50) NOT NULL,
		placement INTEGER NOT NULL,
		points_awarded INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_game_result_players_nickname ON game_result_players(nickname)`,
	`CREATE INDEX IF NOT EXISTS idx_game_result_players_game_result_id ON game_result_players(game_result_id)`,
}

// Store wraps the results database.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, databaseURL string, logger *log.Logger) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// EnsureSchema creates the result tables and indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.logger.Debug("database schema ready")
	return nil
}

// SaveResult records one finished game and its final placements.
func (s *Store) SaveResult(ctx context.Context, placements []game.Placement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	defer tx.Rollback()

	resultID := gameid.Generate()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_results (id) VALUES ($1)`, resultID); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	for _, p := range placements {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_result_players (id, game_result_id, nickname, placement, points_awarded)
			 VALUES ($1, $2, $3, $4, $5)`,
			gameid.Generate(), resultID, p.Nickname, p.Position, p.Points); err != nil {
			return fmt.Errorf("save result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	s.logger.Info("game result saved", "result_id", resultID, "players", len(placements))
	return nil
}

// LeaderboardEntry is one row of the all-time leaderboard.
type LeaderboardEntry struct {
	Nickname    string `json:"nickname"`
	TotalPoints int    `json:"total_points"`
	GamesPlayed int    `json:"games_played"`
}

// Leaderboard returns players ranked by total points won.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT nickname, SUM(points_awarded) AS total_points, COUNT(*) AS games_played
		FROM game_result_players
		GROUP BY nickname
		ORDER BY total_points DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Nickname, &e.TotalPoints, &e.GamesPlayed); err != nil {
			return nil, fmt.Errorf("leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return entries, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
