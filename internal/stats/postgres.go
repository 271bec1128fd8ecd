package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Repository backed by a user_stats table:
//
//	CREATE TABLE user_stats (
//	    user_id      TEXT PRIMARY KEY,
//	    games_played INTEGER NOT NULL DEFAULT 0,
//	    wins         INTEGER NOT NULL DEFAULT 0,
//	    total_points INTEGER NOT NULL DEFAULT 0
//	);
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and returns a Postgres repository.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("stats: connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("stats: pinging postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) upsertDelta(ctx context.Context, userID, column string, delta int) error {
	query := fmt.Sprintf(`
		INSERT INTO user_stats (user_id, %s)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET %s = user_stats.%s + $2
	`, column, column, column)
	_, err := p.pool.Exec(ctx, query, userID, delta)
	if err != nil {
		return fmt.Errorf("stats: updating %s for %s: %w", column, userID, err)
	}
	return nil
}

func (p *Postgres) IncrementGames(ctx context.Context, userID string) error {
	return p.upsertDelta(ctx, userID, "games_played", 1)
}

func (p *Postgres) IncrementWins(ctx context.Context, userID string) error {
	return p.upsertDelta(ctx, userID, "wins", 1)
}

func (p *Postgres) AddPoints(ctx context.Context, userID string, points int) error {
	return p.upsertDelta(ctx, userID, "total_points", points)
}

func (p *Postgres) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx, `
		SELECT user_id, games_played, wins, total_points
		FROM user_stats
		ORDER BY total_points DESC, user_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("stats: querying leaderboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var u UserStats
		if err := rows.Scan(&u.UserID, &u.GamesPlayed, &u.Wins, &u.TotalPoints); err != nil {
			return nil, fmt.Errorf("stats: scanning leaderboard row: %w", err)
		}
		out = append(out, LeaderboardEntry{Rank: rank, UserStats: u})
		rank++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: iterating leaderboard: %w", err)
	}
	return out, nil
}

func (p *Postgres) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	var u UserStats
	err := p.pool.QueryRow(ctx, `
		SELECT user_id, games_played, wins, total_points
		FROM user_stats
		WHERE user_id = $1
	`, userID).Scan(&u.UserID, &u.GamesPlayed, &u.Wins, &u.TotalPoints)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stats: querying user %s: %w", userID, err)
	}
	return &u, nil
}
