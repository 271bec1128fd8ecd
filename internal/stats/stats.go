// Package stats tracks per-user lifetime game totals and exposes a
// leaderboard, backed by Postgres in production and an in-memory map in
// tests and local dev.
package stats

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrUserNotFound is returned by GetUserStats for an unknown user ID.
var ErrUserNotFound = errors.New("stats: user not found")

// UserStats is one user's lifetime totals.
type UserStats struct {
	UserID      string `json:"user_id"`
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	TotalPoints int    `json:"total_points"`
}

// LeaderboardEntry is one ranked row of the leaderboard.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	UserStats
}

// Repository records and reports per-user game outcomes.
type Repository interface {
	IncrementGames(ctx context.Context, userID string) error
	IncrementWins(ctx context.Context, userID string) error
	AddPoints(ctx context.Context, userID string, points int) error
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetUserStats(ctx context.Context, userID string) (*UserStats, error)
}

// InMemory is a Repository backed by a guarded map, used in dev and tests
// where no database is configured.
type InMemory struct {
	mu    sync.RWMutex
	users map[string]*UserStats
}

// NewInMemory returns an empty in-memory stats repository.
func NewInMemory() *InMemory {
	return &InMemory{users: make(map[string]*UserStats)}
}

func (m *InMemory) entry(userID string) *UserStats {
	u, ok := m.users[userID]
	if !ok {
		u = &UserStats{UserID: userID}
		m.users[userID] = u
	}
	return u
}

func (m *InMemory) IncrementGames(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(userID).GamesPlayed++
	return nil
}

func (m *InMemory) IncrementWins(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(userID).Wins++
	return nil
}

func (m *InMemory) AddPoints(_ context.Context, userID string, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(userID).TotalPoints += points
	return nil
}

func (m *InMemory) GetLeaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]UserStats, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].TotalPoints != all[j].TotalPoints {
			return all[i].TotalPoints > all[j].TotalPoints
		}
		return all[i].UserID < all[j].UserID
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]LeaderboardEntry, len(all))
	for i, u := range all {
		out[i] = LeaderboardEntry{Rank: i + 1, UserStats: u}
	}
	return out, nil
}

func (m *InMemory) GetUserStats(_ context.Context, userID string) (*UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
