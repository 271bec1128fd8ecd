package stats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_AccumulatesPerUser(t *testing.T) {
	repo := NewInMemory()
	ctx := context.Background()

	require.NoError(t, repo.IncrementGames(ctx, "alice"))
	require.NoError(t, repo.IncrementGames(ctx, "alice"))
	require.NoError(t, repo.IncrementWins(ctx, "alice"))
	require.NoError(t, repo.AddPoints(ctx, "alice", 30))

	got, err := repo.GetUserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, got.GamesPlayed)
	assert.Equal(t, 1, got.Wins)
	assert.Equal(t, 30, got.TotalPoints)
}

func TestInMemory_GetUserStats_UnknownUser(t *testing.T) {
	repo := NewInMemory()
	_, err := repo.GetUserStats(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestInMemory_Leaderboard_OrderedByPointsThenUserID(t *testing.T) {
	repo := NewInMemory()
	ctx := context.Background()

	require.NoError(t, repo.AddPoints(ctx, "bob", 10))
	require.NoError(t, repo.AddPoints(ctx, "alice", 20))
	require.NoError(t, repo.AddPoints(ctx, "carol", 20))

	board, err := repo.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)

	assert.Equal(t, "alice", board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "carol", board[1].UserID)
	assert.Equal(t, 2, board[1].Rank)
	assert.Equal(t, "bob", board[2].UserID)
	assert.Equal(t, 3, board[2].Rank)
}

func TestInMemory_Leaderboard_RespectsLimit(t *testing.T) {
	repo := NewInMemory()
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.IncrementGames(ctx, name))
	}

	board, err := repo.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, board, 2)
}
