package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordarena/internal/arena"
	"wordarena/internal/auth"
	"wordarena/internal/coordinator"
	"wordarena/internal/queue"
	"wordarena/internal/registry"
	"wordarena/internal/stats"
	"wordarena/internal/words"
)

type fakeProvider struct {
	length int
	target string
}

func (f fakeProvider) PickWord(length int) (string, bool) {
	if length != f.length {
		return "", false
	}
	return f.target, true
}
func (f fakeProvider) IsValid(word string) bool { return word == f.target }
func (f fakeProvider) Lengths() []int           { return []int{f.length} }

var _ words.Provider = fakeProvider{}

func newTestRouter(t *testing.T) (http.Handler, *coordinator.Coordinator, stats.Repository, context.CancelFunc) {
	t.Helper()
	reg := registry.New(registry.Limits{SubmitGuessPerMinute: 1000, JoinQueuePerMinute: 1000, HeartbeatPerMinute: 1000, MaxConnectionsPerIP: 10})
	repo := stats.NewInMemory()
	c := coordinator.New(coordinator.Config{
		Game: arena.Config{
			PointThreshold:          100,
			WordLengths:             []int{3},
			RoundCountdownSeconds:   1,
			GuessingDeadlineSeconds: 5,
			PauseTimeoutSeconds:     1,
		},
		Queue: queue.Config{
			MinPlayers:           2,
			MaxPlayers:           2,
			VoteFraction:         1.0,
			FullCountdownSeconds: 30,
			IdleQueueTimeout:     time.Minute,
		},
		ReapInterval:          time.Hour,
		RoomRetentionAfterEnd: time.Hour,
	}, reg, auth.NewDevVerifier(), fakeProvider{length: 3, target: "CAT"}, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	router := NewRouter(c, repo, nil, 1000, nil)
	return router, c, repo, cancel
}

func TestLeaderboard_ReturnsRankedEntries(t *testing.T) {
	router, _, repo, cancel := newTestRouter(t)
	defer cancel()

	require.NoError(t, repo.AddPoints(context.Background(), "p1", 10))
	require.NoError(t, repo.AddPoints(context.Background(), "p2", 20))

	req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var entries []stats.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "p2", entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
}

func TestUserStats_NotFoundForUnknownUser(t *testing.T) {
	router, _, _, cancel := newTestRouter(t)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/user/ghost/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserStats_ReturnsTotalsForKnownUser(t *testing.T) {
	router, _, repo, cancel := newTestRouter(t)
	defer cancel()

	require.NoError(t, repo.IncrementGames(context.Background(), "p1"))
	require.NoError(t, repo.IncrementWins(context.Background(), "p1"))
	require.NoError(t, repo.AddPoints(context.Background(), "p1", 10))
	require.NoError(t, repo.AddPoints(context.Background(), "p2", 20))

	req := httptest.NewRequest(http.MethodGet, "/user/p1/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var st UserStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.GamesPlayed)
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 2, st.Rank)
}

func TestLeaderboard_ClampsLimitTo100(t *testing.T) {
	router, _, repo, cancel := newTestRouter(t)
	defer cancel()

	for i := 0; i < 150; i++ {
		require.NoError(t, repo.AddPoints(context.Background(), fmt.Sprintf("p%d", i), i))
	}

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?limit=99999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var entries []stats.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, maxLeaderboardLimit)
}

func TestGameState_NotFoundForUnknownGame(t *testing.T) {
	router, _, _, cancel := newTestRouter(t)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/game/no-such-game/state", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGameState_ReturnsStateAfterMatchForms(t *testing.T) {
	router, c, _, cancel := newTestRouter(t)
	defer cancel()

	require.NoError(t, c.JoinQueue(context.Background(), "p1", "Alice"))
	require.NoError(t, c.JoinQueue(context.Background(), "p2", "Bob"))

	var gameID string
	require.Eventually(t, func() bool {
		gid, ok := c.GameIDFor("p1")
		gameID = gid
		return ok
	}, time.Second, 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/game/"+gameID+"/state", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var state arena.SafeGameState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, gameID, state.ID)
}
