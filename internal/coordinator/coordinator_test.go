package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordarena/internal/arena"
	"wordarena/internal/auth"
	"wordarena/internal/logging"
	"wordarena/internal/queue"
	"wordarena/internal/registry"
	"wordarena/internal/stats"
	"wordarena/internal/words"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (s *fakeSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, data)
	return nil
}

func (s *fakeSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSender) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// fakeProvider hands out a single fixed target for one configured length.
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

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	l, err := logging.NewLogger(logging.LogConfig{Level: "error", Environment: "test", Service: "wordarena-test"})
	require.NoError(t, err)
	return l
}

func testConfig() Config {
	return Config{
		Game: arena.Config{
			PointThreshold:            100,
			WordLengths:               []int{3},
			RoundCountdownSeconds:     1,
			GuessingDeadlineSeconds:   5,
			IndividualDeadlineSeconds: 2,
			PauseTimeoutSeconds:       1,
		},
		Queue: queue.Config{
			MinPlayers:           2,
			MaxPlayers:           2,
			VoteFraction:         1.0,
			FullCountdownSeconds: 30,
			IdleQueueTimeout:     time.Minute,
		},
		ReapInterval:          50 * time.Millisecond,
		RoomRetentionAfterEnd: 100 * time.Millisecond,
	}
}

func newTestCoordinator(t *testing.T) (*Coordinator, context.CancelFunc) {
	t.Helper()
	reg := registry.New(registry.Limits{SubmitGuessPerMinute: 1000, JoinQueuePerMinute: 1000, HeartbeatPerMinute: 1000, MaxConnectionsPerIP: 10})
	c := New(testConfig(), reg, auth.NewDevVerifier(), fakeProvider{length: 3, target: "CAT"}, stats.NewInMemory(), testLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	return c, cancel
}

func connectAndAuth(t *testing.T, c *Coordinator, connID, userID string) *fakeSender {
	t.Helper()
	sender := &fakeSender{}
	require.NoError(t, c.registry.Register(connID, "127.0.0.1", sender))
	identity, err := c.Authenticate(connID, userID, false)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	return sender
}

func TestJoinQueue_FormsMatchAndBindsUsers(t *testing.T) {
	c, cancel := newTestCoordinator(t)
	defer cancel()

	connectAndAuth(t, c, "conn1", "p1")
	connectAndAuth(t, c, "conn2", "p2")

	require.NoError(t, c.JoinQueue(context.Background(), "p1", "Alice"))
	require.NoError(t, c.JoinQueue(context.Background(), "p2", "Bob"))

	require.Eventually(t, func() bool {
		_, ok := c.GameIDFor("p1")
		return ok
	}, time.Second, 10*time.Millisecond)

	gameID1, ok := c.GameIDFor("p1")
	require.True(t, ok)
	gameID2, ok := c.GameIDFor("p2")
	require.True(t, ok)
	assert.Equal(t, gameID1, gameID2)

	state, err := c.GameState(gameID1)
	require.NoError(t, err)
	assert.Len(t, state.Players, 2)
}

func TestAuthenticate_UnknownVerifierError(t *testing.T) {
	c, cancel := newTestCoordinator(t)
	defer cancel()

	sender := &fakeSender{}
	require.NoError(t, c.registry.Register("conn1", "127.0.0.1", sender))
	_, err := c.Authenticate("conn1", "", false)
	assert.Error(t, err)
}

func TestAuthenticate_ForceEvictsPriorSession(t *testing.T) {
	c, cancel := newTestCoordinator(t)
	defer cancel()

	first := connectAndAuth(t, c, "conn1", "p1")

	sender2 := &fakeSender{}
	require.NoError(t, c.registry.Register("conn2", "127.0.0.1", sender2))
	_, err := c.Authenticate("conn2", "p1", false)
	assert.ErrorIs(t, err, registry.ErrAlreadyConnected)

	_, err = c.Authenticate("conn2", "p1", true)
	require.NoError(t, err)
	assert.True(t, first.closed)
}

func TestSubmitGuess_NoActiveGame_ReturnsError(t *testing.T) {
	c, cancel := newTestCoordinator(t)
	defer cancel()

	err := c.SubmitGuess("nobody", "CAT")
	assert.ErrorIs(t, err, ErrNoActiveGame)
}

func TestSubmitGuess_RoutesToActiveRoom(t *testing.T) {
	c, cancel := newTestCoordinator(t)
	defer cancel()

	connectAndAuth(t, c, "conn1", "p1")
	connectAndAuth(t, c, "conn2", "p2")
	require.NoError(t, c.JoinQueue(context.Background(), "p1", "Alice"))
	require.NoError(t, c.JoinQueue(context.Background(), "p2", "Bob"))

	require.Eventually(t, func() bool {
		_, ok := c.GameIDFor("p1")
		return ok
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return c.SubmitGuess("p1", "CAT") == nil
	}, time.Second, 10*time.Millisecond)
}

func TestRejoinGame_UnknownGame_ReturnsNotFound(t *testing.T) {
	c, cancel := newTestCoordinator(t)
	defer cancel()

	_, err := c.RejoinGame("p1", "no-such-game")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestRejoinGame_RebindsUserAfterDisconnect(t *testing.T) {
	c, cancel := newTestCoordinator(t)
	defer cancel()

	connectAndAuth(t, c, "conn1", "p1")
	connectAndAuth(t, c, "conn2", "p2")
	require.NoError(t, c.JoinQueue(context.Background(), "p1", "Alice"))
	require.NoError(t, c.JoinQueue(context.Background(), "p2", "Bob"))

	var gameID string
	require.Eventually(t, func() bool {
		gid, ok := c.GameIDFor("p1")
		gameID = gid
		return ok
	}, time.Second, 10*time.Millisecond)

	c.HandleDisconnect("p1")

	state, err := c.RejoinGame("p1", gameID)
	require.NoError(t, err)
	assert.Equal(t, gameID, state.ID)

	gid, ok := c.GameIDFor("p1")
	require.True(t, ok)
	assert.Equal(t, gameID, gid)
}

func TestReap_EvictsRoomAfterRetentionWindow(t *testing.T) {
	c, cancel := newTestCoordinator(t)
	defer cancel()

	connectAndAuth(t, c, "conn1", "p1")
	connectAndAuth(t, c, "conn2", "p2")
	require.NoError(t, c.JoinQueue(context.Background(), "p1", "Alice"))
	require.NoError(t, c.JoinQueue(context.Background(), "p2", "Bob"))

	var gameID string
	require.Eventually(t, func() bool {
		gid, ok := c.GameIDFor("p1")
		gameID = gid
		return ok
	}, time.Second, 10*time.Millisecond)

	// Force the round to close by having both players submit the winning
	// word; the solve alone stays below the point threshold set in testConfig.
	room, ok := c.roomByID(gameID)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		return room.State().CurrentPhase == arena.PhaseGuessing
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, c.SubmitGuess("p1", "CAT"))
	require.NoError(t, c.SubmitGuess("p2", "CAT"))

	// Room won't complete with PointThreshold 100 from a single solve, so
	// directly exercise the reaper's grace-period bookkeeping instead of
	// waiting on a full game to finish.
	c.onRoomEnd(gameID)

	_, stillThere := c.roomByID(gameID)
	assert.True(t, stillThere, "room should survive immediately after ending, before the retention window elapses")

	require.Eventually(t, func() bool {
		_, ok := c.roomByID(gameID)
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	_, ok = c.GameIDFor("p1")
	assert.False(t, ok, "userToGame binding should be cleared once the room is reaped")
}
