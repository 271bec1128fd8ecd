package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	userID  string
	variant string
	payload interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *recordingNotifier) NotifyUser(userID, variant string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event{userID, variant, payload})
}

func (n *recordingNotifier) eventsFor(variant string) []event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []event
	for _, e := range n.events {
		if e.variant == variant {
			out = append(out, e)
		}
	}
	return out
}

type recordingFormer struct {
	mu      sync.Mutex
	formed  [][]Entry
	nextID  int
	failNext bool
}

func (f *recordingFormer) FormMatch(_ context.Context, players []Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return "", assert.AnError
	}
	f.formed = append(f.formed, players)
	f.nextID++
	return "game-" + string(rune('0'+f.nextID)), nil
}

func testConfig() Config {
	return Config{
		MinPlayers:           2,
		MaxPlayers:           4,
		VoteFraction:         0.6,
		FullCountdownSeconds: 30,
		IdleQueueTimeout:     time.Minute,
	}
}

func startQueue(t *testing.T, cfg Config) (*Queue, *recordingNotifier, *recordingFormer, context.CancelFunc) {
	t.Helper()
	notifier := &recordingNotifier{}
	former := &recordingFormer{}
	q := New(cfg, notifier, former)
	ctx, cancel := context.WithCancel(context.Background())
	go q.Run(ctx)
	return q, notifier, former, cancel
}

func TestJoin_EmitsQueueJoinedWithPosition(t *testing.T) {
	q, notifier, _, cancel := startQueue(t, testConfig())
	defer cancel()

	require.NoError(t, q.Join(context.Background(), "alice", "Alice"))
	require.NoError(t, q.Join(context.Background(), "bob", "Bob"))

	joined := notifier.eventsFor("QueueJoined")
	require.Len(t, joined, 2)
	assert.Equal(t, "alice", joined[0].userID)
	assert.Equal(t, "bob", joined[1].userID)
}

func TestJoin_Duplicate_ReturnsErrAlreadyQueued(t *testing.T) {
	q, _, _, cancel := startQueue(t, testConfig())
	defer cancel()

	require.NoError(t, q.Join(context.Background(), "alice", "Alice"))
	err := q.Join(context.Background(), "alice", "Alice")
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestLeave_Unqueued_ReturnsErrNotQueued(t *testing.T) {
	q, _, _, cancel := startQueue(t, testConfig())
	defer cancel()

	err := q.Leave(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotQueued)
}

func TestLeave_EmitsQueueLeft(t *testing.T) {
	q, notifier, _, cancel := startQueue(t, testConfig())
	defer cancel()

	require.NoError(t, q.Join(context.Background(), "alice", "Alice"))
	require.NoError(t, q.Leave(context.Background(), "alice"))

	left := notifier.eventsFor("QueueLeft")
	require.Len(t, left, 1)
	assert.Equal(t, "alice", left[0].userID)
}

// Scenario 4 from the literal walkthroughs: four players queue, then three
// vote within the window (ceil(4*0.6)=3) and a match forms immediately.
func TestEarlyStartVote_FormsMatchOnceThresholdReached(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 16 // keep the fourth join from filling the match outright
	q, notifier, former, cancel := startQueue(t, cfg)
	defer cancel()

	ctx := context.Background()
	for _, u := range []string{"p1", "p2", "p3", "p4"} {
		require.NoError(t, q.Join(ctx, u, u))
	}

	require.NoError(t, q.Vote(ctx, "p1"))
	require.NoError(t, q.Vote(ctx, "p2"))

	require.Eventually(t, func() bool {
		return len(notifier.eventsFor("MatchFound")) == 0
	}, 200*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, q.Vote(ctx, "p3"))

	require.Eventually(t, func() bool {
		return len(notifier.eventsFor("MatchFound")) == 4
	}, time.Second, 10*time.Millisecond)

	former.mu.Lock()
	defer former.mu.Unlock()
	require.Len(t, former.formed, 1)
	assert.Len(t, former.formed[0], 4)
}

func TestJoin_AtMaxPlayers_FormsMatchImmediately(t *testing.T) {
	q, notifier, _, cancel := startQueue(t, testConfig())
	defer cancel()

	ctx := context.Background()
	for _, u := range []string{"p1", "p2", "p3", "p4"} {
		require.NoError(t, q.Join(ctx, u, u))
	}

	require.Eventually(t, func() bool {
		return len(notifier.eventsFor("MatchFound")) == 4
	}, time.Second, 10*time.Millisecond)
}

func TestVote_BelowMinPlayers_NeverFormsMatch(t *testing.T) {
	q, notifier, _, cancel := startQueue(t, testConfig())
	defer cancel()

	ctx := context.Background()
	require.NoError(t, q.Join(ctx, "solo", "Solo"))
	err := q.Vote(ctx, "solo")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, notifier.eventsFor("MatchFound"))
}

func TestExpireIdle_RemovesLoneWaitingEntry(t *testing.T) {
	cfg := testConfig()
	cfg.IdleQueueTimeout = 0
	q, notifier, _, cancel := startQueue(t, cfg)
	defer cancel()

	ctx := context.Background()
	require.NoError(t, q.Join(ctx, "solo", "Solo"))
	require.NoError(t, q.ExpireIdle(ctx, time.Now().Add(time.Hour)))

	left := notifier.eventsFor("QueueLeft")
	require.Len(t, left, 1)
	assert.Equal(t, "solo", left[0].userID)
}

func TestExpireIdle_NoOpWhenMultipleWaiting(t *testing.T) {
	q, notifier, _, cancel := startQueue(t, testConfig())
	defer cancel()

	ctx := context.Background()
	require.NoError(t, q.Join(ctx, "a", "A"))
	require.NoError(t, q.Join(ctx, "b", "B"))
	require.NoError(t, q.ExpireIdle(ctx, time.Now().Add(time.Hour)))

	assert.Empty(t, notifier.eventsFor("QueueLeft"))
}
