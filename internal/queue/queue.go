// Package queue implements the matchmaking queue: a serialized actor that
// holds waiting players, runs the countdown-to-start with early-start
// voting, and hands completed groups off to form a match.
package queue

import (
	"context"
	"errors"
	"math"
	"time"

	"wordarena/internal/protocol"
)

var (
	ErrAlreadyQueued = errors.New("queue: user already queued")
	ErrNotQueued     = errors.New("queue: user not queued")
)

// Entry is one waiting player, ordered by JoinedAt (FIFO).
type Entry struct {
	UserID       string
	DisplayName  string
	JoinedAt     time.Time
	ReadyToStart bool
}

// Notifier delivers queue-originated events to a single user. variant
// matches the server message tag (QueueJoined, QueueLeft,
// MatchmakingCountdown, MatchFound); payload is the message's data.
type Notifier interface {
	NotifyUser(userID, variant string, payload interface{})
}

// MatchFormer turns a FIFO group of players into a live game, returning
// its ID. Called from inside the queue's actor loop, so it must not block
// on the queue itself.
type MatchFormer interface {
	FormMatch(ctx context.Context, players []Entry) (gameID string, err error)
}

// Config mirrors internal/config's QueueConfig.
type Config struct {
	MinPlayers           int
	MaxPlayers           int
	VoteFraction         float64
	FullCountdownSeconds int
	IdleQueueTimeout     time.Duration
}

type commandKind int

const (
	cmdJoin commandKind = iota
	cmdLeave
	cmdVote
	cmdExpireIdle
)

type command struct {
	kind        commandKind
	userID      string
	displayName string
	now         time.Time
	resp        chan error
}

// Queue is the matchmaking actor. All mutation happens on the single
// goroutine running Run; public methods only enqueue commands and wait for
// a result, so callers never touch queue state directly.
type Queue struct {
	cfg      Config
	notifier Notifier
	former   MatchFormer
	cmds     chan command

	entries           []Entry
	countdownActive   bool
	countdownDeadline time.Time
}

// New returns a Queue ready to run. Call Run in its own goroutine before
// issuing any commands.
func New(cfg Config, notifier Notifier, former MatchFormer) *Queue {
	return &Queue{
		cfg:      cfg,
		notifier: notifier,
		former:   former,
		cmds:     make(chan command),
	}
}

// Run is the queue's actor loop; it exits when ctx is canceled.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-q.cmds:
			err := q.handle(ctx, cmd)
			if cmd.resp != nil {
				cmd.resp <- err
			}
		case <-ticker.C:
			q.tick(ctx, time.Now())
		}
	}
}

func (q *Queue) send(ctx context.Context, cmd command) error {
	cmd.resp = make(chan error, 1)
	select {
	case q.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join enqueues userID, or returns ErrAlreadyQueued.
func (q *Queue) Join(ctx context.Context, userID, displayName string) error {
	return q.send(ctx, command{kind: cmdJoin, userID: userID, displayName: displayName})
}

// Leave removes userID from the queue, or returns ErrNotQueued.
func (q *Queue) Leave(ctx context.Context, userID string) error {
	return q.send(ctx, command{kind: cmdLeave, userID: userID})
}

// Vote marks userID ready for an early start.
func (q *Queue) Vote(ctx context.Context, userID string) error {
	return q.send(ctx, command{kind: cmdVote, userID: userID})
}

// ExpireIdle drops a solo-waiting entry once it has exceeded
// IdleQueueTimeout; called periodically by the Coordinator's reaper.
func (q *Queue) ExpireIdle(ctx context.Context, now time.Time) error {
	return q.send(ctx, command{kind: cmdExpireIdle, now: now})
}

func (q *Queue) handle(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdJoin:
		return q.join(ctx, cmd.userID, cmd.displayName)
	case cmdLeave:
		return q.leave(cmd.userID)
	case cmdVote:
		return q.vote(ctx, cmd.userID)
	case cmdExpireIdle:
		q.expireIdle(cmd.now)
		return nil
	}
	return nil
}

func (q *Queue) indexOf(userID string) int {
	for i, e := range q.entries {
		if e.UserID == userID {
			return i
		}
	}
	return -1
}

func (q *Queue) join(ctx context.Context, userID, displayName string) error {
	if q.indexOf(userID) >= 0 {
		return ErrAlreadyQueued
	}
	q.entries = append(q.entries, Entry{UserID: userID, DisplayName: displayName, JoinedAt: time.Now()})
	q.notifier.NotifyUser(userID, "QueueJoined", protocol.QueueJoined{Position: len(q.entries)})

	if !q.countdownActive && len(q.entries) >= q.cfg.MinPlayers {
		q.startCountdown()
	}
	if len(q.entries) >= q.cfg.MaxPlayers {
		q.countdownDeadline = time.Now()
		q.formMatch(ctx)
	}
	return nil
}

func (q *Queue) leave(userID string) error {
	idx := q.indexOf(userID)
	if idx < 0 {
		return ErrNotQueued
	}
	q.entries = append(q.entries[:idx], q.entries[idx+1:]...)
	q.notifier.NotifyUser(userID, "QueueLeft", nil)

	if q.countdownActive && len(q.entries) < q.cfg.MinPlayers {
		q.countdownActive = false
	}
	return nil
}

func (q *Queue) vote(ctx context.Context, userID string) error {
	idx := q.indexOf(userID)
	if idx < 0 {
		return ErrNotQueued
	}
	q.entries[idx].ReadyToStart = true

	if q.countdownActive && q.votesReached() {
		q.formMatch(ctx)
	}
	return nil
}

func (q *Queue) votesReached() bool {
	total := len(q.entries)
	if total < q.cfg.MinPlayers {
		return false
	}
	needed := int(math.Ceil(float64(total) * q.cfg.VoteFraction))
	ready := 0
	for _, e := range q.entries {
		if e.ReadyToStart {
			ready++
		}
	}
	return ready >= needed
}

func (q *Queue) startCountdown() {
	q.countdownActive = true
	q.countdownDeadline = time.Now().Add(time.Duration(q.cfg.FullCountdownSeconds) * time.Second)
	q.broadcastCountdown()
}

func (q *Queue) broadcastCountdown() {
	remaining := int(time.Until(q.countdownDeadline).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	ready := 0
	for _, e := range q.entries {
		if e.ReadyToStart {
			ready++
		}
	}
	payload := protocol.MatchmakingCountdown{
		SecondsRemaining: remaining,
		PlayersReady:     ready,
		TotalPlayers:     len(q.entries),
	}
	for _, e := range q.entries {
		q.notifier.NotifyUser(e.UserID, "MatchmakingCountdown", payload)
	}
}

func (q *Queue) tick(ctx context.Context, now time.Time) {
	if !q.countdownActive {
		return
	}
	if now.Before(q.countdownDeadline) {
		q.broadcastCountdown()
		return
	}
	q.formMatch(ctx)
}

// formMatch takes up to MaxPlayers entries in FIFO order and hands them to
// the MatchFormer, then restarts a countdown if enough players remain.
func (q *Queue) formMatch(ctx context.Context) {
	q.countdownActive = false
	if len(q.entries) < q.cfg.MinPlayers {
		return
	}

	n := len(q.entries)
	if n > q.cfg.MaxPlayers {
		n = q.cfg.MaxPlayers
	}
	group := append([]Entry(nil), q.entries[:n]...)
	q.entries = q.entries[n:]

	gameID, err := q.former.FormMatch(ctx, group)
	if err != nil {
		// Matches failing to form put the group back at the front of the
		// queue rather than losing them.
		q.entries = append(group, q.entries...)
		return
	}

	players := make([]string, len(group))
	for i, e := range group {
		players[i] = e.UserID
	}
	payload := protocol.MatchFound{GameID: gameID, Players: players}
	for _, e := range group {
		q.notifier.NotifyUser(e.UserID, "MatchFound", payload)
	}

	if len(q.entries) >= q.cfg.MinPlayers {
		q.startCountdown()
	}
}

func (q *Queue) expireIdle(now time.Time) {
	if len(q.entries) != 1 {
		return
	}
	e := q.entries[0]
	if now.Sub(e.JoinedAt) < q.cfg.IdleQueueTimeout {
		return
	}
	q.entries = nil
	q.notifier.NotifyUser(e.UserID, "QueueLeft", nil)
}
