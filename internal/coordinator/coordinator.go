// Package coordinator wires the matchmaking queue and live GameRooms into a
// single dispatch point: inbound client messages are routed by type to the
// queue, to a player's room, or to the connection registry, and a
// background reaper evicts idle queue entries and finished rooms.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"wordarena/internal/arena"
	"wordarena/internal/auth"
	"wordarena/internal/logging"
	"wordarena/internal/protocol"
	"wordarena/internal/queue"
	"wordarena/internal/registry"
	"wordarena/internal/stats"
	"wordarena/internal/words"
)

var (
	ErrNotAuthenticated = errors.New("coordinator: connection is not authenticated")
	ErrNoActiveGame     = errors.New("coordinator: user is not in a game")
	ErrGameNotFound     = errors.New("coordinator: game not found")
)

// Config holds the game and queue settings plus the reaper's interval and
// how long an ended room is kept before it is removed.
type Config struct {
	Game                  arena.Config
	Queue                 queue.Config
	ReapInterval          time.Duration
	RoomRetentionAfterEnd time.Duration
}

type roomEntry struct {
	room    *arena.Room
	cancel  context.CancelFunc
	endedAt time.Time // zero while still running
}

// Coordinator is the process-wide singleton tying matchmaking, live rooms,
// the connection registry, and persistence together.
type Coordinator struct {
	cfg      Config
	registry *registry.Registry
	verifier auth.Verifier
	provider words.Provider
	stats    stats.Repository
	logger   *logging.Logger

	queue *queue.Queue

	mu          sync.RWMutex
	rooms       map[string]*roomEntry
	userToGame  map[string]string
	displayName map[string]string

	ctx context.Context
}

// New constructs a Coordinator and its embedded matchmaking Queue, but does
// not start either actor; call Run to start the queue and reaper.
func New(cfg Config, reg *registry.Registry, verifier auth.Verifier, provider words.Provider, statsRepo stats.Repository, logger *logging.Logger) *Coordinator {
	c := &Coordinator{
		cfg:         cfg,
		registry:    reg,
		verifier:    verifier,
		provider:    provider,
		stats:       statsRepo,
		logger:      logger,
		rooms:       make(map[string]*roomEntry),
		userToGame:  make(map[string]string),
		displayName: make(map[string]string),
	}
	c.queue = queue.New(cfg.Queue, notifyAdapter{c}, c)
	return c
}

// Run starts the matchmaking queue and the background reaper; it blocks
// until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context) {
	c.ctx = ctx
	go c.queue.Run(ctx)

	interval := c.cfg.ReapInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.reap()
		}
	}
}

func (c *Coordinator) reap() {
	_ = c.queue.ExpireIdle(c.ctx, time.Now())

	retention := c.cfg.RoomRetentionAfterEnd
	if retention <= 0 {
		retention = 2 * time.Minute
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for gameID, entry := range c.rooms {
		if entry.endedAt.IsZero() {
			continue
		}
		if now.Sub(entry.endedAt) < retention {
			continue
		}
		entry.cancel()
		delete(c.rooms, gameID)
		for userID, gid := range c.userToGame {
			if gid == gameID {
				delete(c.userToGame, userID)
			}
		}
	}
	activeRooms := int64(len(c.rooms))

	logging.RecordPerformanceMetrics(c.ctx, logging.PerformanceMetrics{
		ActiveConnections: int64(c.registry.ConnectionCount()),
		ActiveRooms:       activeRooms,
	})
}

// notifyAdapter lets the Coordinator satisfy both queue.Notifier and
// arena.Notifier by encoding through internal/protocol and delivering via
// the connection registry.
type notifyAdapter struct{ c *Coordinator }

func (n notifyAdapter) NotifyUser(userID, variant string, payload interface{}) {
	data, err := protocol.EncodeServerMessage(variant, payload)
	if err != nil {
		n.c.logger.LogError(context.Background(), err, "encode outbound message", "variant", variant, "user_id", userID)
		return
	}
	_ = n.c.registry.SendToUser(userID, data)
}

// FormMatch implements queue.MatchFormer: it spins up a new GameRoom for
// the given players and starts its actor loop.
func (c *Coordinator) FormMatch(ctx context.Context, players []queue.Entry) (string, error) {
	ids := make([]string, len(players))
	names := make(map[string]string, len(players))
	for i, p := range players {
		ids[i] = p.UserID
		names[p.UserID] = p.DisplayName
	}

	gameID := uuid.NewString()
	room, err := arena.New(gameID, ids, names, c.cfg.Game, c.provider, notifyAdapter{c}, c.stats, c.onRoomEnd)
	if err != nil {
		return "", fmt.Errorf("coordinator: forming match: %w", err)
	}
	room.SetLogger(c.logger)

	roomCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.rooms[gameID] = &roomEntry{room: room, cancel: cancel}
	for _, uid := range ids {
		c.userToGame[uid] = gameID
		c.displayName[uid] = names[uid]
	}
	c.mu.Unlock()

	go room.Run(roomCtx)
	return gameID, nil
}

func (c *Coordinator) onRoomEnd(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.rooms[gameID]; ok {
		entry.endedAt = time.Now()
	}
}

func (c *Coordinator) roomFor(userID string) (*arena.Room, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gameID, ok := c.userToGame[userID]
	if !ok {
		return nil, "", false
	}
	entry, ok := c.rooms[gameID]
	if !ok {
		return nil, "", false
	}
	return entry.room, gameID, true
}

func (c *Coordinator) roomByID(gameID string) (*arena.Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.rooms[gameID]
	if !ok {
		return nil, false
	}
	return entry.room, true
}

// ---- inbound message dispatch ----

// Authenticate verifies token and binds connID to the resulting user,
// evicting any prior session for that user if force is set.
func (c *Coordinator) Authenticate(connID, token string, force bool) (*auth.Identity, error) {
	identity, err := c.verifier.Verify(context.Background(), token)
	if err != nil {
		return nil, err
	}
	if err := c.registry.Authenticate(connID, identity.UserID, force); err != nil {
		return nil, err
	}
	return identity, nil
}

// JoinQueue enqueues userID for matchmaking.
func (c *Coordinator) JoinQueue(ctx context.Context, userID, displayName string) error {
	c.mu.Lock()
	c.displayName[userID] = displayName
	c.mu.Unlock()
	return c.queue.Join(ctx, userID, displayName)
}

// LeaveQueue removes userID from matchmaking.
func (c *Coordinator) LeaveQueue(ctx context.Context, userID string) error {
	return c.queue.Leave(ctx, userID)
}

// VoteStartGame casts userID's early-start vote.
func (c *Coordinator) VoteStartGame(ctx context.Context, userID string) error {
	return c.queue.Vote(ctx, userID)
}

// SubmitGuess routes a guess to userID's active room.
func (c *Coordinator) SubmitGuess(userID, word string) error {
	room, _, ok := c.roomFor(userID)
	if !ok {
		return ErrNoActiveGame
	}
	return room.SubmitGuess(userID, word)
}

// LeaveGame forfeits userID's active room.
func (c *Coordinator) LeaveGame(userID string) error {
	room, _, ok := c.roomFor(userID)
	if !ok {
		return ErrNoActiveGame
	}
	return room.LeaveGame(userID)
}

// RejoinGame rebinds userID to gameID after a reconnect, provided they were
// already a player in it.
func (c *Coordinator) RejoinGame(userID, gameID string) (arena.SafeGameState, error) {
	room, ok := c.roomByID(gameID)
	if !ok {
		return arena.SafeGameState{}, ErrGameNotFound
	}
	if err := room.PlayerReconnected(userID); err != nil {
		return arena.SafeGameState{}, err
	}
	c.mu.Lock()
	c.userToGame[userID] = gameID
	c.mu.Unlock()
	return room.State(), nil
}

// HandleDisconnect marks userID offline in their active room, if any; it is
// a no-op for a user not currently in a game.
func (c *Coordinator) HandleDisconnect(userID string) {
	room, _, ok := c.roomFor(userID)
	if !ok {
		return
	}
	_ = room.PlayerDisconnected(userID)
}

// GameIDFor returns the game a user currently belongs to, if any.
func (c *Coordinator) GameIDFor(userID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	gameID, ok := c.userToGame[userID]
	return gameID, ok
}

// GameState returns the redacted state of gameID, for the REST game-state
// endpoint and for RejoinGame responses.
func (c *Coordinator) GameState(gameID string) (arena.SafeGameState, error) {
	room, ok := c.roomByID(gameID)
	if !ok {
		return arena.SafeGameState{}, ErrGameNotFound
	}
	return room.State(), nil
}
