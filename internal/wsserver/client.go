// Package wsserver is the websocket transport: it upgrades HTTP
// connections, runs each client's read/write pumps, decodes inbound
// frames through internal/protocol, and dispatches them to a Coordinator.
package wsserver

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wordarena/internal/arena"
	"wordarena/internal/auth"
	"wordarena/internal/logging"
	"wordarena/internal/protocol"
	"wordarena/internal/registry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	closeGrace     = 10 * time.Second
)

var newline = []byte{'\n'}

// Dispatcher is the set of Coordinator operations a Client routes decoded
// client messages to. Defined here, rather than depending on
// internal/coordinator directly, so this package stays testable with a
// fake.
type Dispatcher interface {
	Authenticate(connID, token string, force bool) (*auth.Identity, error)
	JoinQueue(ctx context.Context, userID, displayName string) error
	LeaveQueue(ctx context.Context, userID string) error
	VoteStartGame(ctx context.Context, userID string) error
	SubmitGuess(userID, word string) error
	RejoinGame(userID, gameID string) (arena.SafeGameState, error)
	LeaveGame(userID string) error
	HandleDisconnect(userID string)
}

// Client is one live websocket connection. It satisfies registry.Sender.
type Client struct {
	conn     *websocket.Conn
	connID   string
	clientIP string
	send     chan []byte

	reg    *registry.Registry
	coord  Dispatcher
	logger *logging.Logger

	mu          sync.RWMutex
	userID      string
	displayName string
	closed      bool
}

// NewClient wraps an upgraded connection for the read/write pump loop.
func NewClient(conn *websocket.Conn, connID, clientIP string, reg *registry.Registry, coord Dispatcher, logger *logging.Logger) *Client {
	return &Client{
		conn:     conn,
		connID:   connID,
		clientIP: clientIP,
		send:     make(chan []byte, 64),
		reg:      reg,
		coord:    coord,
		logger:   logger,
	}
}

// Send implements registry.Sender: queues data for the write pump.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return websocket.ErrCloseSent
	}
	select {
	case c.send <- data:
		return nil
	default:
		// Slow consumer: drop the connection rather than block the
		// registry's broadcast/notify path.
		c.Close()
		return websocket.ErrCloseSent
	}
}

// Close implements registry.Sender.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(closeGrace))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
	return c.conn.Close()
}

func (c *Client) userIdentity() (string, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.displayName, c.userID != ""
}

func (c *Client) setIdentity(userID, displayName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.displayName = displayName
}

func (c *Client) sendVariant(variant string, payload interface{}) {
	data, err := protocol.EncodeServerMessage(variant, payload)
	if err != nil {
		c.logger.LogError(context.Background(), err, "encode message", "variant", variant)
		return
	}
	_ = c.Send(data)
}

func (c *Client) sendError(message string) {
	c.sendVariant("Error", protocol.Error{Message: message})
}

// Run starts the client's read and write pumps. It blocks until the
// connection closes.
func (c *Client) Run() {
	done := make(chan struct{})
	go func() {
		c.writePump()
		close(done)
	}()
	c.readPump()
	<-done
}

// readPump pumps inbound frames to the dispatcher. There is at most one
// reader per connection, enforced by only ever calling this from Run.
func (c *Client) readPump() {
	defer func() {
		if userID, _, ok := c.userIdentity(); ok {
			c.coord.HandleDisconnect(userID)
		}
		c.reg.Unregister(c.connID)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.LogError(context.Background(), err, "websocket read error", "conn_id", c.connID)
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(data []byte) {
	env, err := protocol.DecodeClientMessage(data)
	if err != nil {
		c.sendError(err.Error())
		return
	}

	switch {
	case env.Authenticate != nil:
		c.handleAuthenticate(env.Authenticate)
	case env.JoinQueue != nil:
		c.withAuthAndLimit(registry.KindJoinQueue, func(userID, displayName string) {
			if err := c.coord.JoinQueue(context.Background(), userID, displayName); err != nil {
				c.sendError(err.Error())
			}
		})
	case env.LeaveQueue != nil:
		c.withAuth(func(userID, _ string) {
			if err := c.coord.LeaveQueue(context.Background(), userID); err != nil {
				c.sendError(err.Error())
			}
		})
	case env.VoteStartGame != nil:
		c.withAuth(func(userID, _ string) {
			if err := c.coord.VoteStartGame(context.Background(), userID); err != nil {
				c.sendError(err.Error())
			}
		})
	case env.SubmitGuess != nil:
		c.withAuthAndLimit(registry.KindSubmitGuess, func(userID, _ string) {
			if err := c.coord.SubmitGuess(userID, env.SubmitGuess.Word); err != nil {
				c.sendError(err.Error())
			}
		})
	case env.RejoinGame != nil:
		c.withAuth(func(userID, _ string) {
			state, err := c.coord.RejoinGame(userID, env.RejoinGame.GameID)
			if err != nil {
				c.sendError(err.Error())
				return
			}
			c.sendVariant("GameStateUpdate", protocol.GameStateUpdate{State: state})
		})
	case env.LeaveGame != nil:
		c.withAuth(func(userID, _ string) {
			if err := c.coord.LeaveGame(userID); err != nil {
				c.sendError(err.Error())
			}
		})
	case env.Heartbeat != nil:
		c.withAuthAndLimit(registry.KindHeartbeat, func(string, string) {})
	}
}

func (c *Client) withAuth(fn func(userID, displayName string)) {
	userID, displayName, ok := c.userIdentity()
	if !ok {
		c.sendError("not authenticated")
		return
	}
	fn(userID, displayName)
}

func (c *Client) withAuthAndLimit(kind registry.MessageKind, fn func(userID, displayName string)) {
	userID, displayName, ok := c.userIdentity()
	if !ok {
		c.sendError("not authenticated")
		return
	}
	allowed, err := c.reg.Allow(c.connID, kind)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if !allowed {
		c.sendError("rate limit exceeded")
		return
	}
	fn(userID, displayName)
}

func (c *Client) handleAuthenticate(payload *protocol.Authenticate) {
	identity, err := c.coord.Authenticate(c.connID, payload.Token, payload.Force)
	if err != nil {
		c.sendVariant("AuthenticationFailed", protocol.AuthenticationFailed{Reason: err.Error()})
		return
	}
	c.setIdentity(identity.UserID, identity.Username)
	c.sendVariant("AuthenticationSuccess", protocol.AuthenticationSuccess{
		User: map[string]string{"user_id": identity.UserID, "display_name": identity.Username},
	})
}

// writePump pumps queued outbound frames and pings to the connection.
// There is at most one writer per connection, enforced by Run.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
