// Package registry binds authenticated users to their websocket
// connections, enforces single-session-per-user, and rate-limits inbound
// message types per connection.
package registry

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"wordarena/internal/protocol"
)

var (
	ErrConnectionNotFound = errors.New("registry: connection not found")
	ErrTooManyConnections = errors.New("registry: too many connections from this address")
	ErrRateLimitExceeded  = errors.New("registry: rate limit exceeded")
	ErrAlreadyConnected   = errors.New("registry: user already has an active session")
)

// Sender is the minimal outbound interface a transport (internal/wsserver's
// Client) must satisfy to receive registry-routed messages.
type Sender interface {
	Send(data []byte) error
	Close() error
}

// MessageKind selects which per-message-type rate limiter applies.
type MessageKind string

const (
	KindSubmitGuess MessageKind = "submit_guess"
	KindJoinQueue   MessageKind = "join_queue"
	KindHeartbeat   MessageKind = "heartbeat"
)

// Limits configures the token-bucket rate (per minute) for each message
// kind, plus the maximum simultaneous connections per client IP.
type Limits struct {
	SubmitGuessPerMinute int
	JoinQueuePerMinute   int
	HeartbeatPerMinute   int
	MaxConnectionsPerIP  int
}

type connection struct {
	sender  Sender
	ip      string
	userID  string
	limiters map[MessageKind]*rate.Limiter
}

// Registry tracks live connections, their authenticated user (if any), and
// per-connection rate limiters.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*connection
	byUser   map[string]string // userID -> connID
	byIP     map[string]int
	limits   Limits
}

// New returns an empty Registry configured with limits.
func New(limits Limits) *Registry {
	return &Registry{
		conns:  make(map[string]*connection),
		byUser: make(map[string]string),
		byIP:   make(map[string]int),
		limits: limits,
	}
}

func newLimiters(l Limits) map[MessageKind]*rate.Limiter {
	perMinute := func(n int) *rate.Limiter {
		if n <= 0 {
			n = 1
		}
		return rate.NewLimiter(rate.Limit(float64(n)/60.0), n)
	}
	return map[MessageKind]*rate.Limiter{
		KindSubmitGuess: perMinute(l.SubmitGuessPerMinute),
		KindJoinQueue:   perMinute(l.JoinQueuePerMinute),
		KindHeartbeat:   perMinute(l.HeartbeatPerMinute),
	}
}

// ClientIP extracts the real client address from a request, preferring
// X-Forwarded-For / X-Real-IP over RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if parts := strings.Split(xff, ","); len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Register admits a new, not-yet-authenticated connection from ip. It
// fails with ErrTooManyConnections once ip is at its connection cap.
func (reg *Registry) Register(connID, ip string, sender Sender) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	maxConns := reg.limits.MaxConnectionsPerIP
	if maxConns > 0 && reg.byIP[ip] >= maxConns {
		return ErrTooManyConnections
	}

	reg.conns[connID] = &connection{
		sender:   sender,
		ip:       ip,
		limiters: newLimiters(reg.limits),
	}
	reg.byIP[ip]++
	return nil
}

// Authenticate binds userID to connID. If force is false and userID
// already has a live session, ErrAlreadyConnected is returned. If force is
// true, the previous session's connection is closed and evicted first.
func (reg *Registry) Authenticate(connID, userID string, force bool) error {
	reg.mu.Lock()
	var evict Sender
	if existing, ok := reg.byUser[userID]; ok && existing != connID {
		if !force {
			reg.mu.Unlock()
			return ErrAlreadyConnected
		}
		if c, ok := reg.conns[existing]; ok {
			evict = c.sender
			reg.removeLocked(existing)
		}
	}

	c, ok := reg.conns[connID]
	if !ok {
		reg.mu.Unlock()
		return ErrConnectionNotFound
	}
	c.userID = userID
	reg.byUser[userID] = connID
	reg.mu.Unlock()

	if evict != nil {
		if frame, err := protocol.EncodeServerMessage("SessionDisconnected", nil); err == nil {
			evict.Send(frame)
		}
		evict.Close()
	}
	return nil
}

// Unregister removes a connection and its user binding, if any.
func (reg *Registry) Unregister(connID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.removeLocked(connID)
}

func (reg *Registry) removeLocked(connID string) {
	c, ok := reg.conns[connID]
	if !ok {
		return
	}
	if c.userID != "" && reg.byUser[c.userID] == connID {
		delete(reg.byUser, c.userID)
	}
	if n := reg.byIP[c.ip]; n <= 1 {
		delete(reg.byIP, c.ip)
	} else {
		reg.byIP[c.ip] = n - 1
	}
	delete(reg.conns, connID)
}

// Allow reports whether connID may send another message of kind now,
// consuming a token if so.
func (reg *Registry) Allow(connID string, kind MessageKind) (bool, error) {
	reg.mu.RLock()
	c, ok := reg.conns[connID]
	reg.mu.RUnlock()
	if !ok {
		return false, ErrConnectionNotFound
	}
	limiter, ok := c.limiters[kind]
	if !ok {
		return true, nil
	}
	return limiter.Allow(), nil
}

// Send delivers data to one connection by ID.
func (reg *Registry) Send(connID string, data []byte) error {
	reg.mu.RLock()
	c, ok := reg.conns[connID]
	reg.mu.RUnlock()
	if !ok {
		return ErrConnectionNotFound
	}
	return c.sender.Send(data)
}

// SendToUser delivers data to a user's current connection, if any. It is a
// no-op (nil error) if the user has no live session.
func (reg *Registry) SendToUser(userID string, data []byte) error {
	reg.mu.RLock()
	connID, ok := reg.byUser[userID]
	reg.mu.RUnlock()
	if !ok {
		return nil
	}
	return reg.Send(connID, data)
}

// Broadcast delivers data to every live connection, best-effort: send
// failures are swallowed since the transport layer will tear down the
// failing connection on its own read/write pump.
func (reg *Registry) Broadcast(data []byte) {
	reg.mu.RLock()
	targets := make([]Sender, 0, len(reg.conns))
	for _, c := range reg.conns {
		targets = append(targets, c.sender)
	}
	reg.mu.RUnlock()

	for _, s := range targets {
		_ = s.Send(data)
	}
}

// ConnectionCount returns the number of currently registered connections.
func (reg *Registry) ConnectionCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.conns)
}

// UserIDFor returns the authenticated user bound to connID, if any.
func (reg *Registry) UserIDFor(connID string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	c, ok := reg.conns[connID]
	if !ok || c.userID == "" {
		return "", false
	}
	return c.userID, true
}
