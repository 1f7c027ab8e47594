package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Role is the terminal role a session is promoted to. A session starts with
// RoleNone and advances to exactly one of RoleDevice or RoleClient; it never
// reverts.
type Role int

const (
	RoleNone Role = iota
	RoleDevice
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleDevice:
		return "bobbycar"
	case RoleClient:
		return "client"
	default:
		return "unauthenticated"
	}
}

// Outbound is one queued frame plus its WebSocket message type, so binary
// display buffers and textual packets share the same FIFO queue.
type Outbound struct {
	Kind int
	Data []byte
}

// Session wraps one accepted WebSocket connection and its per-connection
// state.
type Session struct {
	id         string
	conn       *websocket.Conn
	remoteIP   string
	remotePort string

	send chan Outbound

	mu            sync.Mutex
	closed        bool
	role          Role
	authenticated bool
	name          string
	lastPing      time.Time

	heartbeatStop chan struct{}
	heartbeatOnce sync.Once
}

// NewSession creates a session for an accepted connection. conn may be nil in
// tests; such a session only queues.
func NewSession(conn *websocket.Conn, remoteIP, remotePort string) *Session {
	return &Session{
		id:            uuid.NewString(),
		conn:          conn,
		remoteIP:      remoteIP,
		remotePort:    remotePort,
		send:          make(chan Outbound, 256),
		heartbeatStop: make(chan struct{}),
	}
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string {
	return s.id
}

// RemoteIP returns the originating address recorded at accept time.
func (s *Session) RemoteIP() string {
	return s.remoteIP
}

// RemotePort returns the originating port recorded at accept time.
func (s *Session) RemotePort() string {
	return s.remotePort
}

// Role returns the session's current role.
func (s *Session) Role() Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Authenticated reports whether the session passed its credential check.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Name returns the device name the session is bound to: its own name for a
// bobbycar, the paired bobbycar's name for a client, empty otherwise.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// PromoteDevice fixes the session's role to RoleDevice under the given name
// and initializes the liveness timestamp. It reports false if the session
// already holds a role.
func (s *Session) PromoteDevice(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != RoleNone {
		return false
	}
	s.role = RoleDevice
	s.authenticated = true
	s.name = name
	s.lastPing = time.Now()
	return true
}

// PromoteClient fixes the session's role to RoleClient bound to the given
// bobbycar name. It reports false if the session already holds a role.
func (s *Session) PromoteClient(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.role != RoleNone {
		return false
	}
	s.role = RoleClient
	s.authenticated = true
	s.name = name
	return true
}

// Touch refreshes the liveness timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPing = time.Now()
}

// SincePing returns the elapsed time since the last liveness refresh.
func (s *Session) SincePing() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastPing)
}

// Send queues a textual frame. If the outbound queue is full the session is
// closed rather than blocking the caller.
func (s *Session) Send(data []byte) {
	s.enqueue(Outbound{Kind: websocket.TextMessage, Data: data})
}

// SendBinary queues a binary frame.
func (s *Session) SendBinary(data []byte) {
	s.enqueue(Outbound{Kind: websocket.BinaryMessage, Data: data})
}

// SendJSON marshals v and queues it as a textual frame.
func (s *Session) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Send(data)
	return nil
}

func (s *Session) enqueue(m Outbound) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.send <- m:
	default:
		// Queue full, disconnect the slow session.
		s.closeLocked()
	}
}

// SendChan returns the outbound queue drained by the write pump.
func (s *Session) SendChan() <-chan Outbound {
	return s.send
}

// Close closes the session's outbound queue.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// IsClosed returns true if the session is closed.
func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CloseWithReason sends a close control frame with the given code and reason
// before tearing the connection down.
func (s *Session) CloseWithReason(code int, reason string) {
	if s.conn != nil {
		msg := websocket.FormatCloseMessage(code, reason)
		s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		s.conn.Close()
	}
	s.Close()
}

// StopHeartbeat cancels the session's heartbeat supervisor. Safe to call more
// than once; the supervisor is stopped exactly once.
func (s *Session) StopHeartbeat() {
	s.heartbeatOnce.Do(func() {
		close(s.heartbeatStop)
	})
}
