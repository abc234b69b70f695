package ws

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrSessionClosed is returned when writing to a closed session.
var ErrSessionClosed = errors.New("websocket session closed")

// Event is the wire format for everything pushed over the socket.
type Event struct {
	Type    string    `json:"type"`
	From    string    `json:"from,omitempty"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Session wraps one client connection. Writes are serialized; gorilla
// connections do not allow concurrent writers.
type Session struct {
	id       string
	username string
	socket   *websocket.Conn

	mu         sync.Mutex
	closed     atomic.Bool
	lastActive atomic.Int64
}

// NewSession creates a tracked session for an authenticated user.
func NewSession(id, username string, socket *websocket.Conn) *Session {
	s := &Session{
		id:       id,
		username: username,
		socket:   socket,
	}
	s.touch()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Username returns the account the session belongs to.
func (s *Session) Username() string {
	return s.username
}

// Send pushes one event to the client.
func (s *Session) Send(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return ErrSessionClosed
	}
	if err := s.socket.WriteJSON(event); err != nil {
		return err
	}
	s.touch()
	return nil
}

// Read blocks for the next text message from the client.
func (s *Session) Read() (string, error) {
	_, payload, err := s.socket.ReadMessage()
	if err != nil {
		return "", err
	}
	s.touch()
	return string(payload), nil
}

// Close terminates the connection. Safe to call more than once.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.socket.Close()
}

// IsClosed reports whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// IsStale reports whether the client has been idle longer than timeout.
func (s *Session) IsStale(timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return time.Since(time.Unix(0, s.lastActive.Load())) > timeout
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}
