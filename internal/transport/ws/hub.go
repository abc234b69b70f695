package ws

import (
	"sort"
	"sync"
	"time"

	"catalog-server-go/internal/platform/logging"
)

// Hub tracks the active sessions and fans events out to them. A user may
// hold several sessions at once (multiple tabs); personal sends reach all of
// them.
type Hub struct {
	logger   *logging.Logger
	sessions sync.Map // map[string]*Session keyed by session ID
}

// NewHub builds a fresh session hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{logger: logger}
}

// Register adds a session to the hub.
func (h *Hub) Register(session *Session) {
	if session == nil {
		return
	}
	h.sessions.Store(session.ID(), session)
}

// Unregister removes and closes the session.
func (h *Hub) Unregister(id string) {
	if value, loaded := h.sessions.LoadAndDelete(id); loaded {
		if session, ok := value.(*Session); ok {
			_ = session.Close()
		}
	}
}

// Broadcast sends an event to every session except the excluded one. Dead
// sessions found along the way are pruned.
func (h *Hub) Broadcast(event Event, excludeID string) {
	h.sessions.Range(func(key, value any) bool {
		session, ok := value.(*Session)
		if !ok || session.ID() == excludeID {
			return true
		}
		if err := session.Send(event); err != nil {
			if h.logger != nil {
				h.logger.Debug("dropping session %s: %v", session.ID(), err)
			}
			h.Unregister(session.ID())
		}
		return true
	})
}

// SendTo delivers an event to every session of one user. Returns how many
// sessions received it.
func (h *Hub) SendTo(username string, event Event) int {
	delivered := 0
	h.sessions.Range(func(key, value any) bool {
		session, ok := value.(*Session)
		if !ok || session.Username() != username {
			return true
		}
		if err := session.Send(event); err != nil {
			h.Unregister(session.ID())
			return true
		}
		delivered++
		return true
	})
	return delivered
}

// Online returns the distinct usernames with at least one live session.
func (h *Hub) Online() []string {
	seen := make(map[string]bool)
	h.sessions.Range(func(key, value any) bool {
		if session, ok := value.(*Session); ok {
			seen[session.Username()] = true
		}
		return true
	})
	users := make([]string, 0, len(seen))
	for username := range seen {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

// Count returns the number of live sessions.
func (h *Hub) Count() int {
	count := 0
	h.sessions.Range(func(any, any) bool {
		count++
		return true
	})
	return count
}

// PruneStale drops sessions idle longer than timeout.
func (h *Hub) PruneStale(timeout time.Duration) int {
	pruned := 0
	h.sessions.Range(func(key, value any) bool {
		if session, ok := value.(*Session); ok && session.IsStale(timeout) {
			h.Unregister(session.ID())
			pruned++
		}
		return true
	})
	return pruned
}

// CloseAll terminates every session, used at shutdown.
func (h *Hub) CloseAll() {
	h.sessions.Range(func(key, value any) bool {
		if session, ok := value.(*Session); ok {
			_ = session.Close()
		}
		h.sessions.Delete(key)
		return true
	})
}
