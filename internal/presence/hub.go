package presence

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog/log"

	"github.com/qadesk-admin/qadesk-admin/internal/uniuri"
)

// rosterMessage is what the hub broadcasts to every client whenever presence
// state changes.
type rosterMessage struct {
	Type  string    `json:"type"`
	Users []Session `json:"users"`
}

type client struct {
	session Session
	timer   *time.Timer
}

// Hub keeps one Session per connected WebSocket and broadcasts the roster on
// every change. Each connection carries a timer that flips the session to
// inactive after the idle timeout; any tracked event resets it.
type Hub struct {
	idleTimeout time.Duration

	mu      sync.Mutex
	clients map[*websocket.Conn]*client
}

// NewHub creates a new presence hub with the given idle timeout.
func NewHub(idleTimeout time.Duration) *Hub {
	return &Hub{
		idleTimeout: idleTimeout,
		clients:     make(map[*websocket.Conn]*client),
	}
}

// Register adds a connection for the given user. The session starts active
// with the idle timer armed.
func (h *Hub) Register(conn *websocket.Conn, userID uint64, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &client{
		session: Session{
			SocketID:     uniuri.New(),
			UserID:       userID,
			Username:     username,
			CurrentPath:  "/",
			LastActivity: time.Now(),
			Status:       StatusActive,
		},
	}

	c.timer = time.AfterFunc(h.idleTimeout, func() {
		h.markIdle(conn)
	})

	h.clients[conn] = c

	log.Debug().Str("username", username).Str("socket_id", c.session.SocketID).Msg("presence client connected")

	h.broadcastLocked()
}

// Unregister removes a connection and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[conn]
	if !ok {
		return
	}

	c.timer.Stop()
	delete(h.clients, conn)
	_ = conn.Close()

	log.Debug().Str("username", c.session.Username).Msg("presence client disconnected")

	h.broadcastLocked()
}

// Touch records a tracked client event (mousemove, keydown, click, scroll)
// for a connection. The idle timer is always reset; if the session was
// inactive it flips back to active and the roster is broadcast.
func (h *Hub) Touch(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[conn]
	if !ok {
		return
	}

	c.timer.Reset(h.idleTimeout)

	if c.session.Touch(time.Now()) {
		h.broadcastLocked()
	}
}

// Navigate records a path change for a connection. Navigation counts as a
// tracked event and updates the roster for everyone.
func (h *Hub) Navigate(conn *websocket.Conn, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[conn]
	if !ok {
		return
	}

	c.timer.Reset(h.idleTimeout)
	c.session.Touch(time.Now())
	c.session.CurrentPath = path

	h.broadcastLocked()
}

// Roster returns a snapshot of every connected session.
func (h *Hub) Roster() []Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.rosterLocked()
}

// markIdle is the timer callback flipping a connection to inactive.
func (h *Hub) markIdle(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[conn]
	if !ok {
		return
	}

	if c.session.MarkIdle() {
		h.broadcastLocked()
	}
}

func (h *Hub) rosterLocked() []Session {
	out := make([]Session, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c.session)
	}

	return out
}

// broadcastLocked sends the roster to every client. Callers must hold h.mu.
// Write failures drop the broken connection; presence is best effort.
func (h *Hub) broadcastLocked() {
	msg, err := json.Marshal(rosterMessage{Type: "presence", Users: h.rosterLocked()})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode presence roster")
		return
	}

	for conn, c := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.timer.Stop()
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}
