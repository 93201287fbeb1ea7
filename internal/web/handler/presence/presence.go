// Package presence upgrades authenticated clients to the presence WebSocket
// and feeds their activity events into the hub.
package presence

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/qadesk-admin/qadesk-admin/internal/config"
	"github.com/qadesk-admin/qadesk-admin/internal/db/models"
	"github.com/qadesk-admin/qadesk-admin/internal/presence"
	"github.com/qadesk-admin/qadesk-admin/internal/rbac"
	"github.com/qadesk-admin/qadesk-admin/internal/web/handler"
)

// Path is the presence WebSocket endpoint.
const Path = "/ws"

// clientMessage is what the browser sends over the socket.
type clientMessage struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// Service is the presence handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	hub *presence.Hub
}

// Handler is the presence handler.
var Handler = Service{}

// Init initializes the presence handler. The auth middleware runs before the
// upgrade, so only authenticated users reach the hub.
func (s *Service) Init(app *fiber.App, cfg *config.Config, hub *presence.Hub) error {
	if app == nil || cfg == nil || hub == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.cfg = cfg
	s.hub = hub

	app.Use(Path, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		return c.Next()
	})

	app.Get(Path, websocket.New(s.serve))

	return nil
}

// serve runs the read loop for one connection. The connection keeps the
// fiber.Locals set during the upgrade request.
func (s *Service) serve(conn *websocket.Conn) {
	user, ok := conn.Locals(rbac.CurrentUserKey).(models.User)
	if !ok {
		_ = conn.Close()
		return
	}

	s.hub.Register(conn, user.ID, user.Username)
	defer s.hub.Unregister(conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debug().Err(err).Msg("dropping malformed presence message")
			continue
		}

		switch msg.Type {
		case "activity":
			s.hub.Touch(conn)
		case "navigate":
			s.hub.Navigate(conn, msg.Path)
		default:
			log.Debug().Str("type", msg.Type).Msg("dropping unknown presence message")
		}
	}
}
