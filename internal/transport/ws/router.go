package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"catalog-server-go/internal/domain/auth"
	"catalog-server-go/internal/platform/logging"
)

// Event types pushed by the server.
const (
	EventChat   = "chat"
	EventJoined = "joined"
	EventLeft   = "left"
	EventOnline = "online"
	EventTask   = "task"
)

// Service upgrades authenticated clients and runs the chat loop: every text
// frame a client sends is broadcast to the other connected clients.
type Service struct {
	hub        *Hub
	authorizer *auth.Authorizer
	logger     *logging.Logger
	upgrader   websocket.Upgrader
}

// NewService wires the websocket endpoint.
func NewService(hub *Hub, authorizer *auth.Authorizer, logger *logging.Logger) (*Service, error) {
	if hub == nil || authorizer == nil {
		return nil, errors.New("websocket service requires hub and authorizer")
	}
	return &Service{
		hub:        hub,
		authorizer: authorizer,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			HandshakeTimeout: 10 * time.Second,
			// Browser websocket clients cannot set headers; origin checks
			// are handled by the CORS policy on the HTTP side.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}, nil
}

// Start registers the websocket route on the engine.
func (s *Service) Start(ctx context.Context, engine *gin.Engine) error {
	engine.GET("/ws", s.handleConnect)
	if s.logger != nil {
		s.logger.Info("[WS] chat route registered")
	}
	return nil
}

// handleConnect authenticates, upgrades and runs the session read loop.
// Browser clients pass the token as a query parameter since they cannot set
// an Authorization header on the upgrade request.
func (s *Service) handleConnect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = bearerToken(c)
	}

	user, err := s.authorizer.Authorize(c.Request.Context(), token)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrForbidden) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}

	socket, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("websocket upgrade failed for %s: %v", user.Username, err)
		}
		return
	}

	session := NewSession(uuid.NewString(), user.Username, socket)
	s.hub.Register(session)
	if s.logger != nil {
		s.logger.Info("[WS] %s connected (%s)", user.Username, session.ID())
	}

	s.hub.Broadcast(Event{
		Type:   EventJoined,
		From:   user.Username,
		SentAt: time.Now(),
	}, session.ID())
	_ = session.Send(Event{
		Type:    EventOnline,
		Payload: s.hub.Online(),
		SentAt:  time.Now(),
	})

	s.readLoop(session)
}

func (s *Service) readLoop(session *Session) {
	defer func() {
		s.hub.Unregister(session.ID())
		s.hub.Broadcast(Event{
			Type:   EventLeft,
			From:   session.Username(),
			SentAt: time.Now(),
		}, "")
		if s.logger != nil {
			s.logger.Info("[WS] %s disconnected (%s)", session.Username(), session.ID())
		}
	}()

	for {
		message, err := session.Read()
		if err != nil {
			return
		}
		s.hub.Broadcast(Event{
			Type:    EventChat,
			From:    session.Username(),
			Payload: message,
			SentAt:  time.Now(),
		}, session.ID())
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
