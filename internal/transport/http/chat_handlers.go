package http

import (
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Lesoorub/SecureChat/internal/config"
	"github.com/Lesoorub/SecureChat/internal/handshake"
	"github.com/Lesoorub/SecureChat/internal/relay"
	"github.com/Lesoorub/SecureChat/internal/transport/ws"
)

// ChatHandlers provides the room creation and join endpoints.
type ChatHandlers struct {
	registry        *relay.Registry
	maxMessageBytes int64
	log             *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(registry *relay.Registry, cfg config.Config, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		registry:        registry,
		maxMessageBytes: cfg.MaxMessageBytes,
		log:             logger,
	}
}

// CreateRoomRequest represents the create room request body. The salt
// and verifier are produced client-side; the password never appears.
type CreateRoomRequest struct {
	Room     string `json:"room" binding:"required,min=1,max=64"`
	Salt     string `json:"salt" binding:"required"`
	Verifier string `json:"verifier" binding:"required"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateRoom handles room creation.
// POST /chat/create
func (h *ChatHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if !h.registry.CreateRoom(req.Room, req.Salt, req.Verifier) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "room with this name already exists"})
		return
	}
	c.Status(http.StatusCreated)
}

// Join upgrades the connection to a websocket and hands it to the
// registry. The call returns when the membership ends; the handshake
// runs inside the room before any relay traffic is accepted.
// GET /chat/join?room=<name>
func (h *ChatHandlers) Join(c *gin.Context) {
	roomName := c.Query("room")
	if roomName == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing room parameter"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	err = h.registry.JoinRoom(c.Request.Context(), roomName, ws.Wrap(conn, h.maxMessageBytes))
	switch {
	case err == nil:
		conn.Close(websocket.StatusNormalClosure, "closing")
	case errors.Is(err, relay.ErrRoomNotFound):
		// Dropped without explanation; the registry already closed it.
		h.log.Debug().Str("room", roomName).Msg("join to unknown room dropped")
	default:
		var he *handshake.Error
		if errors.As(err, &he) {
			// One generic reason for every handshake outcome.
			conn.Close(websocket.StatusPolicyViolation, "authentication or connection failed")
			return
		}
		h.log.Warn().Err(err).Str("room", roomName).Msg("join ended with error")
		conn.Close(websocket.StatusInternalError, "internal error")
	}
}
