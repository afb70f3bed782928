package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yprite/Tesla-LockChime-sub001/internal/chat"
	"github.com/yprite/Tesla-LockChime-sub001/internal/handlers/dto"
	ws "github.com/yprite/Tesla-LockChime-sub001/internal/websocket"
)

// WebSocketHandler upgrades /chat requests and hands them to the room
// named in the path.
type WebSocketHandler struct {
	hub        *ws.Hub
	upgrader   websocket.Upgrader
	maxRoomLen int
	log        zerolog.Logger
}

// NewWebSocketHandler caps room names at maxRoomLen runes; 0 disables the
// cap.
func NewWebSocketHandler(hub *ws.Hub, maxRoomLen int, log zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		maxRoomLen: maxRoomLen,
		log:        log.With().Str("component", "ws_handler").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	roomName := chat.NormalizeRoom(RoomSegment(c.Request), h.maxRoomLen)
	user := chat.SanitizeName(c.Query("user"), chat.DefaultUser)

	room, err := h.hub.Acquire(c.Request.Context(), roomName)
	if err != nil {
		h.rejectAcquire(c, roomName, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		room.Abandon()
		h.log.Debug().Err(err).Str("room", roomName).Msg("upgrade failed")
		return
	}

	if _, err := room.Accept(conn, user); err != nil {
		h.log.Warn().Err(err).Str("room", roomName).Msg("accept failed")
	}
}

func (h *WebSocketHandler) rejectAcquire(c *gin.Context, roomName string, err error) {
	var owned *ws.RoomOwnedError
	switch {
	case errors.As(err, &owned):
		resp := dto.Fail("Room owned by another node")
		resp.Owner = owned.Owner
		c.JSON(http.StatusConflict, resp)
	case errors.Is(err, ws.ErrHubStopped):
		c.JSON(http.StatusServiceUnavailable, dto.Fail("Service shutting down"))
	default:
		h.log.Error().Err(err).Str("room", roomName).Msg("room directory unavailable")
		c.JSON(http.StatusServiceUnavailable, dto.Fail("Room directory unavailable"))
	}
}

// RoomSegment returns the raw, still escaped second path segment, or "" when
// the path has none.
func RoomSegment(r *http.Request) string {
	segments := strings.Split(r.URL.EscapedPath(), "/")
	if len(segments) < 3 {
		return ""
	}
	return segments[2]
}
