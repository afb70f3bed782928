package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yprite/Tesla-LockChime-sub001/internal/handlers/dto"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{OK: true, Service: dto.ServiceName})
}

// Index describes how to connect.
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, dto.UsageResponse{
		OK:          true,
		Usage:       "Open a WebSocket to /chat/{room}?user={name} and send {\"text\":\"...\"} frames",
		RoomExample: "/chat/demo?user=Alice",
	})
}
