package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yprite/Tesla-LockChime-sub001/internal/handlers/dto"
)

const ChatPrefix = "/chat"

// ChatOnly answers 404 for every path outside /chat.
func ChatOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, ChatPrefix) {
			c.AbortWithStatusJSON(http.StatusNotFound, dto.Fail("Not found"))
			return
		}
		c.Next()
	}
}

// RequireUpgrade answers 426 unless the request asks for a WebSocket
// upgrade.
func RequireUpgrade() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.EqualFold(strings.TrimSpace(c.GetHeader("Upgrade")), "websocket") {
			c.AbortWithStatusJSON(http.StatusUpgradeRequired, dto.Fail("Expected WebSocket upgrade"))
			return
		}
		c.Next()
	}
}
