package main

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yprite/Tesla-LockChime-sub001/internal/handlers"
	"github.com/yprite/Tesla-LockChime-sub001/internal/middleware"
)

func NewRouter(log zerolog.Logger, healthH *handlers.HealthHandler, wsH *handlers.WebSocketHandler) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	APIEndpoints(r, healthH, wsH)
	return r
}

func APIEndpoints(r *gin.Engine, healthH *handlers.HealthHandler, wsH *handlers.WebSocketHandler) {
	r.GET("/health", healthH.Health)
	r.GET("/", healthH.Index)

	// /chat, /chat/{room} and anything else sharing the prefix; every other
	// path ends up as a 404.
	r.NoRoute(
		middleware.ChatOnly(),
		middleware.RequireUpgrade(),
		wsH.HandleWebSocket,
	)
}
