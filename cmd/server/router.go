package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devTechs001/folio-collab/internal/config"
	"github.com/devTechs001/folio-collab/internal/handlers"
	"github.com/devTechs001/folio-collab/internal/middleware"
	"github.com/devTechs001/folio-collab/pkg/auth"
)

func APIEndpoints(
	r *gin.Engine,
	verifier auth.Verifier,
	cfg *config.Config,
	wsH *handlers.WebSocketHandler,
	presenceH *handlers.PresenceHandler,
) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Точка входа коллаборации
	r.GET("/ws", middleware.WSAuthMiddleware(verifier, cfg.AuthTimeout), wsH.HandleWebSocket)

	// API endpoints
	api := r.Group("/api/v1", middleware.AuthMiddleware(verifier, cfg.AuthTimeout))
	{
		api.GET("/presence/online", presenceH.GetOnlineUsers)
		api.GET("/rooms/:id/members", presenceH.GetRoomMembers)
	}
}
