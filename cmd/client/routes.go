package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"houseofstone-client/internal/middleware"
	"houseofstone-client/pkg/logger"
	"houseofstone-client/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all routes
func (a *App) setupRoutes() {
	a.Router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	a.setupHealthCheck()
	a.setupAPIRoutes()
}

// The health check reads a key that never exists; anything but ErrNotFound
// means the store is unreachable.
func (a *App) setupHealthCheck() {
	a.Router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var probe struct{}
		if err := a.Store.Get(ctx, "health-check", &probe); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.GlobalLogger.Printf("Storage health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Storage unavailable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok", "online": a.Monitor.Online()})
	})
}

func (a *App) setupAPIRoutes() {
	api := a.Router.Group("/api")
	api.Use(middleware.BridgeAuthMiddleware(a.Config.Server.Token))
	{
		api.POST("/session/login", a.SessionHandler.Login)
		api.POST("/session/logout", a.SessionHandler.Logout)
		api.GET("/session", a.SessionHandler.Status)

		api.GET("/properties", a.PropertyHandler.GetProperties)
		api.GET("/properties/:id", a.PropertyHandler.GetPropertyByID)

		api.GET("/saves", a.SavesHandler.ListSaved)
		api.DELETE("/saves", a.SavesHandler.Clear)
		api.POST("/saves/toggle", a.SavesHandler.Toggle)
		api.POST("/saves/merge", a.SavesHandler.Merge)
		api.GET("/saves/:id", a.SavesHandler.IsSaved)
		api.DELETE("/saves/:id", a.SavesHandler.Remove)

		api.GET("/recently-viewed", a.SavesHandler.ListRecentlyViewed)
		api.POST("/recently-viewed", a.SavesHandler.RecordView)
		api.DELETE("/recently-viewed", a.SavesHandler.ClearRecentlyViewed)

		api.GET("/notifications", a.NotificationHandler.List)
		api.POST("/notifications", a.NotificationHandler.Push)
		api.DELETE("/notifications/:id", a.NotificationHandler.Dismiss)

		api.GET("/connectivity", a.ConnectivityHandler.Status)
		api.POST("/connectivity/online", a.ConnectivityHandler.Online)
		api.POST("/connectivity/offline", a.ConnectivityHandler.Offline)
		api.POST("/connectivity/quality", a.ConnectivityHandler.Quality)
	}
}
