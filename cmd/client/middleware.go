package main

import (
	"time"

	"houseofstone-client/internal/middleware"
	"houseofstone-client/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// configure all middleware for the router
func (a *App) setupMiddleware() {
	a.Router.Use(setupCORS())

	a.Router.Use(middleware.MetricsMiddleware())
	a.Router.Use(middleware.LoggingMiddleware(logger.GlobalLogger))
	a.Router.Use(middleware.RateLimitMiddleware(a.RateLimiter))
	a.Router.Use(middleware.SecureHeaders())
	a.Router.Use(middleware.ErrorHandler())
	a.Router.Use(gin.Recovery())
}

// The bridge listens on loopback for UI code served from local dev origins.
func setupCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Length", "X-Cache"}
	corsConfig.MaxAge = 12 * time.Hour

	return cors.New(corsConfig)
}
