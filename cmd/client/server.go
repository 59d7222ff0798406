package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"houseofstone-client/pkg/logger"
)

// The bridge binds to loopback only.
func (a *App) InitializeServer() {
	addr := fmt.Sprintf("127.0.0.1:%d", a.Config.Server.Port)
	a.Server = &http.Server{
		Addr:              addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// start the HTTP server with graceful shutdown
func (a *App) StartServer() {
	if !a.Config.Server.Enabled {
		logger.GlobalLogger.Printf("Bridge server disabled, running background monitors only")
		a.waitForSignal()
		return
	}

	go func() {
		logger.GlobalLogger.Printf("Starting bridge server on %s", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.GlobalLogger.Errorf("Failed to start server: %v", err)
			os.Exit(1)
		}
	}()

	a.shutdownServer()
}

func (a *App) waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

// shutdown of the server
func (a *App) shutdownServer() {
	a.waitForSignal()
	logger.GlobalLogger.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		logger.GlobalLogger.Errorf("Server forced to shutdown: %v", err)
		return
	}

	logger.GlobalLogger.Println("Server exited")
}
