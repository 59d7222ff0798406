package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"houseofstone-client/internal/connectivity"
	"houseofstone-client/internal/handlers"
	"houseofstone-client/internal/middleware"
	"houseofstone-client/internal/notify"
	"houseofstone-client/internal/repositories"
	"houseofstone-client/internal/services"
	"houseofstone-client/internal/session"
	"houseofstone-client/pkg/api"
	"houseofstone-client/pkg/config"
	"houseofstone-client/pkg/logger"
	"houseofstone-client/pkg/metrics"
	"houseofstone-client/pkg/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// App wires the client core, the local stores and the bridge server.
type App struct {
	Config  *config.Config
	Store   storage.Store
	Client  *api.Client
	Queue   *notify.Queue
	Monitor *connectivity.Monitor
	Prober  *connectivity.Prober
	Saves   *services.SavedPropertiesService

	NotificationHandler *handlers.NotificationHandler
	ConnectivityHandler *handlers.ConnectivityHandler
	SavesHandler        *handlers.SavesHandler
	PropertyHandler     *handlers.PropertyHandler
	SessionHandler      *handlers.SessionHandler

	Router      *gin.Engine
	RateLimiter *middleware.RateLimiter
	Server      *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// Create and initialize a new App instance
func NewApp(cfg *config.Config) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{Config: cfg, ctx: ctx, cancel: cancel}

	// Initialize infrastructure
	app.initializeStorage()
	app.initializeMetrics()
	app.initializeRateLimiter()

	// Initialize client state
	app.initializeNotifications()
	app.initializeClient()
	app.initializeConnectivity()
	app.initializeServices()

	// Initialize web layer
	app.initializeHandlers()
	app.initializeRouter()

	return app
}

func (a *App) initializeStorage() {
	store, err := storage.Open(a.Config.Storage)
	if err != nil {
		logger.GlobalLogger.Errorf("Failed to open storage: driver=%s, error=%v", a.Config.Storage.Driver, err)
		os.Exit(1)
	}
	a.Store = store
	logger.GlobalLogger.Printf("Storage ready: driver=%s", a.Config.Storage.Driver)
}

// initialize Prometheus metrics
func (a *App) initializeMetrics() {
	metrics.Init()
}

// initialize the rate limiter
func (a *App) initializeRateLimiter() {
	a.RateLimiter = middleware.NewRateLimiter(rate.Limit(100/60.0), 10)
	go a.RateLimiter.Cleanup(a.ctx, time.Minute)
}

func (a *App) initializeNotifications() {
	a.Queue = notify.NewQueue(
		notify.WithMaxItems(a.Config.Notifications.MaxItems),
		notify.WithDefaultDuration(a.Config.Notifications.DefaultDuration),
		notify.WithLogger(logger.GlobalLogger),
	)
}

func (a *App) initializeClient() {
	a.Client = api.NewClient(a.Config.API, session.NewManager(a.Store), api.WithLogger(logger.GlobalLogger))

	a.Client.OnSessionExpired(func(error) {
		a.Queue.Warning("Your session has expired. Please log in again.", "Session Expired")
	})
}

func (a *App) initializeConnectivity() {
	a.Monitor = connectivity.NewMonitor(a.Queue,
		connectivity.WithDedupWindow(a.Config.Connectivity.DedupWindow),
		connectivity.WithLogger(logger.GlobalLogger),
	)
	a.Client.OnSlowRequest(func(sr api.SlowRequest) {
		a.Monitor.ReportSlowRequest(sr.Method, sr.Path, sr.Elapsed)
	})

	if a.Config.Connectivity.ProbeURL == "" {
		logger.GlobalLogger.Printf("Connectivity probe disabled")
		return
	}
	a.Prober = connectivity.NewProber(a.Monitor, a.Config.Connectivity, logger.GlobalLogger)
	go a.Prober.Run(a.ctx)
}

func (a *App) initializeServices() {
	a.Saves = services.NewSavedPropertiesService(a.ctx,
		repositories.NewSavesRepository(a.Store),
		services.WithSavedLogger(logger.GlobalLogger),
		services.WithPersistErrorHook(func(err error) {
			a.Queue.Error(err, "Not saved")
		}),
	)
}

func (a *App) initializeHandlers() {
	a.NotificationHandler = handlers.NewNotificationHandler(a.Queue)
	a.ConnectivityHandler = handlers.NewConnectivityHandler(a.Monitor)
	a.SavesHandler = handlers.NewSavesHandler(a.Saves, a.Client.Favorites())
	a.PropertyHandler = handlers.NewPropertyHandler(a.Client, a.Saves)
	a.SessionHandler = handlers.NewSessionHandler(a.Client, a.Saves)
}

// set up the Gin router with middleware and routes
func (a *App) initializeRouter() {
	a.Router = gin.New()
	a.setupMiddleware()
	a.setupRoutes()
}

// cleanup operations
func (a *App) cleanup() {
	a.cancel()
	a.Queue.Close()
	if err := a.Store.Close(); err != nil {
		logger.GlobalLogger.Errorf("Failed to close storage: %v", err)
	}
}
