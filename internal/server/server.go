package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/otadrift/otadrift/internal/api/handlers"
	"github.com/otadrift/otadrift/internal/api/middleware"
	"github.com/otadrift/otadrift/internal/cache"
	"github.com/otadrift/otadrift/internal/config"
	"github.com/otadrift/otadrift/internal/logging"
	"github.com/otadrift/otadrift/internal/repository"
	"github.com/otadrift/otadrift/internal/server/routes"
	"github.com/otadrift/otadrift/internal/service"
	"github.com/otadrift/otadrift/internal/storage"
	"github.com/otadrift/otadrift/internal/tasks"
)

const serviceName = "otadrift"

// Server represents the HTTP server
type Server struct {
	router       *gin.Engine
	httpServer   *http.Server
	cacheRefresh *tasks.CacheRefresh
	logger       *logging.Logger
}

// NewServer wires the store, cache, services and routes into a runnable
// server instance
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger := logging.GetGlobalLogger()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Disable Gin's default logger entirely because we're using our own
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard

	repo, err := repository.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing bundle store: %w", err)
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing file storage: %w", err)
	}

	bundleCache := cache.New(repo, cfg.CacheTTL, cfg.StoreTimeout)

	// Services
	updateService := service.NewUpdateService(bundleCache, store)
	bundleService := service.NewBundleService(repo, bundleCache)

	// Handlers and middleware
	h := &routes.Handlers{
		Update:  handlers.NewUpdateHandler(updateService, cfg.DefaultChannel),
		Bundle:  handlers.NewBundleHandler(bundleService),
		Health:  handlers.NewHealthHandler(repo),
		Version: handlers.NewVersionHandler(),
	}
	m := &routes.Middleware{
		Auth: middleware.NewAuthMiddleware(cfg.JWTSecret),
	}

	router := gin.New()
	routes.SetupGlobalMiddleware(router, serviceName)
	routes.Setup(router, h, m)

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		},
		cacheRefresh: tasks.NewCacheRefresh(bundleCache, cfg.CacheTTL),
		logger:       logger,
	}, nil
}

// Start starts the background tasks and the HTTP listener. Blocks until the
// listener stops.
func (s *Server) Start() error {
	s.cacheRefresh.Start()
	s.logger.Info("Started bundle cache refresh task")

	s.logger.Info("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops background tasks
func (s *Server) Shutdown(ctx context.Context) error {
	s.cacheRefresh.Stop()
	return s.httpServer.Shutdown(ctx)
}
