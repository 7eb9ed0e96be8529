package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sellersync/internal/api/handlers"
	"sellersync/internal/api/middleware"
	"sellersync/internal/config"
	"sellersync/internal/database"
	"sellersync/internal/logger"
	"sellersync/internal/scheduler"
	"sellersync/internal/store"
	syncjob "sellersync/internal/sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database, sched *scheduler.Scheduler, orch *syncjob.Orchestrator, rec *store.Reconciler) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(cors.Default())

	// Initialize handlers
	sellerHandler := handlers.NewSellerHandler(db.DB, logger)
	stateHandler := handlers.NewStateHandler(db.DB, logger)
	syncHandler := handlers.NewSyncHandler(sched, orch, rec, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Sellers
		sellers := v1.Group("/sellers")
		{
			sellers.GET("", sellerHandler.List)
			sellers.GET("/:slug", sellerHandler.Get)
		}

		// States
		v1.GET("/states", stateHandler.List)

		// Sync triggers
		syncGroup := v1.Group("/sync")
		{
			syncGroup.POST("", syncHandler.EnqueueAll)
			syncGroup.POST("/:state", syncHandler.SyncState)
		}

		// Destructive, admin token required
		v1.POST("/purge", middleware.AdminAuth(cfg.AdminToken), syncHandler.Purge)
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Router exposes the Gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
