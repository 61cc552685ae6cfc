package server

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"fleetview/internal/client"
	"fleetview/internal/config"
	"fleetview/internal/handler"
	"fleetview/internal/icon"
	"fleetview/internal/ingest"
	"fleetview/internal/mapsync"
	"fleetview/internal/middleware"
	"fleetview/internal/playback"
	"fleetview/internal/project"
	"fleetview/internal/render"
	"fleetview/internal/service"
	"fleetview/internal/state"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server wires the console: state store, sync engine, feature stream hub and
// the REST surface.
type Server struct {
	router *gin.Engine
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	nats   *nats.Conn

	store    *state.Store
	platform *client.Client
	engine   *mapsync.Engine
	hub      *handler.StreamHub
	ingestor *ingest.Ingestor

	cancelEngine context.CancelFunc
}

// NewServer creates a new server instance.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) *Server {
	return &Server{
		config: cfg,
		db:     db,
		redis:  redisClient,
		nats:   natsConn,
	}
}

// Setup initializes the pipeline and routes.
func (s *Server) Setup() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelEngine = cancel

	s.store = state.NewStore(s.redis)
	s.platform = client.New(s.config.PlatformURL, s.config.PlatformToken)

	// The stream hub is the broadcaster behind the remote renderer, so the
	// hub exists first and learns its snapshot source afterwards.
	s.hub = handler.NewStreamHub()
	renderer := render.NewRemoteRenderer(s.hub)
	s.hub.SetSnapshotter(renderer)

	icons := icon.NewResolver(renderer, s.config.IconBaseURL)
	projector := project.NewProjector(icons)
	s.engine = mapsync.NewEngine(s.store, s.platform, renderer, icons, projector, playback.TickerScheduler{})
	s.hub.SetEngine(s.engine)

	s.ingestor = ingest.NewIngestor(s.nats, s.store)

	go s.hub.Run()
	if err := s.engine.Start(ctx); err != nil {
		return err
	}
	if err := s.ingestor.Start(ctx); err != nil {
		return err
	}

	// Initial state: shadowed positions first, then the platform fetches.
	s.store.WarmFromShadow(ctx)
	if err := s.engine.SyncDevices(ctx); err != nil {
		log.Printf("[Server] Initial device sync failed: %v", err)
	}
	s.engine.SyncGeofences(ctx)

	prefsService := service.NewPrefsService(s.db)

	consoleHandler := handler.NewConsoleHandler(s.store, s.platform, s.engine)
	playbackHandler := handler.NewPlaybackHandler(s.engine)
	reportHandler := handler.NewReportHandler(s.platform, s.store, prefsService)
	prefsHandler := handler.NewPrefsHandler(prefsService, s.engine)
	streamHandler := handler.NewStreamHandler(s.hub)

	s.router = gin.Default()

	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Swagger UI
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"clients": s.hub.ClientCount(),
			"devices": len(s.store.Devices()),
		})
	})

	// Feature stream
	s.router.GET("/ws/stream", streamHandler.HandleStream)
	s.router.GET("/ws/stats", streamHandler.GetStats)

	api := s.router.Group("/api/v1")
	if s.config.RateLimitEnabled && s.redis != nil {
		api.Use(middleware.RateLimit(s.redis, middleware.RateLimitConfig{
			Limit:  s.config.RateLimitBudget,
			Window: s.config.RateLimitWindow,
		}))
	}
	{
		// Devices and selection
		api.GET("/devices", consoleHandler.ListDevices)
		api.POST("/devices/:id/select", consoleHandler.SelectDevice)
		api.GET("/devices/:id/nearest", consoleHandler.NearestGeofences)

		// Geofences
		api.GET("/geofences", consoleHandler.ListGeofences)
		api.POST("/geofences/refresh", consoleHandler.RefreshGeofences)
		api.GET("/geofence-groups", consoleHandler.ListGroups)

		// Playback
		api.POST("/playback", playbackHandler.Start)
		api.GET("/playback", playbackHandler.Status)
		api.POST("/playback/control", playbackHandler.Control)
		api.DELETE("/playback", playbackHandler.Stop)

		// Reports
		api.GET("/reports/combined", reportHandler.Combined)
		api.GET("/reports/stops", reportHandler.Stops)
		api.GET("/reports/stops/export", reportHandler.ExportStops)
		api.GET("/reports/history/export", reportHandler.ExportHistory)

		// Display preferences
		api.GET("/preferences/:operator", prefsHandler.Get)
		api.PUT("/preferences/:operator", prefsHandler.Update)
	}

	return nil
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	log.Printf("[Server] HTTP server listening on %s", addr)
	return s.router.Run(addr)
}

// GetRouter returns the gin router for testing.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Shutdown stops the pipeline: ingest first so no new positions arrive, then
// the engine (which tears the layers down), then the hub.
func (s *Server) Shutdown() {
	if s.ingestor != nil {
		s.ingestor.Stop()
		log.Println("[Server] Ingest stopped")
	}
	if s.cancelEngine != nil {
		s.cancelEngine()
	}
	if s.engine != nil {
		s.engine.Stop()
	}
	if s.hub != nil {
		s.hub.Stop()
		log.Println("[Server] Stream hub stopped")
	}
}
