package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/api/handlers"
	"traffic-worker-go/internal/config"
)

// Deps are the services behind the HTTP API
type Deps struct {
	Cameras  handlers.CameraManager
	Videos   handlers.VideoLister
	Store    handlers.ViolationStore
	Stats    handlers.StatsProvider
	History  handlers.HistoryClearer
	LiveFeed http.HandlerFunc
	Metrics  http.Handler
}

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler    *handlers.HealthHandler
	cameraHandler    *handlers.CameraHandler
	videoHandler     *handlers.VideoHandler
	violationHandler *handlers.ViolationHandler
	systemHandler    *handlers.SystemHandler

	liveFeed http.HandlerFunc
	metrics  http.Handler
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:           cfg,
		router:           gin.New(),
		healthHandler:    handlers.NewHealthHandler(cfg),
		cameraHandler:    handlers.NewCameraHandler(deps.Cameras),
		videoHandler:     handlers.NewVideoHandler(deps.Videos, deps.Cameras),
		violationHandler: handlers.NewViolationHandler(deps.Store, deps.Stats, deps.History, cfg.ChallanDir),
		systemHandler:    handlers.NewSystemHandler(cfg.WorkerID, deps.Cameras),
		liveFeed:         deps.LiveFeed,
		metrics:          deps.Metrics,
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting traffic worker API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping traffic worker API")
	return s.server.Shutdown(ctx)
}
