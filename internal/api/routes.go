package api

import (
	"github.com/gin-gonic/gin"

	"traffic-worker-go/internal/api/middleware"
)

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	cameras := s.router.Group("/cameras")
	{
		cameras.GET("", s.cameraHandler.ListCameras)
		cameras.POST("", s.cameraHandler.StartCamera)
		cameras.GET("/:id", s.cameraHandler.GetCamera)
		cameras.DELETE("/:id", s.cameraHandler.StopCamera)
		cameras.GET("/:id/stream", s.cameraHandler.StreamCamera)
	}

	api := s.router.Group("/api")
	{
		api.GET("/lanes", s.videoHandler.ListLanes)
		api.GET("/stats", s.violationHandler.GetStats)
		api.GET("/violations", s.violationHandler.ListViolations)
		api.POST("/clear_history", s.violationHandler.ClearHistory)
	}

	s.router.GET("/video_feed/:file", s.videoHandler.VideoFeed)
	s.router.GET("/download/challan/:filename", s.violationHandler.DownloadChallan)

	if s.liveFeed != nil {
		s.router.GET("/ws/violations", gin.WrapF(s.liveFeed))
	}
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}
}
