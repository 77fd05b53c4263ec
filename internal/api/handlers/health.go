package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"traffic-worker-go/internal/config"
)

type HealthHandler struct {
	cfg       *config.Config
	startTime time.Time
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg, startTime: time.Now()}
}

type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	WorkerID string `json:"worker_id" example:"worker-1"`
}

type WorkerInfoResponse struct {
	WorkerID     string       `json:"worker_id" example:"worker-1"`
	Status       string       `json:"status" example:"running"`
	Version      string       `json:"version" example:"1.0.0"`
	Environment  string       `json:"environment" example:"development"`
	StartTime    time.Time    `json:"start_time"`
	Capabilities []string     `json:"capabilities"`
	Config       WorkerConfig `json:"config"`
}

type WorkerConfig struct {
	MaxCameras        int     `json:"max_cameras"`
	DetectionInterval int     `json:"detection_interval"`
	FPS               float64 `json:"fps"`
	Lane1Limit        float64 `json:"lane1_limit"`
	Lane2Limit        float64 `json:"lane2_limit"`
	StopLineY         int     `json:"stop_line_y"`
}

// @Summary Health check
// @Description Check if the worker is healthy and responsive
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		WorkerID: h.cfg.WorkerID,
	})
}

// @Summary Worker information
// @Description Get basic worker information, capabilities and enforcement settings
// @Tags health
// @Produce json
// @Success 200 {object} WorkerInfoResponse
// @Router / [get]
func (h *HealthHandler) WorkerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, WorkerInfoResponse{
		WorkerID:    h.cfg.WorkerID,
		Status:      "running",
		Version:     h.cfg.Version,
		Environment: h.cfg.Environment,
		StartTime:   h.startTime,
		Capabilities: []string{
			"speed_enforcement",
			"helmet_enforcement",
			"red_light_enforcement",
			"challan_generation",
			"mjpeg_streaming",
		},
		Config: WorkerConfig{
			MaxCameras:        h.cfg.MaxCameras,
			DetectionInterval: h.cfg.DetectionFrameInterval,
			FPS:               h.cfg.FPS,
			Lane1Limit:        h.cfg.Lane1Limit,
			Lane2Limit:        h.cfg.Lane2Limit,
			StopLineY:         h.cfg.StopLineY,
		},
	})
}
