package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"traffic-worker-go/internal/logging"
	"traffic-worker-go/internal/models"
	"traffic-worker-go/internal/services/camera"
	"traffic-worker-go/internal/services/videos"
)

// CameraManager starts, stops and streams feeds
type CameraManager interface {
	FeedCounter
	StartCamera(req *models.CameraRequest) error
	StopCamera(cameraID string) error
	GetCamera(cameraID string) (*models.CameraResponse, error)
	ListCameras() []*models.CameraResponse
	EnsureVideoFeed(name string) (string, error)
	StreamMJPEG(w http.ResponseWriter, r *http.Request, cameraID string)
}

type CameraHandler struct {
	cameraManager CameraManager
}

func NewCameraHandler(cameraManager CameraManager) *CameraHandler {
	return &CameraHandler{
		cameraManager: cameraManager,
	}
}

func startErrorStatus(err error) int {
	switch {
	case errors.Is(err, camera.ErrCameraExists):
		return http.StatusConflict
	case errors.Is(err, camera.ErrMaxCameras):
		return http.StatusServiceUnavailable
	case errors.Is(err, videos.ErrVideoNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// StartCamera starts a feed
// @Summary Start a feed
// @Description Start processing a video file from VIDEO_DIR or a stream URL
// @Tags cameras
// @Accept json
// @Produce json
// @Param request body models.CameraRequest true "Feed configuration"
// @Success 201 {object} models.CameraResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /cameras [post]
func (h *CameraHandler) StartCamera(c *gin.Context) {
	var req models.CameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.Warn(c).Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.cameraManager.StartCamera(&req); err != nil {
		logging.Error(c).Err(err).Str("camera_id", req.CameraID).Msg("Failed to start camera")
		c.JSON(startErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	cam, err := h.cameraManager.GetCamera(req.CameraID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Camera started but failed to get details"})
		return
	}

	logging.Info(c).
		Str("camera_id", req.CameraID).
		Str("source", req.Source).
		Msg("Camera started successfully")

	c.JSON(http.StatusCreated, cam)
}

// StopCamera stops a feed
// @Summary Stop a feed
// @Tags cameras
// @Produce json
// @Param id path string true "Camera ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /cameras/{id} [delete]
func (h *CameraHandler) StopCamera(c *gin.Context) {
	cameraID := c.Param("id")

	if err := h.cameraManager.StopCamera(cameraID); err != nil {
		if errors.Is(err, camera.ErrCameraNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		logging.Error(c).Err(err).Str("camera_id", cameraID).Msg("Failed to stop camera")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	logging.Info(c).Str("camera_id", cameraID).Msg("Camera stopped successfully")
	c.JSON(http.StatusOK, SuccessResponse{Message: "Camera stopped successfully"})
}

// GetCamera gets feed details
// @Summary Get feed details
// @Tags cameras
// @Produce json
// @Param id path string true "Camera ID"
// @Success 200 {object} models.CameraResponse
// @Failure 404 {object} ErrorResponse
// @Router /cameras/{id} [get]
func (h *CameraHandler) GetCamera(c *gin.Context) {
	cam, err := h.cameraManager.GetCamera(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Camera not found"})
		return
	}
	c.JSON(http.StatusOK, cam)
}

// ListCameras lists all feeds
// @Summary List all feeds
// @Tags cameras
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /cameras [get]
func (h *CameraHandler) ListCameras(c *gin.Context) {
	cameras := h.cameraManager.ListCameras()
	c.JSON(http.StatusOK, gin.H{
		"cameras": cameras,
		"count":   len(cameras),
	})
}

// StreamCamera streams the annotated feed
// @Summary Annotated MJPEG stream of a feed
// @Tags cameras
// @Produce multipart/x-mixed-replace
// @Param id path string true "Camera ID"
// @Success 200
// @Failure 404 {object} ErrorResponse
// @Router /cameras/{id}/stream [get]
func (h *CameraHandler) StreamCamera(c *gin.Context) {
	cameraID := c.Param("id")
	if _, err := h.cameraManager.GetCamera(cameraID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Camera not found"})
		return
	}
	h.cameraManager.StreamMJPEG(c.Writer, c.Request, cameraID)
}
