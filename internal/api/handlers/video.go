package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"traffic-worker-go/internal/logging"
	"traffic-worker-go/internal/services/videos"
)

// VideoLister lists the playable files of the video directory
type VideoLister interface {
	List() ([]string, error)
}

type VideoHandler struct {
	videos  VideoLister
	cameras CameraManager
}

func NewVideoHandler(lister VideoLister, cameras CameraManager) *VideoHandler {
	return &VideoHandler{videos: lister, cameras: cameras}
}

// ListLanes godoc
// @Summary List video files
// @Description Playable files in VIDEO_DIR; each can be opened with /video_feed/{file}
// @Tags videos
// @Produce json
// @Success 200 {array} string
// @Failure 500 {object} ErrorResponse
// @Router /api/lanes [get]
func (h *VideoHandler) ListLanes(c *gin.Context) {
	names, err := h.videos.List()
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to list videos")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, names)
}

// VideoFeed godoc
// @Summary Stream a video file
// @Description Starts a feed for the file if none runs and streams it as annotated MJPEG
// @Tags videos
// @Produce multipart/x-mixed-replace
// @Param file path string true "Video file name"
// @Success 200
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /video_feed/{file} [get]
func (h *VideoHandler) VideoFeed(c *gin.Context) {
	cameraID, err := h.cameras.EnsureVideoFeed(c.Param("file"))
	if err != nil {
		if errors.Is(err, videos.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Video not found"})
			return
		}
		logging.Error(c).Err(err).Str("file", c.Param("file")).Msg("Failed to start video feed")
		c.JSON(startErrorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	h.cameras.StreamMJPEG(c.Writer, c.Request, cameraID)
}
