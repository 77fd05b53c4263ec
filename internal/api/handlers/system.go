package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// FeedCounter reports running feeds
type FeedCounter interface {
	GetStats() (active, total int)
}

// SystemHandler handles system-related endpoints
type SystemHandler struct {
	WorkerID  string
	feeds     FeedCounter
	startTime time.Time
}

func NewSystemHandler(workerID string, feeds FeedCounter) *SystemHandler {
	return &SystemHandler{
		WorkerID:  workerID,
		feeds:     feeds,
		startTime: time.Now(),
	}
}

// @Summary Get system stats
// @Description Get runtime statistics and feed counts
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /system/stats [get]
func (h *SystemHandler) GetStats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	active, total := h.feeds.GetStats()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"worker_id":      h.WorkerID,
			"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
			"memory_mb":      m.Alloc / 1024 / 1024,
			"cpu_cores":      runtime.NumCPU(),
			"goroutines":     runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
			"active_feeds":   active,
			"total_feeds":    total,
		},
		"timestamp": time.Now().Unix(),
	})
}
