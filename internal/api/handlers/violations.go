package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"traffic-worker-go/internal/logging"
	"traffic-worker-go/internal/models"
)

type ViolationStore interface {
	List(ctx context.Context) ([]models.Violation, error)
	Count(ctx context.Context) (int, error)
}

// StatsProvider builds the dashboard summary around a violation count
type StatsProvider interface {
	Stats(violations int) models.Stats
}

type HistoryClearer interface {
	Clear(ctx context.Context) error
}

type ViolationHandler struct {
	store      ViolationStore
	stats      StatsProvider
	history    HistoryClearer
	challanDir string
}

func NewViolationHandler(store ViolationStore, stats StatsProvider, history HistoryClearer, challanDir string) *ViolationHandler {
	return &ViolationHandler{
		store:      store,
		stats:      stats,
		history:    history,
		challanDir: challanDir,
	}
}

// ListViolations godoc
// @Summary List violations
// @Description All stored violation records, newest first
// @Tags violations
// @Produce json
// @Success 200 {array} models.Violation
// @Failure 500 {object} ErrorResponse
// @Router /api/violations [get]
func (h *ViolationHandler) ListViolations(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to list violations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetStats godoc
// @Summary Dashboard statistics
// @Description Vehicle count, stored violation count, smoothed average speed and recent violations
// @Tags violations
// @Produce json
// @Success 200 {object} models.Stats
// @Failure 500 {object} ErrorResponse
// @Router /api/stats [get]
func (h *ViolationHandler) GetStats(c *gin.Context) {
	count, err := h.store.Count(c.Request.Context())
	if err != nil {
		logging.Error(c).Err(err).Msg("Failed to count violations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.stats.Stats(count))
}

// ClearHistory godoc
// @Summary Clear history
// @Description Deletes every record, snapshot and challan, resets live statistics and invalidates in-flight detector state
// @Tags violations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/clear_history [post]
func (h *ViolationHandler) ClearHistory(c *gin.Context) {
	resp := gin.H{"status": "success", "message": "History cleared"}
	if err := h.history.Clear(c.Request.Context()); err != nil {
		// every step still ran; report what could not be removed
		resp["warnings"] = err.Error()
	}
	logging.Info(c).Msg("History cleared")
	c.JSON(http.StatusOK, resp)
}

// DownloadChallan godoc
// @Summary Download a challan
// @Description Serves a generated challan PDF as an attachment
// @Tags violations
// @Produce application/pdf
// @Param filename path string true "Challan file name"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /download/challan/{filename} [get]
func (h *ViolationHandler) DownloadChallan(c *gin.Context) {
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, ".") {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Challan not found"})
		return
	}

	path := filepath.Join(h.challanDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Challan not found"})
		return
	}
	c.FileAttachment(path, name)
}
