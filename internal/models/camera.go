package models

import "time"

// CameraRequest for API
type CameraRequest struct {
	CameraID string `json:"camera_id" binding:"required"`
	// Source is a video file name under VIDEO_DIR or a stream URL
	Source string `json:"source" binding:"required"`
	// SignalOffset desynchronizes this feed's signal clock from the others
	SignalOffset string `json:"signal_offset,omitempty" example:"5s"`
}

// CameraResponse for API
type CameraResponse struct {
	CameraID      string    `json:"camera_id"`
	Source        string    `json:"source"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	LastFrameTime time.Time `json:"last_frame_time"`
	FrameCount    int64     `json:"frame_count"`
	ErrorCount    int64     `json:"error_count"`
	Violations    int64     `json:"violations"`
	Phase         string    `json:"phase"`
}

// RecentViolation is a live-feed entry shown on dashboards.
type RecentViolation struct {
	Time  string  `json:"time"`
	ID    string  `json:"id"`
	Speed float64 `json:"speed"`
	Lane  string  `json:"lane"`
}

// Stats is the dashboard summary.
type Stats struct {
	TotalVehicles    int64             `json:"total_vehicles"`
	Violations       int               `json:"violations"`
	CurrentSpeedAvg  float64           `json:"current_speed_avg"`
	RecentViolations []RecentViolation `json:"recent_violations"`
}
