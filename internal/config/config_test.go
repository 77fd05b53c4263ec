package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/traffic")
	t.Setenv("NATS_URL", "nats://example:4222")

	cfg := Load()

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, filepath.Join("/tmp/traffic", "snapshots"), cfg.SnapshotDir)
	assert.Equal(t, filepath.Join("/tmp/traffic", "challans"), cfg.ChallanDir)
	assert.Equal(t, filepath.Join("/tmp/traffic", "violations.db"), cfg.DBPath)
	assert.Equal(t, 0.01, cfg.MetersPerPixel)
	assert.Equal(t, 30.0, cfg.FPS)
	assert.Equal(t, 640.0, cfg.LaneDividerX)
	assert.Equal(t, 500, cfg.StopLineY)
	assert.Equal(t, 10*time.Second, cfg.SignalGreen)
	assert.Equal(t, 3*time.Second, cfg.SignalYellow)
	assert.Equal(t, 10*time.Second, cfg.SignalRed)
	assert.Equal(t, 3, cfg.DetectionFrameInterval)
	assert.Equal(t, 1000, cfg.StoreRetention)
	assert.Equal(t, "nats://example:4222", cfg.NatsURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LANE1_LIMIT", "40.5")
	t.Setenv("LANE2_LIMIT", "not-a-number")
	t.Setenv("SIGNAL_OFFSET", "7s")
	t.Setenv("NATS_ENABLED", "false")
	t.Setenv("RECORDER_WORKERS", "4")

	cfg := Load()

	assert.Equal(t, 40.5, cfg.Lane1Limit)
	assert.Equal(t, 5.0, cfg.Lane2Limit, "unparsable values fall back to the default")
	assert.Equal(t, 7*time.Second, cfg.SignalOffset)
	assert.False(t, cfg.NatsEnabled)
	assert.Equal(t, 4, cfg.RecorderWorkers)
}
