package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Application
	Version     string
	Environment string
	WorkerID    string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Storage
	DataDir     string
	SnapshotDir string
	ChallanDir  string
	DBPath      string
	// Newest records kept in the violation store
	StoreRetention int

	// Video feeds
	VideoDir   string
	MaxCameras int

	// Perception service (tracker, helmet classifier, plate reader)
	PerceptionGRPCURL string
	PerceptionTimeout time.Duration

	// NATS (for messaging and alerts)
	// Default: nats://localhost:4222 (works with Docker Compose setup)
	// Docker: Use nats://nats:4222 if running worker in Docker
	NatsEnabled        bool
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	ViolationsSubject  string
	ResetSubject       string

	// Speed estimation
	MetersPerPixel float64
	FPS            float64

	// Lanes (limits in km/h)
	LaneDividerX float64
	Lane1Limit   float64
	Lane2Limit   float64

	// Red light
	StopLineY    int
	SignalGreen  time.Duration
	SignalYellow time.Duration
	SignalRed    time.Duration
	SignalOffset time.Duration

	// Frame processing
	// Run perception every Nth frame; skipped frames reuse the last result
	DetectionFrameInterval int

	// Violation recording
	RecorderWorkers   int
	RecorderQueueSize int
	FineAmount        int
	Location          string

	// Health Check
	HealthCheckInterval time.Duration

	// Graceful Shutdown
	ShutdownTimeout time.Duration

	// Delay before restarting a crashed feed goroutine
	PanicRestartDelay time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "worker-1"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Storage
		DataDir:        dataDir,
		SnapshotDir:    getEnv("SNAPSHOT_DIR", filepath.Join(dataDir, "snapshots")),
		ChallanDir:     getEnv("CHALLAN_DIR", filepath.Join(dataDir, "challans")),
		DBPath:         getEnv("DB_PATH", filepath.Join(dataDir, "violations.db")),
		StoreRetention: getEnvInt("STORE_RETENTION", 1000),

		// Video feeds
		VideoDir:   getEnv("VIDEO_DIR", "./videos"),
		MaxCameras: getEnvInt("MAX_CAMERAS", 4),

		// Perception
		PerceptionGRPCURL: getEnv("PERCEPTION_GRPC_URL", "localhost:50052"),
		PerceptionTimeout: getEnvDuration("PERCEPTION_TIMEOUT", 2*time.Second),

		// NATS (configured for Docker Compose setup)
		NatsEnabled:        getEnvBool("NATS_ENABLED", true),
		NatsURL:            getNatsURL(),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		ViolationsSubject:  getEnv("VIOLATIONS_SUBJECT", "traffic.violations"),
		ResetSubject:       getEnv("RESET_SUBJECT", "traffic.reset"),

		// Speed estimation
		MetersPerPixel: getEnvFloat("METERS_PER_PIXEL", 0.01),
		FPS:            getEnvFloat("FPS", 30),

		// Lanes
		LaneDividerX: getEnvFloat("LANE_DIVIDER_X", 640),
		Lane1Limit:   getEnvFloat("LANE1_LIMIT", 4),
		Lane2Limit:   getEnvFloat("LANE2_LIMIT", 5),

		// Red light
		StopLineY:    getEnvInt("STOP_LINE_Y", 500),
		SignalGreen:  getEnvDuration("SIGNAL_GREEN", 10*time.Second),
		SignalYellow: getEnvDuration("SIGNAL_YELLOW", 3*time.Second),
		SignalRed:    getEnvDuration("SIGNAL_RED", 10*time.Second),
		SignalOffset: getEnvDuration("SIGNAL_OFFSET", 0),

		// Frame processing
		DetectionFrameInterval: getEnvInt("DETECTION_FRAME_INTERVAL", 3),

		// Violation recording
		RecorderWorkers:   getEnvInt("RECORDER_WORKERS", 2),
		RecorderQueueSize: getEnvInt("RECORDER_QUEUE_SIZE", 32),
		FineAmount:        getEnvInt("FINE_AMOUNT", 100),
		Location:          getEnv("LOCATION", "Main Highway, Camera 04"),

		// Health Check
		HealthCheckInterval: getEnvDuration("HEALTH_CHECK_INTERVAL", 30*time.Second),

		// Graceful Shutdown
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		PanicRestartDelay: getEnvDuration("PANIC_RESTART_DELAY", 2*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	// If running in Docker, use service name; otherwise use localhost
	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
