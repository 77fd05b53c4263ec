package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/config"
)

// Setup configures the global logger: console output, level from config
// and, when enabled, a tee into the embedded Logdy UI.
func Setup(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if cfg.Environment == "production" {
		out = os.Stderr
	}

	if cfg.LogdyEnabled {
		if w, err := openLogdy(cfg); err != nil {
			log.Warn().Err(err).Msg("Logdy unavailable, logging to console only")
		} else {
			out = zerolog.MultiLevelWriter(out, w)
		}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}

func WithCamera(base zerolog.Logger, cameraID string) zerolog.Logger {
	return base.With().Str("camera_id", cameraID).Logger()
}
