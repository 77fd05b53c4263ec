package logging

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/logdyhq/logdy-core/logdy"
	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/config"
)

// logdySink forwards one JSON log line into the embedded viewer.
type logdySink struct {
	emit func(line string)
}

func (s *logdySink) Write(p []byte) (int, error) {
	line := bytes.TrimRight(p, "\r\n")
	if len(line) > 0 {
		s.emit(string(line))
	}
	return len(p), nil
}

// openLogdy starts the Logdy viewer on its own port and returns the sink
// that Setup tees the worker logs into.
func openLogdy(cfg *config.Config) (io.Writer, error) {
	if cfg.LogdyPort <= 0 || cfg.LogdyPort > 65535 {
		return nil, fmt.Errorf("invalid LOGDY_PORT %d", cfg.LogdyPort)
	}
	if cfg.LogdyPort == cfg.Port {
		return nil, fmt.Errorf("LOGDY_PORT %d is already used by the API", cfg.LogdyPort)
	}

	port := strconv.Itoa(cfg.LogdyPort)
	viewer := logdy.InitializeLogdy(logdy.Config{
		ServerIp:   cfg.LogdyHost,
		ServerPort: port,
	}, nil)

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("url", fmt.Sprintf("http://%s:%s", cfg.LogdyHost, port)).
		Msg("Log viewer started")
	return &logdySink{emit: func(line string) { _ = viewer.LogString(line) }}, nil
}
