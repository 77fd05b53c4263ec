package logging

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-worker-go/internal/config"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestGinContextFields(t *testing.T) {
	buf := captureLogs(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(CtxRequestID, "req-42")
	c.Set(CtxStartTime, time.Now().Add(-time.Second))

	Info(c).Msg("handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "handled", entry["message"])
	assert.GreaterOrEqual(t, entry["duration"], float64(1000))
}

func TestNilGinContext(t *testing.T) {
	buf := captureLogs(t)

	Warn(nil).Msg("no request")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "request_id")
	assert.Equal(t, "warn", entry["level"])
}

func TestServiceLogger(t *testing.T) {
	buf := captureLogs(t)

	logger := WithCamera(NewServiceLogger(&config.Config{WorkerID: "worker-7"}, "recorder"), "cam-2")
	logger.Info().Msg("ready")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "worker-7", entry["worker_id"])
	assert.Equal(t, "recorder", entry["service"])
	assert.Equal(t, "cam-2", entry["camera_id"])
}

func TestLogdySinkDropsLineEndings(t *testing.T) {
	var lines []string
	sink := &logdySink{emit: func(line string) { lines = append(lines, line) }}

	n, err := sink.Write([]byte("{\"level\":\"info\"}\n"))
	require.NoError(t, err)
	assert.Equal(t, 17, n)

	_, err = sink.Write([]byte("\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{`{"level":"info"}`}, lines)
}

func TestOpenLogdyRejectsBadPorts(t *testing.T) {
	_, err := openLogdy(&config.Config{LogdyPort: 0, Port: 8000})
	assert.ErrorContains(t, err, "invalid LOGDY_PORT")

	_, err = openLogdy(&config.Config{LogdyPort: 8000, Port: 8000})
	assert.ErrorContains(t, err, "already used")
}
