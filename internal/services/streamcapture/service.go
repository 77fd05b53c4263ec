package streamcapture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"traffic-worker-go/internal/helpers"
	"traffic-worker-go/internal/models"
	"traffic-worker-go/internal/services/videos"
)

var errEmptyFrame = errors.New("empty frame")

// FFmpeg options for network streams, tuned for low latency over TCP
var liveOptions = map[string]string{
	"rtsp_transport":      "tcp",
	"buffer_size":         "2097152",
	"max_delay":           "500000",
	"stimeout":            "5000000",
	"rw_timeout":          "5000000",
	"flags":               "low_delay",
	"fflags":              "nobuffer+flush_packets",
	"analyzeduration":     "500000",
	"probesize":           "2000000",
	"reconnect":           "1",
	"reconnect_streamed":  "1",
	"reconnect_delay_max": "2",
}

// Capture reads BGR frames from a video file or stream through OpenCV.
type Capture struct {
	src    videos.Source
	cap    *gocv.VideoCapture
	img    gocv.Mat
	fps    float64
	logger zerolog.Logger
}

// Open opens src. fallbackFPS is used when the container does not report a
// frame rate.
func Open(src videos.Source, fallbackFPS float64) (*Capture, error) {
	logger := log.With().Str("service", "stream_capture").Str("source", src.Name).Logger()

	var (
		cap *gocv.VideoCapture
		err error
	)
	if src.Live {
		os.Setenv("OPENCV_FFMPEG_CAPTURE_OPTIONS", ffmpegOptions(liveOptions))
		cap, err = gocv.OpenVideoCaptureWithAPI(src.Location, gocv.VideoCaptureFFmpeg)
	} else {
		cap, err = gocv.OpenVideoCapture(src.Location)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Name, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("video capture is not opened for %s", src.Name)
	}
	if src.Live {
		cap.Set(gocv.VideoCaptureBufferSize, 1)
	}

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 || fps > 240 {
		fps = fallbackFPS
	}

	logger.Info().
		Float64("fps", fps).
		Float64("width", cap.Get(gocv.VideoCaptureFrameWidth)).
		Float64("height", cap.Get(gocv.VideoCaptureFrameHeight)).
		Bool("live", src.Live).
		Msg("VideoCapture opened")

	return &Capture{
		src:    src,
		cap:    cap,
		img:    gocv.NewMat(),
		fps:    fps,
		logger: logger,
	}, nil
}

func ffmpegOptions(opts map[string]string) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+";"+opts[k])
	}
	return strings.Join(parts, "|")
}

func (c *Capture) FPS() float64 { return c.fps }

// Read returns the next frame. Files report io.EOF at their end; streams
// report a read error.
func (c *Capture) Read() (*models.Frame, error) {
	if ok := c.cap.Read(&c.img); !ok {
		if c.src.Live {
			return nil, fmt.Errorf("read frame from %s", c.src.Name)
		}
		return nil, io.EOF
	}
	if c.img.Empty() {
		if c.src.Live {
			return nil, errEmptyFrame
		}
		return nil, io.EOF
	}
	return helpers.FrameFromMat(c.img), nil
}

// Rewind seeks a file back to its first frame. Streams are reopened
// instead.
func (c *Capture) Rewind() error {
	if !c.src.Live {
		if c.cap.Set(gocv.VideoCapturePosFrames, 0); c.cap.Get(gocv.VideoCapturePosFrames) == 0 {
			return nil
		}
	}
	return c.reset()
}

func (c *Capture) reset() error {
	c.logger.Info().Msg("Resetting VideoCapture")
	c.cap.Close()
	time.Sleep(500 * time.Millisecond)

	var (
		cap *gocv.VideoCapture
		err error
	)
	if c.src.Live {
		cap, err = gocv.OpenVideoCaptureWithAPI(c.src.Location, gocv.VideoCaptureFFmpeg)
	} else {
		cap, err = gocv.OpenVideoCapture(c.src.Location)
	}
	if err != nil {
		return fmt.Errorf("reopen %s: %w", c.src.Name, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return fmt.Errorf("reopened capture is not opened for %s", c.src.Name)
	}
	c.cap = cap
	return nil
}

func (c *Capture) Close() error {
	c.img.Close()
	return c.cap.Close()
}
