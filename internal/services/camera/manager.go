package camera

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/config"
	"traffic-worker-go/internal/metrics"
	"traffic-worker-go/internal/models"
	"traffic-worker-go/internal/services/enforcement"
	"traffic-worker-go/internal/services/pipeline"
	"traffic-worker-go/internal/services/publisher/mjpeg"
	"traffic-worker-go/internal/services/videos"
)

var (
	ErrCameraExists   = errors.New("camera already exists")
	ErrCameraNotFound = errors.New("camera not found")
	ErrMaxCameras     = errors.New("maximum number of cameras reached")
)

// PerceptionClient is a connected perception session owned by one feed.
type PerceptionClient interface {
	pipeline.Perception
	Close()
}

// PerceptionFactory opens a perception session for a camera.
type PerceptionFactory func(ctx context.Context, cameraID string) (PerceptionClient, error)

// CaptureFactory opens the frame source of a feed.
type CaptureFactory func(src videos.Source, fps float64) (Capture, error)

type Deps struct {
	Config        *config.Config
	Epoch         enforcement.EpochReader
	Reporter      enforcement.Reporter
	Stats         pipeline.StatsObserver
	Videos        *videos.Library
	Publisher     *mjpeg.Publisher
	Metrics       *metrics.Metrics
	NewPerception PerceptionFactory
	OpenCapture   CaptureFactory
	// Render draws a scene onto a frame and returns the JPEG sent to viewers
	Render func(frame *models.Frame, scene models.Scene) ([]byte, error)
}

// Manager owns the running feeds. Each feed has its own detector set and
// perception session; violations from every feed go to the shared reporter.
type Manager struct {
	deps   Deps
	cfg    *config.Config
	logger zerolog.Logger

	mu      sync.RWMutex
	cameras map[string]*Feed

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(deps Deps) *Manager {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:    deps,
		cfg:     deps.Config,
		logger:  log.With().Str("service", "camera_manager").Logger(),
		cameras: make(map[string]*Feed),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the health watchdog.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.runWatchdog()
	m.logger.Info().Int("max_cameras", m.cfg.MaxCameras).Msg("Camera manager started")
}

// StartCamera resolves the source, opens a perception session and starts
// the feed. A failure affects only this feed.
func (m *Manager) StartCamera(req *models.CameraRequest) error {
	if err := m.checkCapacity(req.CameraID); err != nil {
		return err
	}

	src, err := m.deps.Videos.Resolve(req.Source)
	if err != nil {
		return err
	}

	offset := m.cfg.SignalOffset
	if req.SignalOffset != "" {
		offset, err = time.ParseDuration(req.SignalOffset)
		if err != nil {
			return fmt.Errorf("invalid signal_offset %q: %w", req.SignalOffset, err)
		}
	}

	connectCtx, cancel := context.WithTimeout(m.ctx, m.cfg.PerceptionTimeout+5*time.Second)
	client, err := m.deps.NewPerception(connectCtx, req.CameraID)
	cancel()
	if err != nil {
		return fmt.Errorf("perception unavailable for camera %s: %w", req.CameraID, err)
	}

	feed := newFeed(m, req.CameraID, src, offset, client)

	m.mu.Lock()
	if _, exists := m.cameras[req.CameraID]; exists {
		m.mu.Unlock()
		client.Close()
		return ErrCameraExists
	}
	m.cameras[req.CameraID] = feed
	m.mu.Unlock()

	feed.Start()

	m.logger.Info().
		Str("camera_id", req.CameraID).
		Str("source", src.Name).
		Bool("live", src.Live).
		Dur("signal_offset", offset).
		Msg("Camera started")
	return nil
}

func (m *Manager) checkCapacity(cameraID string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, exists := m.cameras[cameraID]; exists {
		return ErrCameraExists
	}
	if m.cfg.MaxCameras > 0 && len(m.cameras) >= m.cfg.MaxCameras {
		return ErrMaxCameras
	}
	return nil
}

// EnsureVideoFeed starts a feed for a library file if none runs yet. The
// feed is keyed by the file name.
func (m *Manager) EnsureVideoFeed(name string) (string, error) {
	src, err := m.deps.Videos.Resolve(name)
	if err != nil {
		return "", err
	}
	if src.Live {
		return "", fmt.Errorf("%w: %s", videos.ErrVideoNotFound, name)
	}

	err = m.StartCamera(&models.CameraRequest{CameraID: src.Name, Source: src.Name})
	if err != nil && !errors.Is(err, ErrCameraExists) {
		return "", err
	}
	return src.Name, nil
}

func (m *Manager) StopCamera(cameraID string) error {
	m.mu.Lock()
	feed, exists := m.cameras[cameraID]
	if exists {
		delete(m.cameras, cameraID)
	}
	m.mu.Unlock()

	if !exists {
		return ErrCameraNotFound
	}

	feed.Stop()
	if m.deps.Publisher != nil {
		m.deps.Publisher.Remove(cameraID)
	}
	m.logger.Info().Str("camera_id", cameraID).Msg("Camera stopped")
	return nil
}

func (m *Manager) GetCamera(cameraID string) (*models.CameraResponse, error) {
	m.mu.RLock()
	feed, exists := m.cameras[cameraID]
	m.mu.RUnlock()
	if !exists {
		return nil, ErrCameraNotFound
	}
	return feed.Response(), nil
}

func (m *Manager) ListCameras() []*models.CameraResponse {
	m.mu.RLock()
	feeds := make([]*Feed, 0, len(m.cameras))
	for _, f := range m.cameras {
		feeds = append(feeds, f)
	}
	m.mu.RUnlock()

	out := make([]*models.CameraResponse, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, f.Response())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CameraID < out[j].CameraID })
	return out
}

// GetStats returns the active and total feed counts.
func (m *Manager) GetStats() (active, total int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.cameras {
		total++
		if f.IsRunning() {
			active++
		}
	}
	return active, total
}

func (m *Manager) StreamMJPEG(w http.ResponseWriter, r *http.Request, cameraID string) {
	m.deps.Publisher.StreamMJPEGHTTP(w, r, cameraID)
}

func (m *Manager) runWatchdog() {
	defer m.wg.Done()

	interval := m.cfg.HealthCheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.checkFeeds(interval)
		}
	}
}

// checkFeeds restarts feeds whose capture has stalled for more than two
// watchdog intervals.
func (m *Manager) checkFeeds(interval time.Duration) {
	m.mu.RLock()
	feeds := make([]*Feed, 0, len(m.cameras))
	for _, f := range m.cameras {
		feeds = append(feeds, f)
	}
	m.mu.RUnlock()

	for _, f := range feeds {
		if !f.IsRunning() {
			continue
		}
		if f.Stalled(2 * interval) {
			m.logger.Warn().
				Str("camera_id", f.ID).
				Time("last_frame", f.LastFrameTime()).
				Msg("Feed stalled, restarting capture")
			f.RestartCapture()
		}
	}
}

// Shutdown stops every feed and the watchdog.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info().Msg("Shutting down camera manager")
	m.cancel()

	m.mu.Lock()
	feeds := make([]*Feed, 0, len(m.cameras))
	for id, f := range m.cameras {
		feeds = append(feeds, f)
		delete(m.cameras, id)
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, f := range feeds {
			wg.Add(1)
			go func(f *Feed) {
				defer wg.Done()
				f.Stop()
			}(f)
		}
		wg.Wait()
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info().Int("feeds", len(feeds)).Msg("Camera manager stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("camera manager shutdown: %w", ctx.Err())
	}
}
