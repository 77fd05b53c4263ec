package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"traffic-worker-go/internal/models"
	"traffic-worker-go/internal/services/enforcement"
	"traffic-worker-go/internal/services/pipeline"
	"traffic-worker-go/internal/services/videos"
)

// FeedState is the atomic lifecycle state of a feed
type FeedState int32

const (
	StateStopped FeedState = iota
	StateRunning
	StateStopping
)

func (s FeedState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

const (
	maxConsecutiveErrors = 10
	maxRetryDelay        = 10 * time.Second
	liveFrameBuffer      = 2
)

// Feed is one running camera: a capture goroutine feeding frames, in
// order, to a processor goroutine.
type Feed struct {
	ID        string
	source    videos.Source
	createdAt time.Time

	m          *Manager
	logger     zerolog.Logger
	perception PerceptionClient
	processor  *pipeline.Processor

	state      atomic.Int32
	frameCount atomic.Int64
	errorCount atomic.Int64
	violations atomic.Int64
	lastFrame  atomic.Int64
	phase      atomic.Value

	ctx    context.Context
	cancel context.CancelFunc
	frames chan *models.Frame
	wg     sync.WaitGroup

	captureMu     sync.Mutex
	captureCancel context.CancelFunc
}

func newFeed(m *Manager, id string, src videos.Source, signalOffset time.Duration, client PerceptionClient) *Feed {
	cfg := m.cfg
	f := &Feed{
		ID:        id,
		source:    src,
		createdAt: time.Now(),
		m:         m,
		logger:    m.logger.With().Str("camera_id", id).Logger(),
	}
	f.perception = &meteredPerception{PerceptionClient: client, metrics: m.deps.Metrics}

	f.ctx, f.cancel = context.WithCancel(context.Background())
	buffer := 0
	if src.Live {
		buffer = liveFrameBuffer
	}
	f.frames = make(chan *models.Frame, buffer)

	reporter := enforcement.ReporterFunc(func(ev models.ViolationEvent) {
		f.violations.Add(1)
		if m.deps.Reporter != nil {
			m.deps.Reporter.Report(ev)
		}
	})

	f.processor = pipeline.NewProcessor(pipeline.Config{
		CameraID:          id,
		DetectionInterval: cfg.DetectionFrameInterval,
		Speed:             enforcement.SpeedConfig{MetersPerPixel: cfg.MetersPerPixel, FPS: cfg.FPS},
		Lane:              enforcement.LaneConfig{DividerX: cfg.LaneDividerX, Lane1Limit: cfg.Lane1Limit, Lane2Limit: cfg.Lane2Limit},
		StopLineY:         cfg.StopLineY,
		Signal: enforcement.SignalConfig{
			Green:  cfg.SignalGreen,
			Yellow: cfg.SignalYellow,
			Red:    cfg.SignalRed,
			Offset: signalOffset,
		},
	}, f.perception, m.deps.Epoch, reporter, m.deps.Stats)

	f.phase.Store(string(f.processor.Phase()))
	return f
}

func (f *Feed) State() FeedState { return FeedState(f.state.Load()) }

func (f *Feed) IsRunning() bool { return f.State() == StateRunning }

// Start launches the capture and processor goroutines. A feed runs once;
// a stopped feed cannot be restarted.
func (f *Feed) Start() error {
	if f.ctx.Err() != nil || !f.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		return fmt.Errorf("camera %s cannot start from state %s", f.ID, f.State())
	}

	f.wg.Add(2)
	go f.runCapture()
	go f.runProcessor()
	return nil
}

// Stop cancels both goroutines, waits for them and closes the perception
// session.
func (f *Feed) Stop() {
	if !f.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		if f.ctx.Err() == nil && f.State() == StateStopped {
			// never started
			f.cancel()
			f.perception.Close()
		}
		return
	}

	f.cancel()
	f.wg.Wait()
	f.perception.Close()
	f.state.Store(int32(StateStopped))
}

// RestartCapture reopens the frame source without touching detector state.
func (f *Feed) RestartCapture() {
	f.captureMu.Lock()
	defer f.captureMu.Unlock()
	if f.captureCancel != nil {
		f.captureCancel()
	}
}

func (f *Feed) runCapture() {
	defer f.wg.Done()

	for {
		if f.ctx.Err() != nil {
			return
		}

		f.captureMu.Lock()
		ctx, cancel := context.WithCancel(f.ctx)
		f.captureCancel = cancel
		f.captureMu.Unlock()

		panicked, err := f.captureOnce(ctx)
		cancel()

		if f.ctx.Err() != nil {
			return
		}
		if err == nil {
			// restart requested by the watchdog
			continue
		}

		count := f.errorCount.Add(1)
		delay := min(time.Duration(count)*time.Second, maxRetryDelay)
		if panicked {
			delay = f.m.cfg.PanicRestartDelay
		}
		f.logger.Error().Err(err).Int64("error_count", count).Dur("retry_in", delay).Msg("Capture failed, retrying")

		select {
		case <-f.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (f *Feed) captureOnce(ctx context.Context) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked, err = true, fmt.Errorf("capture panic: %v", r)
		}
	}()

	capture, err := f.m.deps.OpenCapture(f.source, f.m.cfg.FPS)
	if err != nil {
		return false, err
	}
	defer capture.Close()

	fps := capture.FPS()
	if fps <= 0 {
		fps = f.m.cfg.FPS
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	consecutiveErrors := 0
	sinceRewind := 0
	for {
		select {
		case <-ctx.Done():
			return false, nil
		default:
		}

		frame, err := capture.Read()
		if errors.Is(err, io.EOF) {
			if sinceRewind == 0 {
				return false, fmt.Errorf("%s has no readable frames", f.source.Name)
			}
			f.logger.Debug().Int("frames", sinceRewind).Msg("End of video, looping")
			if err := capture.Rewind(); err != nil {
				return false, err
			}
			sinceRewind = 0
			continue
		}
		if err != nil {
			consecutiveErrors++
			if consecutiveErrors >= maxConsecutiveErrors {
				return false, fmt.Errorf("%d consecutive read errors: %w", consecutiveErrors, err)
			}
			select {
			case <-ctx.Done():
				return false, nil
			case <-time.After(min(time.Duration(consecutiveErrors*50)*time.Millisecond, 2*time.Second)):
			}
			continue
		}

		consecutiveErrors = 0
		sinceRewind++
		f.frameCount.Add(1)
		f.lastFrame.Store(time.Now().UnixNano())
		f.m.deps.Metrics.FramesRead.Add(1)

		if !f.send(ctx, frame) {
			return false, nil
		}

		if !f.source.Live {
			select {
			case <-ctx.Done():
				return false, nil
			case <-ticker.C:
			}
		}
	}
}

// send hands a frame to the processor. File frames are never dropped so
// detection cadence stays tied to the video; live frames replace the
// oldest buffered frame when the processor lags.
func (f *Feed) send(ctx context.Context, frame *models.Frame) bool {
	if !f.source.Live {
		select {
		case f.frames <- frame:
			return true
		case <-ctx.Done():
			return false
		}
	}

	select {
	case f.frames <- frame:
		return true
	default:
	}
	select {
	case <-f.frames:
	default:
	}
	select {
	case f.frames <- frame:
	default:
		f.logger.Debug().Msg("Skipped frame, buffer full")
	}
	return true
}

func (f *Feed) runProcessor() {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		case frame := <-f.frames:
			f.processFrame(frame)
		}
	}
}

func (f *Feed) processFrame(frame *models.Frame) {
	defer func() {
		if r := recover(); r != nil {
			f.errorCount.Add(1)
			f.logger.Error().Interface("panic", r).Msg("Recovered from panic in frame processor")
		}
	}()

	scene := f.processor.Process(f.ctx, frame)
	f.phase.Store(scene.Phase)

	pub := f.m.deps.Publisher
	if pub == nil || f.m.deps.Render == nil || pub.Viewers(f.ID) == 0 {
		return
	}
	jpeg, err := f.m.deps.Render(frame, scene)
	if err != nil {
		f.logger.Warn().Err(err).Msg("Failed to render annotated frame")
		return
	}
	pub.Publish(f.ID, jpeg)
}

func (f *Feed) LastFrameTime() time.Time {
	ns := f.lastFrame.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Stalled reports whether no frame has been read for longer than d.
func (f *Feed) Stalled(d time.Duration) bool {
	last := f.LastFrameTime()
	if last.IsZero() {
		last = f.createdAt
	}
	return time.Since(last) > d
}

func (f *Feed) Response() *models.CameraResponse {
	phase, _ := f.phase.Load().(string)
	return &models.CameraResponse{
		CameraID:      f.ID,
		Source:        f.source.Name,
		IsActive:      f.IsRunning(),
		CreatedAt:     f.createdAt,
		LastFrameTime: f.LastFrameTime(),
		FrameCount:    f.frameCount.Load(),
		ErrorCount:    f.errorCount.Load(),
		Violations:    f.violations.Load(),
		Phase:         phase,
	}
}
