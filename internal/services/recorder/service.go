package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/metrics"
	"traffic-worker-go/internal/models"
	"traffic-worker-go/internal/services/store"
)

// Snapshotter writes the annotated evidence image for an event.
type Snapshotter interface {
	Capture(ev models.ViolationEvent) (string, error)
}

// ChallanRenderer writes the challan document for a record.
type ChallanRenderer interface {
	Render(v models.Violation) (string, error)
}

// Notifier is told about every record after it is appended.
type Notifier interface {
	NotifyViolation(cameraID string, v models.Violation)
}

type Options struct {
	Workers      int
	QueueSize    int
	StoreTimeout time.Duration
}

// Service records confirmed violations on a pool of background workers.
// Steps run in order (evidence, challan, append); each failure is logged
// and the remaining steps still run. Nothing is retried.
type Service struct {
	store     store.Store
	snapshots Snapshotter
	challans  ChallanRenderer
	notifiers []Notifier
	metrics   *metrics.Metrics
	opts      Options
	logger    zerolog.Logger

	jobs   chan models.ViolationEvent
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewService(opts Options, st store.Store, snapshots Snapshotter, challans ChallanRenderer, m *metrics.Metrics, notifiers ...Notifier) *Service {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if m == nil {
		m = metrics.New()
	}

	return &Service{
		store:     st,
		snapshots: snapshots,
		challans:  challans,
		notifiers: notifiers,
		metrics:   m,
		opts:      opts,
		logger:    log.With().Str("service", "recorder").Logger(),
		jobs:      make(chan models.ViolationEvent, opts.QueueSize),
	}
}

// Start launches the workers.
func (s *Service) Start() {
	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	s.logger.Info().
		Int("workers", s.opts.Workers).
		Int("queue_size", s.opts.QueueSize).
		Msg("Violation recorder started")
}

func (s *Service) worker(id int) {
	defer s.wg.Done()
	for ev := range s.jobs {
		s.Record(context.Background(), ev)
	}
	s.logger.Debug().Int("worker", id).Msg("Recorder worker stopped")
}

// Report queues a confirmed violation. The frame is copied so the feed can
// reuse its buffer. When the queue is full or the service is stopped the
// event is recorded on the caller's goroutine.
func (s *Service) Report(ev models.ViolationEvent) {
	ev.Frame = ev.Frame.Clone()
	s.metrics.ViolationConfirmed(ev.Kind)

	s.mu.RLock()
	if !s.closed {
		select {
		case s.jobs <- ev:
			s.mu.RUnlock()
			return
		default:
		}
	}
	s.mu.RUnlock()

	s.metrics.RecorderInlined.Add(1)
	s.logger.Warn().
		Str("camera_id", ev.CameraID).
		Int("track_id", ev.TrackID).
		Msg("Recorder queue unavailable, recording inline")
	s.Record(context.Background(), ev)
}

// Record runs the evidence, challan and append steps for one event and
// returns the record as written.
func (s *Service) Record(ctx context.Context, ev models.ViolationEvent) models.Violation {
	logger := s.logger.With().
		Str("camera_id", ev.CameraID).
		Int("track_id", ev.TrackID).
		Str("violation_type", string(ev.Kind)).
		Logger()

	v := ev.Record()

	if s.snapshots != nil {
		path, err := s.snapshots.Capture(ev)
		if err != nil {
			s.metrics.SnapshotErrors.Add(1)
			logger.Error().Err(err).Msg("Failed to capture evidence snapshot")
		}
		v.SnapshotPath = path
	}

	if s.challans != nil {
		path, err := s.challans.Render(v)
		if err != nil {
			s.metrics.ChallanErrors.Add(1)
			logger.Error().Err(err).Msg("Failed to render challan")
		}
		v.ChallanPath = path
	}

	if err := s.appendRecord(ctx, v); err != nil {
		s.metrics.StoreErrors.Add(1)
		logger.Error().Err(err).Msg("Failed to append violation record")
	} else {
		s.metrics.RecordsWritten.Add(1)
	}

	for _, n := range s.notifiers {
		n.NotifyViolation(ev.CameraID, v)
	}

	logger.Info().
		Str("plate", v.Plate).
		Str("snapshot", v.SnapshotPath).
		Str("challan", v.ChallanPath).
		Msg("Violation recorded")
	return v
}

func (s *Service) appendRecord(ctx context.Context, v models.Violation) error {
	if s.store == nil {
		return fmt.Errorf("no violation store configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return s.store.Append(ctx, v)
}

// Stop drains queued events and waits for the workers to exit.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Violation recorder stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("recorder shutdown: %w", ctx.Err())
	}
}

// Pending returns the number of queued events.
func (s *Service) Pending() int { return len(s.jobs) }
