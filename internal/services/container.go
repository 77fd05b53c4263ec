package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/config"
	"traffic-worker-go/internal/helpers"
	"traffic-worker-go/internal/metrics"
	"traffic-worker-go/internal/services/camera"
	"traffic-worker-go/internal/services/challan"
	"traffic-worker-go/internal/services/enforcement"
	"traffic-worker-go/internal/services/evidence"
	"traffic-worker-go/internal/services/history"
	"traffic-worker-go/internal/services/livefeed"
	"traffic-worker-go/internal/services/messaging"
	"traffic-worker-go/internal/services/perception"
	"traffic-worker-go/internal/services/publisher/mjpeg"
	"traffic-worker-go/internal/services/recorder"
	"traffic-worker-go/internal/services/store"
	"traffic-worker-go/internal/services/streamcapture"
	"traffic-worker-go/internal/services/videos"
)

// ServiceContainer holds all services
type ServiceContainer struct {
	Config        *config.Config
	Metrics       *metrics.Metrics
	Store         *store.SQLiteStore
	Hub           *livefeed.Hub
	LiveFeed      *livefeed.Feed
	Bus           *messaging.Service
	Recorder      *recorder.Service
	Epoch         *enforcement.Epoch
	History       *history.Service
	Videos        *videos.Library
	Publisher     *mjpeg.Publisher
	CameraManager *camera.Manager

	logger zerolog.Logger
}

// NewServiceContainer creates every service. Only the violation store is
// required; NATS is optional.
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	sc := &ServiceContainer{
		Config:  cfg,
		Metrics: metrics.New(),
		Epoch:   enforcement.NewEpoch(),
		Videos:  videos.NewLibrary(cfg.VideoDir),
		logger:  log.With().Str("service", "container").Logger(),
	}

	st, err := store.Open(cfg.DBPath, cfg.StoreRetention)
	if err != nil {
		return nil, fmt.Errorf("open violation store: %w", err)
	}
	sc.Store = st

	sc.Hub = livefeed.NewHub()
	sc.LiveFeed = livefeed.NewFeed(sc.Hub)

	notifiers := []recorder.Notifier{sc.LiveFeed}
	if cfg.NatsEnabled {
		bus, err := messaging.NewService(cfg)
		if err != nil {
			sc.logger.Warn().Err(err).Str("url", cfg.NatsURL).Msg("NATS unavailable, violations will not be published")
		} else {
			sc.Bus = bus
			notifiers = append(notifiers, bus)
		}
	}

	sc.Recorder = recorder.NewService(recorder.Options{
		Workers:   cfg.RecorderWorkers,
		QueueSize: cfg.RecorderQueueSize,
	}, st,
		evidence.NewSnapshotter(cfg.SnapshotDir),
		challan.NewRenderer(cfg.ChallanDir, cfg.FineAmount, cfg.Location),
		sc.Metrics, notifiers...)

	sc.History = history.NewService(st, sc.Epoch, sc.Metrics, []string{cfg.SnapshotDir, cfg.ChallanDir}, sc.LiveFeed)
	sc.Publisher = mjpeg.NewPublisher(evidence.Placeholder)

	sc.CameraManager = camera.NewManager(camera.Deps{
		Config:    cfg,
		Epoch:     sc.Epoch,
		Reporter:  sc.Recorder,
		Stats:     sc.LiveFeed,
		Videos:    sc.Videos,
		Publisher: sc.Publisher,
		Metrics:   sc.Metrics,
		NewPerception: camera.NewPerceptionFactory(cfg.PerceptionGRPCURL, cfg.PerceptionTimeout, perception.Codec{
			Encode: helpers.EncodeFrameJPEG,
			Crop:   helpers.CropFrameJPEG,
		}),
		OpenCapture: openCapture,
		Render:      evidence.RenderScene,
	})

	return sc, nil
}

func openCapture(src videos.Source, fps float64) (camera.Capture, error) {
	c, err := streamcapture.Open(src, fps)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Start launches the background workers.
func (sc *ServiceContainer) Start(ctx context.Context) {
	go sc.Hub.Run(ctx)
	sc.Recorder.Start()

	if sc.Bus != nil {
		if _, err := sc.Bus.SubscribeReset(sc.History.Clear); err != nil {
			sc.logger.Warn().Err(err).Str("subject", sc.Config.ResetSubject).Msg("Failed to subscribe to reset requests")
		}
	}

	sc.CameraManager.Start()
}

// Shutdown gracefully shuts down all services. Feeds stop first so no new
// events reach the recorder while it drains.
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	var errs []error

	if err := sc.CameraManager.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := sc.Recorder.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if sc.Bus != nil {
		if err := sc.Bus.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	sc.Publisher.Shutdown()
	if err := sc.Store.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
