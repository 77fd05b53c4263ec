package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"traffic-worker-go/internal/models"
	"traffic-worker-go/internal/services/enforcement"
)

// Status labels drawn over violating vehicles, highest priority first.
const (
	StatusRedLight  = "RED LIGHT"
	StatusOverspeed = "OVERSPEED"
	StatusNoHelmet  = "NO HELMET"

	// movingSpeed is the km/h above which a vehicle counts toward the
	// frame average.
	movingSpeed = 2.0
)

// Perception is the remote tracker and helmet classifier.
type Perception interface {
	Track(ctx context.Context, frame *models.Frame) ([]models.TrackedObject, error)
	ClassifyHelmet(ctx context.Context, frame *models.Frame, head models.BBox) (models.Verdict, error)
}

// StatsObserver receives per-frame vehicle counts and average speed.
type StatsObserver interface {
	ObserveFrame(newVehicles int, frameAvg float64)
}

type Config struct {
	CameraID          string
	DetectionInterval int
	Speed             enforcement.SpeedConfig
	Lane              enforcement.LaneConfig
	StopLineY         int
	Signal            enforcement.SignalConfig
}

// Processor runs the detector set of one feed. It is not safe for
// concurrent use; frames of a feed are processed in order.
type Processor struct {
	cfg        Config
	perception Perception
	stats      StatsObserver
	logger     zerolog.Logger

	speed    *enforcement.SpeedTracker
	lane     *enforcement.LaneDetector
	helmet   *enforcement.HelmetDetector
	redLight *enforcement.RedLightDetector
	signal   *enforcement.SignalClock
	seen     enforcement.TrackStore[struct{}]

	epoch     enforcement.EpochReader
	seenEpoch int64

	frameTime   time.Duration
	frameIndex  int64
	lastFresh   int64
	lastObjects []models.TrackedObject
	now         func() time.Time
}

func NewProcessor(cfg Config, perception Perception, epoch enforcement.EpochReader, reporter enforcement.Reporter, stats StatsObserver) *Processor {
	if cfg.DetectionInterval <= 0 {
		cfg.DetectionInterval = 1
	}
	if cfg.Speed.FPS <= 0 {
		cfg.Speed.FPS = enforcement.DefaultFPS
	}
	if cfg.StopLineY <= 0 {
		cfg.StopLineY = enforcement.DefaultStopLineY
	}

	p := &Processor{
		cfg:        cfg,
		perception: perception,
		stats:      stats,
		logger:     log.With().Str("camera_id", cfg.CameraID).Str("service", "pipeline").Logger(),
		speed:      enforcement.NewSpeedTracker(cfg.Speed),
		lane:       enforcement.NewLaneDetector(cfg.Lane, epoch, reporter),
		helmet:     enforcement.NewHelmetDetector(epoch, reporter),
		redLight:   enforcement.NewRedLightDetector(cfg.StopLineY, epoch, reporter),
		signal:     enforcement.NewSignalClock(cfg.Signal),
		seen:       enforcement.NewMapStore[struct{}](),
		epoch:      epoch,
		frameTime:  time.Duration(float64(time.Second) / cfg.Speed.FPS),
		now:        time.Now,
	}
	if epoch != nil {
		p.seenEpoch = epoch.Current()
	}
	return p
}

// syncEpoch forgets counted vehicles after a history reset so they are
// counted again against the cleared totals.
func (p *Processor) syncEpoch() {
	if p.epoch == nil {
		return
	}
	if cur := p.epoch.Current(); cur != p.seenEpoch {
		p.seenEpoch = cur
		p.seen.Clear()
	}
}

// Process analyses one frame and returns what should be drawn on it.
// Detection runs on every DetectionInterval-th frame; the frames between
// reuse the last detections and read detector state without advancing it.
func (p *Processor) Process(ctx context.Context, frame *models.Frame) models.Scene {
	p.frameIndex++
	p.syncEpoch()
	phase := p.signal.Phase(p.now())

	fresh := (p.frameIndex-1)%int64(p.cfg.DetectionInterval) == 0
	if fresh {
		objects, err := p.perception.Track(ctx, frame)
		if err != nil {
			p.logger.Warn().Err(err).Int64("frame", p.frameIndex).Msg("Tracking failed, reusing last detections")
			fresh = false
		} else {
			p.lastObjects = objects
		}
	}

	elapsed := time.Duration(p.frameIndex-p.lastFresh) * p.frameTime
	if fresh {
		p.lastFresh = p.frameIndex
	}

	scene := models.Scene{
		CameraID:    p.cfg.CameraID,
		DividerX:    int(p.cfg.Lane.DividerX),
		Lane1Limit:  p.cfg.Lane.Lane1Limit,
		Lane2Limit:  p.cfg.Lane.Lane2Limit,
		StopLineY:   p.cfg.StopLineY,
		Phase:       string(phase),
		Fresh:       fresh,
		Annotations: make([]models.Annotation, 0, len(p.lastObjects)),
	}

	newVehicles := 0
	var moving []float64
	for _, obj := range p.lastObjects {
		checks := enforcement.ChecksFor(obj.ClassID)
		if checks == 0 {
			continue
		}

		if fresh {
			if _, ok := p.seen.Get(obj.TrackID); !ok {
				p.seen.Put(obj.TrackID, struct{}{})
				newVehicles++
			}
		}

		a := p.evaluate(ctx, frame, obj, checks, phase, fresh, elapsed)
		if a.Speed > movingSpeed {
			moving = append(moving, a.Speed)
		}
		scene.Annotations = append(scene.Annotations, a)
	}

	if len(moving) > 0 {
		scene.AvgSpeed = stat.Mean(moving, nil)
	}
	if p.stats != nil {
		p.stats.ObserveFrame(newVehicles, scene.AvgSpeed)
	}
	return scene
}

func (p *Processor) evaluate(ctx context.Context, frame *models.Frame, obj models.TrackedObject, checks enforcement.Check, phase enforcement.Phase, fresh bool, elapsed time.Duration) models.Annotation {
	pos := obj.BBox.Centroid()
	ev := enforcement.Evidence{
		CameraID: p.cfg.CameraID,
		Plate:    obj.Plate,
		BBox:     obj.BBox,
		Frame:    frame,
	}
	a := models.Annotation{
		TrackID: obj.TrackID,
		BBox:    obj.BBox,
		Label:   enforcement.ClassName(obj.ClassID),
	}

	var (
		helmet    enforcement.HelmetStatus
		overspeed bool
		redLight  bool
	)

	if fresh {
		if checks.Has(enforcement.CheckHelmet) {
			res := p.helmet.Check(obj.TrackID, obj.BBox, p.classifier(ctx, frame), ev)
			helmet = res.Status
			a.Head = res.Head
		}
		if checks.Has(enforcement.CheckSpeed) {
			a.Speed = p.speed.Estimate(obj.TrackID, pos, elapsed)
			overspeed, _, _ = p.lane.Check(obj.TrackID, a.Speed, pos, ev)
		}
		if checks.Has(enforcement.CheckRedLight) {
			status, _ := p.redLight.Check(obj.TrackID, obj.BBox, phase, ev)
			redLight = status == enforcement.CrossingViolation
		}
	} else {
		if checks.Has(enforcement.CheckHelmet) {
			helmet = p.helmet.Confirmed(obj.TrackID)
		}
		if checks.Has(enforcement.CheckSpeed) {
			a.Speed = p.speed.LastSpeed(obj.TrackID)
			overspeed, _, _ = p.lane.Status(obj.TrackID, pos)
		}
		if checks.Has(enforcement.CheckRedLight) {
			redLight = p.redLight.Violated(obj.TrackID)
		}
	}

	a.Helmet = string(helmet)
	noHelmet := helmet == enforcement.StatusViolation

	switch {
	case redLight:
		a.Status = StatusRedLight
	case overspeed:
		a.Status = StatusOverspeed
	case noHelmet:
		a.Status = StatusNoHelmet
	}
	a.Violating = a.Status != ""
	return a
}

func (p *Processor) classifier(ctx context.Context, frame *models.Frame) enforcement.Classifier {
	return func(head models.BBox) (models.Verdict, error) {
		return p.perception.ClassifyHelmet(ctx, frame, head)
	}
}

// Phase returns the current signal phase of this feed.
func (p *Processor) Phase() enforcement.Phase {
	return p.signal.Phase(p.now())
}
