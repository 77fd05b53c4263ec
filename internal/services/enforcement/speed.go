package enforcement

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"traffic-worker-go/internal/models"
)

const (
	// MaxSpeed is the sanity bound in km/h; faster readings are noise.
	MaxSpeed = 150.0
	// MinSpeed snaps jitter of stationary objects to zero.
	MinSpeed = 1.0
	// SpeedWindow is the smoothing window length.
	SpeedWindow = 5
	// MinTrackAge is the observation count before speeds are reported.
	MinTrackAge = 10

	DefaultMetersPerPixel = 0.01
	DefaultFPS            = 30.0

	mpsToKmh = 3.6
)

type SpeedConfig struct {
	MetersPerPixel float64
	FPS            float64
}

type speedState struct {
	prev      models.Position
	window    []float64
	age       int
	lastValid float64
	reported  float64
}

// SpeedTracker turns per-track positions into smoothed km/h estimates.
type SpeedTracker struct {
	metersPerPixel float64
	frameTime      time.Duration
	tracks         TrackStore[*speedState]
}

func NewSpeedTracker(cfg SpeedConfig) *SpeedTracker {
	if cfg.MetersPerPixel <= 0 {
		cfg.MetersPerPixel = DefaultMetersPerPixel
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	return &SpeedTracker{
		metersPerPixel: cfg.MetersPerPixel,
		frameTime:      time.Duration(float64(time.Second) / cfg.FPS),
		tracks:         NewMapStore[*speedState](),
	}
}

// Estimate records pos for the track and returns the reported speed.
// elapsed <= 0 means one frame.
func (t *SpeedTracker) Estimate(trackID int, pos models.Position, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		elapsed = t.frameTime
	}

	st, ok := t.tracks.Get(trackID)
	if !ok {
		st = &speedState{window: make([]float64, 0, SpeedWindow)}
		t.tracks.Put(trackID, st)
	}
	st.age++

	if !ok {
		st.prev = pos
		return 0
	}

	pixels := math.Hypot(pos.X-st.prev.X, pos.Y-st.prev.Y)
	kmh := pixels * t.metersPerPixel / elapsed.Seconds() * mpsToKmh

	if kmh > MaxSpeed {
		kmh = st.lastValid
	} else {
		st.lastValid = kmh
	}

	if kmh < MinSpeed {
		kmh = 0
	}

	if len(st.window) == SpeedWindow {
		st.window = append(st.window[:0], st.window[1:]...)
	}
	st.window = append(st.window, kmh)

	speed := math.Max(0, math.Min(stat.Mean(st.window, nil), MaxSpeed))
	if st.age < MinTrackAge {
		speed = 0
	}

	st.reported = speed
	st.prev = pos
	return speed
}

// LastSpeed returns the last reported speed without observing a new
// position. Used for frames where perception was skipped.
func (t *SpeedTracker) LastSpeed(trackID int) float64 {
	if st, ok := t.tracks.Get(trackID); ok {
		return st.reported
	}
	return 0
}

// Tracks returns the number of tracks seen.
func (t *SpeedTracker) Tracks() int { return t.tracks.Len() }
