package enforcement

import (
	"time"

	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/models"
)

const (
	// OverspeedFrames is the run of consecutive overspeed frames that
	// confirms a violation.
	OverspeedFrames = 5

	Lane1 = "Lane 1"
	Lane2 = "Lane 2"
)

type LaneConfig struct {
	DividerX   float64
	Lane1Limit float64
	Lane2Limit float64
}

type laneState struct {
	overspeed int
	violated  bool
}

// LaneDetector confirms sustained overspeed against per-lane limits.
type LaneDetector struct {
	cfg      LaneConfig
	reporter Reporter
	guard    epochGuard
	tracks   TrackStore[*laneState]
	now      func() time.Time
}

func NewLaneDetector(cfg LaneConfig, epoch EpochReader, reporter Reporter) *LaneDetector {
	return &LaneDetector{
		cfg:      cfg,
		reporter: reporter,
		guard:    newEpochGuard(epoch),
		tracks:   NewMapStore[*laneState](),
		now:      time.Now,
	}
}

// Lane returns the lane label and limit for an x position.
func (d *LaneDetector) Lane(pos models.Position) (string, float64) {
	if pos.X < d.cfg.DividerX {
		return Lane1, d.cfg.Lane1Limit
	}
	return Lane2, d.cfg.Lane2Limit
}

// Check advances the overspeed run for the track. Once a track is
// confirmed every later call returns true without touching its counter.
func (d *LaneDetector) Check(trackID int, speed float64, pos models.Position, ev Evidence) (bool, string, float64) {
	d.syncEpoch()

	lane, limit := d.Lane(pos)

	st, ok := d.tracks.Get(trackID)
	if !ok {
		st = &laneState{}
		d.tracks.Put(trackID, st)
	}
	if st.violated {
		return true, lane, limit
	}

	if speed > limit {
		st.overspeed++
	} else {
		st.overspeed = 0
	}

	if st.overspeed < OverspeedFrames {
		return false, lane, limit
	}

	st.violated = true
	log.Info().
		Str("camera_id", ev.CameraID).
		Int("track_id", trackID).
		Str("lane", lane).
		Float64("speed", speed).
		Float64("limit", limit).
		Msg("Overspeed violation confirmed")

	event := ev.event(trackID, models.KindOverspeed, d.now())
	event.Speed = speed
	event.Limit = limit
	event.Lane = lane
	report(d.reporter, event)

	return true, lane, limit
}

// Status is the read-only view used on frames without fresh detections.
func (d *LaneDetector) Status(trackID int, pos models.Position) (bool, string, float64) {
	d.syncEpoch()
	lane, limit := d.Lane(pos)
	st, ok := d.tracks.Get(trackID)
	return ok && st.violated, lane, limit
}

func (d *LaneDetector) syncEpoch() {
	if d.guard.stale() {
		d.tracks.Clear()
		log.Debug().Msg("Lane detector state reset")
	}
}
