package enforcement

import (
	"time"

	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/models"
)

const (
	DefaultStopLineY = 500

	CrossingSafe      = "SAFE"
	CrossingViolation = "VIOLATION"
)

type crossingState struct {
	lastY    int
	violated bool
}

// RedLightDetector flags tracks whose centroid crosses the stop line
// moving down the image while the signal is red.
type RedLightDetector struct {
	stopLineY int
	reporter  Reporter
	guard     epochGuard
	tracks    TrackStore[*crossingState]
	now       func() time.Time
}

func NewRedLightDetector(stopLineY int, epoch EpochReader, reporter Reporter) *RedLightDetector {
	return &RedLightDetector{
		stopLineY: stopLineY,
		reporter:  reporter,
		guard:     newEpochGuard(epoch),
		tracks:    NewMapStore[*crossingState](),
		now:       time.Now,
	}
}

func (d *RedLightDetector) StopLineY() int { return d.stopLineY }

// Check records the track's centroid and reports whether this step is a
// new red-light crossing.
func (d *RedLightDetector) Check(trackID int, bbox models.BBox, phase Phase, ev Evidence) (string, bool) {
	d.syncEpoch()

	cy := (bbox.Y1 + bbox.Y2) / 2

	st, ok := d.tracks.Get(trackID)
	if !ok {
		d.tracks.Put(trackID, &crossingState{lastY: cy})
		return CrossingSafe, false
	}
	if st.violated {
		return CrossingViolation, false
	}

	prev := st.lastY
	st.lastY = cy

	if !(prev < d.stopLineY && cy >= d.stopLineY) || phase != PhaseRed {
		return CrossingSafe, false
	}

	st.violated = true
	log.Info().
		Str("camera_id", ev.CameraID).
		Int("track_id", trackID).
		Int("stop_line_y", d.stopLineY).
		Msg("Red light violation confirmed")

	event := ev.event(trackID, models.KindRedLight, d.now())
	event.BBox = bbox
	event.Lane = ev.CameraID
	report(d.reporter, event)

	return CrossingViolation, true
}

// Violated reports whether the track already crossed on red.
func (d *RedLightDetector) Violated(trackID int) bool {
	d.syncEpoch()
	st, ok := d.tracks.Get(trackID)
	return ok && st.violated
}

func (d *RedLightDetector) syncEpoch() {
	if d.guard.stale() {
		d.tracks.Clear()
		log.Debug().Msg("Red light detector state reset")
	}
}
