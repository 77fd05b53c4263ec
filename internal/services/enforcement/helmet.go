package enforcement

import (
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"traffic-worker-go/internal/models"
)

type HelmetStatus string

const (
	StatusUnknown   HelmetStatus = "UNKNOWN"
	StatusHelmet    HelmetStatus = "HELMET"
	StatusNoHelmet  HelmetStatus = "NO_HELMET"
	StatusViolation HelmetStatus = "VIOLATION"
)

const (
	// HelmetDebounceFrames identical raw labels switch the confirmed label.
	HelmetDebounceFrames = 3
	// NoHelmetFrames consecutive NO_HELMET confirmed frames raise a violation.
	NoHelmetFrames = 5

	MinHeadArea = 100
	MinHeadSide = 5
	// Regions above LargeHeadArea are close enough to trust a lower
	// classifier confidence.
	LargeHeadArea       = 35000
	LargeHeadConfidence = 0.60
	SmallHeadConfidence = 0.85

	headHeightRatio = 0.35
	headWidthRatio  = 0.6

	helmetLane = "N/A"
)

// Classifier labels the head region of a rider. It is only invoked when
// the region passes the geometry gate.
type Classifier func(head models.BBox) (models.Verdict, error)

type HelmetResult struct {
	Status       HelmetStatus
	NewViolation bool
	// Head is nil when the region was not evaluated
	Head *models.BBox
}

type helmetState struct {
	raw       HelmetStatus
	run       int
	confirmed HelmetStatus
	noHelmet  int
	violated  bool
}

// HelmetDetector debounces helmet classifier output per track and
// confirms riders seen without a helmet.
type HelmetDetector struct {
	reporter Reporter
	guard    epochGuard
	tracks   TrackStore[*helmetState]
	now      func() time.Time
}

func NewHelmetDetector(epoch EpochReader, reporter Reporter) *HelmetDetector {
	return &HelmetDetector{
		reporter: reporter,
		guard:    newEpochGuard(epoch),
		tracks:   NewMapStore[*helmetState](),
		now:      time.Now,
	}
}

// HeadRegion returns the top 35% and central 60% of a rider box, clipped
// to the box, and the unclipped area used by the gates.
func HeadRegion(b models.BBox) (models.BBox, int) {
	w := b.Width()
	cropH := int(float64(b.Height()) * headHeightRatio)
	cropW := int(float64(w) * headWidthRatio)
	cx := b.X1 + w/2

	head := models.BBox{
		X1: max(b.X1, cx-cropW/2),
		Y1: b.Y1,
		X2: min(b.X2, cx+cropW/2),
		Y2: min(b.Y2, b.Y1+cropH),
	}
	return head, cropH * cropW
}

// IsNoHelmetLabel reports whether a classifier label means the rider has
// no helmet ("no_helmet", "without helmet", "NoHelmet"). Labels such as
// "unknown" that merely contain "no" do not match.
func IsNoHelmetLabel(label string) bool {
	words := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if w == "no" || w == "not" || strings.HasPrefix(w, "without") || strings.HasPrefix(w, "nohelmet") {
			return true
		}
	}
	return false
}

// ConfidenceGate returns the minimum confidence accepted for a region.
func ConfidenceGate(area int) float64 {
	if area > LargeHeadArea {
		return LargeHeadConfidence
	}
	return SmallHeadConfidence
}

// Check evaluates one fresh frame for a two-wheeler track.
func (d *HelmetDetector) Check(trackID int, bbox models.BBox, classify Classifier, ev Evidence) HelmetResult {
	d.syncEpoch()

	st, ok := d.tracks.Get(trackID)
	if !ok {
		st = &helmetState{raw: StatusUnknown, confirmed: StatusUnknown}
		d.tracks.Put(trackID, st)
	}
	if st.violated {
		return HelmetResult{Status: StatusViolation}
	}

	head, area := HeadRegion(bbox)
	if area < MinHeadArea || head.Width() < MinHeadSide || head.Height() < MinHeadSide {
		return HelmetResult{Status: st.confirmed}
	}

	raw := d.rawStatus(trackID, head, area, classify)

	if raw == StatusUnknown {
		st.run = 0
	} else {
		if raw == st.raw {
			st.run++
		} else {
			st.raw = raw
			st.run = 1
		}
		if st.confirmed == StatusUnknown || st.run >= HelmetDebounceFrames {
			st.confirmed = raw
		}
	}

	if st.confirmed == StatusNoHelmet {
		st.noHelmet++
	} else {
		st.noHelmet = 0
	}

	if st.noHelmet < NoHelmetFrames {
		return HelmetResult{Status: st.confirmed, Head: &head}
	}

	st.violated = true
	log.Info().
		Str("camera_id", ev.CameraID).
		Int("track_id", trackID).
		Int("head_area", area).
		Msg("Helmet violation confirmed")

	event := ev.event(trackID, models.KindNoHelmet, d.now())
	event.BBox = bbox
	event.Lane = helmetLane
	report(d.reporter, event)

	return HelmetResult{Status: StatusViolation, NewViolation: true, Head: &head}
}

// Confirmed returns the current confirmed label without evaluating a frame.
func (d *HelmetDetector) Confirmed(trackID int) HelmetStatus {
	d.syncEpoch()
	st, ok := d.tracks.Get(trackID)
	switch {
	case !ok:
		return StatusUnknown
	case st.violated:
		return StatusViolation
	default:
		return st.confirmed
	}
}

func (d *HelmetDetector) rawStatus(trackID int, head models.BBox, area int, classify Classifier) HelmetStatus {
	if classify == nil {
		return StatusUnknown
	}
	verdict, err := classify(head)
	if err != nil {
		log.Debug().Err(err).Int("track_id", trackID).Msg("Helmet classification unavailable")
		return StatusUnknown
	}
	if verdict.Confidence < ConfidenceGate(area) {
		return StatusUnknown
	}
	if IsNoHelmetLabel(verdict.Label) {
		return StatusNoHelmet
	}
	return StatusHelmet
}

func (d *HelmetDetector) syncEpoch() {
	if d.guard.stale() {
		d.tracks.Clear()
		log.Debug().Msg("Helmet detector state reset")
	}
}
