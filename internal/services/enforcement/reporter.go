package enforcement

import (
	"time"

	"traffic-worker-go/internal/models"
)

// Reporter receives confirmed violations. Implementations must not block
// the calling feed for long.
type Reporter interface {
	Report(ev models.ViolationEvent)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ev models.ViolationEvent)

func (f ReporterFunc) Report(ev models.ViolationEvent) { f(ev) }

// Evidence is the frame context a confirmation is recorded with.
type Evidence struct {
	CameraID string
	Plate    string
	BBox     models.BBox
	Frame    *models.Frame
}

func (e Evidence) event(trackID int, kind models.ViolationKind, now time.Time) models.ViolationEvent {
	return models.ViolationEvent{
		CameraID:   e.CameraID,
		TrackID:    trackID,
		Plate:      e.Plate,
		Kind:       kind,
		BBox:       e.BBox,
		Frame:      e.Frame,
		DetectedAt: now,
	}
}

func report(r Reporter, ev models.ViolationEvent) {
	if r != nil {
		r.Report(ev)
	}
}
