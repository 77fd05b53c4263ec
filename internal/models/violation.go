package models

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the wall-clock format stored on every record.
const TimestampLayout = "2006-01-02 15:04:05"

// SnapshotLayout is the timestamp part of snapshot file names.
const SnapshotLayout = "20060102_150405"

var fileNameReplacer = strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "", "?", "-", "&", "-", "=", "-")

// FileToken strips characters that cannot appear in an artifact file name.
func FileToken(s string) string {
	return fileNameReplacer.Replace(s)
}

// ViolationKind is the violation_type value of a record.
type ViolationKind string

const (
	KindOverspeed ViolationKind = "Overspeed"
	KindNoHelmet  ViolationKind = "Helmet Violation"
	KindRedLight  ViolationKind = "Red Light"
)

// Violation is the durable record shape. It is written once and never
// mutated; only a full history reset removes it.
type Violation struct {
	ID            string        `json:"id"`
	Plate         string        `json:"plate,omitempty"`
	Timestamp     string        `json:"timestamp"`
	Speed         float64       `json:"speed"`
	Limit         float64       `json:"limit"`
	Lane          string        `json:"lane"`
	ViolationType ViolationKind `json:"violation_type"`
	SnapshotPath  string        `json:"snapshot_path"`
	ChallanPath   string        `json:"challan_path"`
}

// ViolationEvent is a confirmed violation handed from a detector to the
// recorder. Frame may be nil when no pixels are available.
type ViolationEvent struct {
	CameraID   string
	TrackID    int
	Plate      string
	Kind       ViolationKind
	Speed      float64
	Limit      float64
	Lane       string
	BBox       BBox
	Frame      *Frame
	DetectedAt time.Time
}

// DisplayPlate returns the plate string, falling back to the track id.
func (e ViolationEvent) DisplayPlate() string {
	if e.Plate != "" {
		return e.Plate
	}
	return fmt.Sprintf("ID-%d", e.TrackID)
}

// Record builds the durable record for the event; artifact paths are
// filled in by the recorder.
func (e ViolationEvent) Record() Violation {
	return Violation{
		ID:            fmt.Sprintf("%d", e.TrackID),
		Plate:         e.DisplayPlate(),
		Timestamp:     e.DetectedAt.Format(TimestampLayout),
		Speed:         e.Speed,
		Limit:         e.Limit,
		Lane:          e.Lane,
		ViolationType: e.Kind,
	}
}

// SnapshotName returns the evidence file name for the event. Track ids are
// only unique within a feed, so the camera and kind are part of the name.
func (e ViolationEvent) SnapshotName() string {
	at := e.DetectedAt
	if at.IsZero() {
		at = time.Now()
	}
	return fmt.Sprintf("%s_%d_%s_%s.jpg", FileToken(e.CameraID), e.TrackID, FileToken(string(e.Kind)), at.Format(SnapshotLayout))
}
