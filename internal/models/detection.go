package models

// BBox is an axis-aligned box in image pixel coordinates.
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (b BBox) Width() int  { return b.X2 - b.X1 }
func (b BBox) Height() int { return b.Y2 - b.Y1 }

// Centroid returns the integer midpoint of the box.
func (b BBox) Centroid() Position {
	return Position{
		X: float64((b.X1 + b.X2) / 2),
		Y: float64((b.Y1 + b.Y2) / 2),
	}
}

// Clamp limits the box to a width x height image. The result may be
// empty when the box lies fully outside the image.
func (b BBox) Clamp(width, height int) BBox {
	clamp := func(v, hi int) int {
		return max(0, min(v, hi))
	}
	return BBox{
		X1: clamp(b.X1, width),
		Y1: clamp(b.Y1, height),
		X2: clamp(b.X2, width),
		Y2: clamp(b.Y2, height),
	}
}

// Empty reports whether the box has no area.
func (b BBox) Empty() bool { return b.X2 <= b.X1 || b.Y2 <= b.Y1 }

// Position is a single per-frame sample of a track's location.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrackedObject is one tracker output for one frame.
type TrackedObject struct {
	TrackID    int     `json:"track_id"`
	BBox       BBox    `json:"bbox"`
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
	// Plate is an optional display string from the plate reader
	Plate string `json:"plate,omitempty"`
}

// Verdict is a helmet classifier result for a cropped head region.
type Verdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Frame holds raw BGR pixels for one decoded video frame.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// Clone returns a deep copy so the caller can keep reusing its buffer.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	return &Frame{Data: data, Width: f.Width, Height: f.Height}
}

// MessagePublisher publishes events to the message bus
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}
