package camera

import "traffic-worker-go/internal/models"

// Capture is a frame source. Read returns io.EOF at the end of a file.
type Capture interface {
	Read() (*models.Frame, error)
	Rewind() error
	FPS() float64
	Close() error
}
