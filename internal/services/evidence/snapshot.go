package evidence

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"traffic-worker-go/internal/helpers"
	"traffic-worker-go/internal/models"
)

// Snapshotter writes the annotated evidence JPEG for a confirmed violation.
type Snapshotter struct {
	dir string
}

func NewSnapshotter(dir string) *Snapshotter {
	return &Snapshotter{dir: dir}
}

// Capture draws the offending box and its speed on a copy of the frame and
// writes it to the snapshot directory.
func (s *Snapshotter) Capture(ev models.ViolationEvent) (string, error) {
	if ev.Frame == nil {
		return "", fmt.Errorf("no frame attached to violation of track %d", ev.TrackID)
	}

	mat, err := helpers.MatFromFrame(ev.Frame)
	if err != nil {
		return "", err
	}
	defer mat.Close()

	// NewMatFromBytes shares the frame buffer; draw on a private copy
	canvas := mat.Clone()
	defer canvas.Close()

	box := ev.BBox.Clamp(canvas.Cols(), canvas.Rows())
	gocv.Rectangle(&canvas, helpers.Rect(box), helpers.ColorRed, 3)
	label := fmt.Sprintf("ID: %d | Speed: %.1f km/h", ev.TrackID, ev.Speed)
	gocv.PutText(&canvas, label, image.Pt(box.X1, max(box.Y1-10, 15)),
		gocv.FontHersheySimplex, 0.6, helpers.ColorRed, 2)

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	path := filepath.Join(s.dir, ev.SnapshotName())
	if ok := gocv.IMWrite(path, canvas); !ok {
		return "", fmt.Errorf("failed to write snapshot %s", path)
	}

	log.Debug().
		Str("camera_id", ev.CameraID).
		Int("track_id", ev.TrackID).
		Str("path", path).
		Msg("Evidence snapshot saved")
	return path, nil
}
