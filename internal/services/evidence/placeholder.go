package evidence

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"traffic-worker-go/internal/helpers"
)

const (
	placeholderWidth  = 640
	placeholderHeight = 360
)

// Placeholder renders the frame shown to viewers before a feed produces
// its first image.
func Placeholder(cameraID string) []byte {
	mat := gocv.NewMatWithSize(placeholderHeight, placeholderWidth, gocv.MatTypeCV8UC3)
	defer mat.Close()

	helpers.DrawTextEnhanced(&mat, fmt.Sprintf("Connecting to %s...", cameraID), 40, placeholderHeight/2, helpers.ColorWhite, 0.8, 2)
	helpers.DrawText(&mat, "Waiting for first frame", 40, placeholderHeight/2+40, helpers.ColorGray)

	buf, err := helpers.EncodeMatJPEG(mat, helpers.LowQuality)
	if err != nil {
		log.Warn().Err(err).Str("camera_id", cameraID).Msg("Failed to render placeholder frame")
		return nil
	}
	return buf
}
