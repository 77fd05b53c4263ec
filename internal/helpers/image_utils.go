package helpers

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"traffic-worker-go/internal/models"
)

const (
	// JPEG quality settings
	MediumQuality = 75
	LowQuality    = 50
)

// isJPEGData checks if the byte slice contains JPEG data by checking magic bytes
func isJPEGData(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	// JPEG magic bytes: FF D8
	return data[0] == 0xFF && data[1] == 0xD8
}

// FrameFromMat copies the pixels of a BGR Mat into a frame.
func FrameFromMat(mat gocv.Mat) *models.Frame {
	if mat.Empty() {
		return nil
	}
	return &models.Frame{
		Data:   mat.ToBytes(),
		Width:  mat.Cols(),
		Height: mat.Rows(),
	}
}

// MatFromFrame builds a BGR Mat from a frame. JPEG payloads are decoded.
// The caller owns the returned Mat.
func MatFromFrame(f *models.Frame) (gocv.Mat, error) {
	if f == nil || len(f.Data) == 0 {
		return gocv.NewMat(), fmt.Errorf("empty frame data")
	}

	if isJPEGData(f.Data) {
		mat, err := gocv.IMDecode(f.Data, gocv.IMReadColor)
		if err != nil {
			return gocv.NewMat(), fmt.Errorf("failed to decode JPEG frame: %w", err)
		}
		return mat, nil
	}

	if f.Width <= 0 || f.Height <= 0 || f.Width*f.Height*3 != len(f.Data) {
		return gocv.NewMat(), fmt.Errorf("frame size %dx%d does not match BGR length=%d", f.Width, f.Height, len(f.Data))
	}

	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create Mat from BGR data: %w", err)
	}
	return mat, nil
}

// EncodeMatJPEG encodes a Mat as JPEG.
func EncodeMatJPEG(mat gocv.Mat, quality int) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases native memory that Close releases
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// EncodeFrameJPEG converts frame data to JPEG. JPEG input is returned as is.
func EncodeFrameJPEG(f *models.Frame, quality int) ([]byte, error) {
	if f != nil && isJPEGData(f.Data) {
		return f.Data, nil
	}

	mat, err := MatFromFrame(f)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	return EncodeMatJPEG(mat, quality)
}

// CropFrameJPEG crops the box out of the frame and encodes it as JPEG.
// The box is clamped to the frame first.
func CropFrameJPEG(f *models.Frame, box models.BBox, quality int) ([]byte, error) {
	mat, err := MatFromFrame(f)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	box = box.Clamp(mat.Cols(), mat.Rows())
	if box.Empty() {
		return nil, fmt.Errorf("crop region [%d,%d,%d,%d] is outside the %dx%d frame",
			box.X1, box.Y1, box.X2, box.Y2, mat.Cols(), mat.Rows())
	}

	region := mat.Region(Rect(box))
	defer region.Close()

	jpeg, err := EncodeMatJPEG(region, quality)
	if err != nil {
		return nil, err
	}

	log.Trace().
		Ints("crop", []int{box.X1, box.Y1, box.X2, box.Y2}).
		Int("encoded_size", len(jpeg)).
		Msg("Cropped frame region")
	return jpeg, nil
}
