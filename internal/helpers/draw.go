package helpers

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"traffic-worker-go/internal/models"
)

// Common BGR overlay colors. gocv treats RGBA.R as the first channel.
var (
	ColorRed    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	ColorGreen  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	ColorYellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	ColorWhite  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ColorCyan   = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	ColorGray   = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// Rect converts a box to an image rectangle.
func Rect(b models.BBox) image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// DrawText draws text on a dark background
func DrawText(mat *gocv.Mat, text string, x, y int, textColor color.RGBA) {
	DrawTextEnhanced(mat, text, x, y, textColor, 0.6, 2)
}

// DrawTextEnhanced draws text with customizable font scale and thickness
func DrawTextEnhanced(mat *gocv.Mat, text string, x, y int, textColor color.RGBA, fontScale float64, thickness int) {
	if mat == nil || mat.Empty() {
		return
	}

	fontFace := gocv.FontHersheySimplex
	textSize := gocv.GetTextSize(text, fontFace, fontScale, thickness)

	padding := 6
	bgRect := image.Rect(x-padding, y-textSize.Y-padding, x+textSize.X+padding, y+padding)
	gocv.Rectangle(mat, bgRect, color.RGBA{R: 0, G: 0, B: 0, A: 200}, -1)
	gocv.Rectangle(mat, bgRect, color.RGBA{R: 40, G: 40, B: 40, A: 255}, 1)

	gocv.PutText(mat, text, image.Pt(x, y), fontFace, fontScale, textColor, thickness)
}

// DrawLabel draws a plain label without background
func DrawLabel(mat *gocv.Mat, text string, x, y int, textColor color.RGBA, fontScale float64) {
	if mat == nil || mat.Empty() {
		return
	}
	gocv.PutText(mat, text, image.Pt(x, y), gocv.FontHersheySimplex, fontScale, textColor, 2)
}
