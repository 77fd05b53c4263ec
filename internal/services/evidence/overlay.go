package evidence

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"traffic-worker-go/internal/helpers"
	"traffic-worker-go/internal/models"
)

// DrawScene renders lane geometry, the signal and per-vehicle state onto a
// live frame in place.
func DrawScene(mat *gocv.Mat, scene models.Scene) {
	if mat == nil || mat.Empty() {
		return
	}
	width, height := mat.Cols(), mat.Rows()

	if scene.DividerX > 0 && scene.DividerX < width {
		gocv.Line(mat, image.Pt(scene.DividerX, 0), image.Pt(scene.DividerX, height), helpers.ColorYellow, 2)
		helpers.DrawText(mat, fmt.Sprintf("Lane 1 Limit: %g km/h", scene.Lane1Limit), 20, 40, helpers.ColorWhite)
		helpers.DrawText(mat, fmt.Sprintf("Lane 2 Limit: %g km/h", scene.Lane2Limit), scene.DividerX+20, 40, helpers.ColorWhite)
	}

	if scene.StopLineY > 0 && scene.StopLineY < height {
		lineColor := helpers.ColorWhite
		if scene.Phase == "RED" {
			lineColor = helpers.ColorRed
		}
		gocv.Line(mat, image.Pt(0, scene.StopLineY), image.Pt(width, scene.StopLineY), lineColor, 3)
	}

	drawSignal(mat, scene.Phase, width-60, 30)

	for _, a := range scene.Annotations {
		drawVehicle(mat, a)
	}

	helpers.DrawText(mat, fmt.Sprintf("Vehicles: %d | Avg: %.1f km/h", len(scene.Annotations), scene.AvgSpeed),
		20, height-20, helpers.ColorCyan)
}

func drawSignal(mat *gocv.Mat, phase string, x, y int) {
	housing := image.Rect(x-20, y-10, x+20, y+110)
	gocv.Rectangle(mat, housing, color.RGBA{R: 30, G: 30, B: 30, A: 255}, -1)

	lamps := []struct {
		phase string
		on    color.RGBA
	}{
		{"RED", helpers.ColorRed},
		{"YELLOW", helpers.ColorYellow},
		{"GREEN", helpers.ColorGreen},
	}
	for i, lamp := range lamps {
		c := color.RGBA{R: 60, G: 60, B: 60, A: 255}
		if lamp.phase == phase {
			c = lamp.on
		}
		gocv.Circle(mat, image.Pt(x, y+10+i*35), 13, c, -1)
	}
}

func drawVehicle(mat *gocv.Mat, a models.Annotation) {
	boxColor := helpers.ColorGreen
	if a.Violating {
		boxColor = helpers.ColorRed
	}
	gocv.Rectangle(mat, helpers.Rect(a.BBox), boxColor, 2)

	text := fmt.Sprintf("ID:%d %s %.1f km/h", a.TrackID, a.Label, a.Speed)
	if a.Status != "" {
		text += " " + a.Status
	}
	helpers.DrawLabel(mat, text, a.BBox.X1, max(a.BBox.Y1-8, 12), boxColor, 0.5)

	if a.Head != nil {
		headColor := helpers.ColorCyan
		if a.Helmet == "NO_HELMET" || a.Helmet == "VIOLATION" {
			headColor = helpers.ColorRed
		}
		gocv.Rectangle(mat, helpers.Rect(*a.Head), headColor, 1)
	}
}

// RenderScene draws scene over a copy of frame and encodes it for viewers.
func RenderScene(frame *models.Frame, scene models.Scene) ([]byte, error) {
	mat, err := helpers.MatFromFrame(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	// raw frames share memory with the Mat
	canvas := mat.Clone()
	defer canvas.Close()

	DrawScene(&canvas, scene)
	return helpers.EncodeMatJPEG(canvas, helpers.MediumQuality)
}
