package challan

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"traffic-worker-go/internal/models"
)

const (
	pageWidth = 210.0
	marginX   = 18.0
	qrName    = "payment-qr"
)

// Renderer writes one A4 e-challan PDF per violation record.
type Renderer struct {
	dir        string
	fineAmount int
	location   string
	newRef     func() string
}

func NewRenderer(dir string, fineAmount int, location string) *Renderer {
	return &Renderer{
		dir:        dir,
		fineAmount: fineAmount,
		location:   location,
		newRef:     uuid.NewString,
	}
}

// FileName returns the challan file name for a record. Track ids repeat
// across feeds, so the challan reference is part of the name.
func FileName(v models.Violation, ref string) string {
	return fmt.Sprintf("Challan_%s_%s_%s_%s.pdf", v.ID, models.FileToken(string(v.ViolationType)),
		compactTimestamp(v.Timestamp), shortRef(ref))
}

func shortRef(ref string) string {
	ref = strings.ReplaceAll(ref, "-", "")
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}

func compactTimestamp(ts string) string {
	return strings.NewReplacer(":", "", " ", "_").Replace(ts)
}

// Render writes the challan into the output directory and returns its path.
func (r *Renderer) Render(v models.Violation) (string, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create challan directory: %w", err)
	}

	ref := r.newRef()
	path := filepath.Join(r.dir, FileName(v, ref))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create challan file: %w", err)
	}

	if err := r.write(f, v, ref); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close challan file: %w", err)
	}

	log.Debug().Str("path", path).Str("track_id", v.ID).Msg("Challan generated")
	return path, nil
}

// Write renders the challan PDF to w under a fresh reference.
func (r *Renderer) Write(w io.Writer, v models.Violation) error {
	return r.write(w, v, r.newRef())
}

func (r *Renderer) write(w io.Writer, v models.Violation, ref string) error {
	ts := compactTimestamp(v.Timestamp)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Traffic Police E-Challan", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// header band
	pdf.SetFillColor(0, 0, 139)
	pdf.Rect(0, 0, pageWidth, 35, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(0, 8)
	pdf.CellFormat(pageWidth, 10, "TRAFFIC POLICE E-CHALLAN", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetX(0)
	pdf.CellFormat(pageWidth, 8, "OFFICIAL NOTICE OF TRAFFIC VIOLATION", "", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(marginX, 50, "VIOLATION DETAILS: "+strings.ToUpper(string(v.ViolationType)))
	pdf.SetLineWidth(0.3)
	pdf.Line(marginX, 52, marginX+75, 52)

	plate := v.Plate
	if plate == "" {
		plate = "ID-" + v.ID
	}
	info := []string{
		fmt.Sprintf("Challan Number: %s-%s", v.ID, ts),
		fmt.Sprintf("Violation Type: %s", v.ViolationType),
		fmt.Sprintf("Vehicle Number: %s", plate),
		fmt.Sprintf("Date & Time: %s", v.Timestamp),
		fmt.Sprintf("Vehicle ID: %s", v.ID),
		fmt.Sprintf("Detected Speed: %.2f km/h", v.Speed),
		fmt.Sprintf("Speed Limit: %g km/h", v.Limit),
		fmt.Sprintf("Lane: %s", v.Lane),
		fmt.Sprintf("Location: %s", r.location),
		fmt.Sprintf("Fine Amount: $%d.00", r.fineAmount),
	}
	pdf.SetFont("Helvetica", "", 11)
	y := 62.0
	for _, line := range info {
		pdf.Text(marginX, y, line)
		y += 9
	}

	if v.SnapshotPath != "" {
		if _, err := os.Stat(v.SnapshotPath); err == nil {
			pdf.SetFont("Helvetica", "B", 14)
			pdf.Text(125, 50, "VEHICLE SNAPSHOT")
			pdf.Line(125, 52, 192, 52)
			pdf.ImageOptions(v.SnapshotPath, 125, 57, 67, 0, false,
				fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}, 0, "")
		}
	}

	payload := fmt.Sprintf("PAY: %s | AMT: %d | %s | REF: %s", v.ID, r.fineAmount, ts, ref)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to encode payment QR: %w", err)
	}
	pdf.RegisterImageOptionsReader(qrName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	pdf.ImageOptions(qrName, marginX, 200, 35, 35, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(marginX, 240, "Scan to Pay")
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(marginX, 245, "Ref: "+ref)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(105, 105, 105)
	pdf.SetXY(0, 280)
	pdf.CellFormat(pageWidth, 6, "This is a computer-generated document. No signature required.", "", 0, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render challan: %w", err)
	}
	return nil
}
