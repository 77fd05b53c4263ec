package challan

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-worker-go/internal/models"
)

func sampleRecord() models.Violation {
	return models.Violation{
		ID:            "42",
		Plate:         "KA-05-XY-1234",
		Timestamp:     "2024-03-01 10:15:30",
		Speed:         72.456,
		Limit:         60,
		Lane:          "Lane 2",
		ViolationType: models.KindOverspeed,
	}
}

func TestFileName(t *testing.T) {
	v := sampleRecord()
	ref := "3f2a9c1e-77aa-4b1c-9d0e-000000000001"
	assert.Equal(t, "Challan_42_Overspeed_2024-03-01_101530_3f2a9c1e.pdf", FileName(v, ref))

	v.ViolationType = models.KindNoHelmet
	assert.Equal(t, "Challan_42_HelmetViolation_2024-03-01_101530_3f2a9c1e.pdf", FileName(v, ref))
}

func TestWriteProducesPDF(t *testing.T) {
	r := NewRenderer(t.TempDir(), 100, "Main Highway, Camera 04")
	r.newRef = func() string { return "ref-1" }

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, sampleRecord()))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestRenderWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "challans")
	r := NewRenderer(dir, 100, "Junction 7")

	v := sampleRecord()
	v.Plate = ""
	v.SnapshotPath = filepath.Join(dir, "missing.jpg")

	r.newRef = func() string { return "ref-2" }

	path, err := r.Render(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName(v, "ref-2")), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderKeepsSameTrackFromTwoFeeds(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir, 100, "Junction 7")

	// track ids are per feed; both feeds confirm track 1 in the same second
	first := sampleRecord()
	first.ID = "1"
	first.Lane = "Lane 1"
	second := first
	second.Speed = 95.5
	second.Lane = "Lane 2"

	p1, err := r.Render(first)
	require.NoError(t, err)
	p2, err := r.Render(second)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
