package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBBoxGeometry(t *testing.T) {
	b := BBox{X1: 10, Y1: 20, X2: 15, Y2: 27}

	assert.Equal(t, 5, b.Width())
	assert.Equal(t, 7, b.Height())
	assert.Equal(t, Position{X: 12, Y: 23}, b.Centroid(), "centroid uses integer division")
}

func TestBBoxClamp(t *testing.T) {
	b := BBox{X1: -5, Y1: 10, X2: 700, Y2: 500}
	assert.Equal(t, BBox{X1: 0, Y1: 10, X2: 640, Y2: 480}, b.Clamp(640, 480))

	outside := BBox{X1: 700, Y1: 10, X2: 800, Y2: 20}.Clamp(640, 480)
	assert.True(t, outside.Empty())
}

func TestFrameClone(t *testing.T) {
	var nilFrame *Frame
	assert.Nil(t, nilFrame.Clone())

	f := &Frame{Data: []byte{1, 2, 3}, Width: 1, Height: 1}
	c := f.Clone()
	f.Data[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, c.Data)
	assert.Equal(t, 1, c.Width)
}

func TestEventRecord(t *testing.T) {
	ev := ViolationEvent{
		CameraID:   "cam-1",
		TrackID:    7,
		Kind:       KindRedLight,
		Lane:       "cam-1",
		DetectedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	v := ev.Record()
	assert.Equal(t, "7", v.ID)
	assert.Equal(t, "ID-7", v.Plate)
	assert.Equal(t, "2024-01-02 03:04:05", v.Timestamp)
	assert.Equal(t, KindRedLight, v.ViolationType)
	assert.Empty(t, v.SnapshotPath)

	ev.Plate = "MH-12-AB-0001"
	assert.Equal(t, "MH-12-AB-0001", ev.Record().Plate)
}

func TestSnapshotNameSeparatesFeedsAndKinds(t *testing.T) {
	at := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	ev := ViolationEvent{CameraID: "cam-1", TrackID: 1, Kind: KindOverspeed, DetectedAt: at}

	assert.Equal(t, "cam-1_1_Overspeed_20260101_100000.jpg", ev.SnapshotName())

	otherFeed := ev
	otherFeed.CameraID = "rtsp://10.0.0.5/live"
	assert.NotEqual(t, ev.SnapshotName(), otherFeed.SnapshotName())
	assert.NotContains(t, otherFeed.SnapshotName(), "/")

	redLight := ev
	redLight.Kind = KindRedLight
	assert.Equal(t, "cam-1_1_RedLight_20260101_100000.jpg", redLight.SnapshotName())
}
