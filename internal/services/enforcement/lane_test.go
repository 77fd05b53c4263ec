package enforcement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-worker-go/internal/models"
)

type eventSink struct {
	events []models.ViolationEvent
}

func (s *eventSink) Report(ev models.ViolationEvent) { s.events = append(s.events, ev) }

func newTestLaneDetector(epoch EpochReader, sink *eventSink) *LaneDetector {
	return NewLaneDetector(LaneConfig{DividerX: 640, Lane1Limit: 40, Lane2Limit: 60}, epoch, sink)
}

var (
	lane1Pos = models.Position{X: 100, Y: 300}
	lane2Pos = models.Position{X: 900, Y: 300}
)

func TestLaneSelection(t *testing.T) {
	d := newTestLaneDetector(nil, &eventSink{})

	lane, limit := d.Lane(lane1Pos)
	assert.Equal(t, Lane1, lane)
	assert.Equal(t, 40.0, limit)

	lane, limit = d.Lane(models.Position{X: 640, Y: 0})
	assert.Equal(t, Lane2, lane, "the divider itself belongs to lane 2")
	assert.Equal(t, 60.0, limit)
}

func TestLaneFiresOnFifthConsecutiveFrame(t *testing.T) {
	sink := &eventSink{}
	d := newTestLaneDetector(nil, sink)
	ev := Evidence{CameraID: "cam-1", Plate: "KA-01-AB-1234"}

	for i := 0; i < OverspeedFrames-1; i++ {
		violating, _, _ := d.Check(1, 55, lane1Pos, ev)
		assert.False(t, violating, "frame %d", i+1)
	}
	assert.Empty(t, sink.events)

	violating, lane, limit := d.Check(1, 55, lane1Pos, ev)
	assert.True(t, violating)
	assert.Equal(t, Lane1, lane)
	assert.Equal(t, 40.0, limit)

	require.Len(t, sink.events, 1)
	got := sink.events[0]
	assert.Equal(t, models.KindOverspeed, got.Kind)
	assert.Equal(t, 1, got.TrackID)
	assert.Equal(t, "cam-1", got.CameraID)
	assert.Equal(t, "KA-01-AB-1234", got.Plate)
	assert.Equal(t, 55.0, got.Speed)
	assert.Equal(t, 40.0, got.Limit)
	assert.Equal(t, Lane1, got.Lane)
}

func TestLaneCounterResetsOnSlowFrame(t *testing.T) {
	sink := &eventSink{}
	d := newTestLaneDetector(nil, sink)

	for i := 0; i < OverspeedFrames-1; i++ {
		d.Check(2, 70, lane2Pos, Evidence{})
	}
	violating, _, _ := d.Check(2, 60, lane2Pos, Evidence{})
	assert.False(t, violating, "speed equal to the limit is not overspeed")

	for i := 0; i < OverspeedFrames-1; i++ {
		violating, _, _ = d.Check(2, 70, lane2Pos, Evidence{})
		assert.False(t, violating)
	}
	assert.Empty(t, sink.events)

	violating, _, _ = d.Check(2, 70, lane2Pos, Evidence{})
	assert.True(t, violating)
	assert.Len(t, sink.events, 1)
}

func TestLaneViolatedTrackIsSticky(t *testing.T) {
	sink := &eventSink{}
	d := newTestLaneDetector(nil, sink)

	for i := 0; i < OverspeedFrames; i++ {
		d.Check(3, 90, lane1Pos, Evidence{})
	}
	require.Len(t, sink.events, 1)

	for i := 0; i < 10; i++ {
		violating, lane, limit := d.Check(3, 0, lane2Pos, Evidence{})
		assert.True(t, violating)
		assert.Equal(t, Lane2, lane)
		assert.Equal(t, 60.0, limit)
	}

	st, ok := d.tracks.Get(3)
	require.True(t, ok)
	assert.Equal(t, OverspeedFrames, st.overspeed, "confirmed tracks do not touch their counter")
	assert.Len(t, sink.events, 1)
}

func TestLaneStatusHasNoSideEffects(t *testing.T) {
	sink := &eventSink{}
	d := newTestLaneDetector(nil, sink)

	for i := 0; i < OverspeedFrames-1; i++ {
		d.Check(4, 90, lane1Pos, Evidence{})
	}
	for i := 0; i < 10; i++ {
		violating, lane, _ := d.Status(4, lane1Pos)
		assert.False(t, violating)
		assert.Equal(t, Lane1, lane)
	}
	assert.Empty(t, sink.events)

	violating, _, _ := d.Check(4, 90, lane1Pos, Evidence{})
	assert.True(t, violating)
	violating, _, _ = d.Status(4, lane1Pos)
	assert.True(t, violating)
}

func TestLaneEpochResetAllowsNewViolation(t *testing.T) {
	epoch := NewEpoch()
	sink := &eventSink{}
	d := newTestLaneDetector(epoch, sink)

	for i := 0; i < OverspeedFrames; i++ {
		d.Check(5, 90, lane1Pos, Evidence{})
	}
	require.Len(t, sink.events, 1)

	epoch.Advance()

	violating, _, _ := d.Check(5, 90, lane1Pos, Evidence{})
	assert.False(t, violating, "state was flushed by the reset")
	for i := 0; i < OverspeedFrames-1; i++ {
		violating, _, _ = d.Check(5, 90, lane1Pos, Evidence{})
	}
	assert.True(t, violating)
	assert.Len(t, sink.events, 2)
}

func TestLaneNilReporter(t *testing.T) {
	d := NewLaneDetector(LaneConfig{DividerX: 640, Lane1Limit: 4, Lane2Limit: 5}, nil, nil)

	var violating bool
	for i := 0; i < OverspeedFrames; i++ {
		violating, _, _ = d.Check(6, 10, lane1Pos, Evidence{})
	}
	assert.True(t, violating)
}
