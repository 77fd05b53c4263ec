package enforcement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-worker-go/internal/models"
)

// boxAt returns a box whose centroid y is cy.
func boxAt(cy int) models.BBox {
	return models.BBox{X1: 100, Y1: cy - 20, X2: 160, Y2: cy + 20}
}

func TestRedLightFirstObservationIsSafe(t *testing.T) {
	d := NewRedLightDetector(DefaultStopLineY, nil, &eventSink{})

	status, isNew := d.Check(1, boxAt(600), PhaseRed, Evidence{})

	assert.Equal(t, CrossingSafe, status)
	assert.False(t, isNew)
}

func TestRedLightCrossingOnRedFires(t *testing.T) {
	sink := &eventSink{}
	d := NewRedLightDetector(DefaultStopLineY, nil, sink)
	ev := Evidence{CameraID: "junction.mp4"}

	d.Check(1, boxAt(480), PhaseRed, ev)
	status, isNew := d.Check(1, boxAt(510), PhaseRed, ev)

	assert.Equal(t, CrossingViolation, status)
	assert.True(t, isNew)
	require.Len(t, sink.events, 1)
	assert.Equal(t, models.KindRedLight, sink.events[0].Kind)
	assert.Equal(t, "junction.mp4", sink.events[0].Lane)
	assert.Equal(t, boxAt(510), sink.events[0].BBox)
	assert.True(t, d.Violated(1))
}

func TestRedLightBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		prev     int
		cur      int
		phase    Phase
		wantFire bool
	}{
		{"reaches line exactly", 499, 500, PhaseRed, true},
		{"starts on line", 500, 520, PhaseRed, false},
		{"moving up", 520, 480, PhaseRed, false},
		{"stays before line", 400, 499, PhaseRed, false},
		{"green crossing", 480, 510, PhaseGreen, false},
		{"yellow crossing", 480, 510, PhaseYellow, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &eventSink{}
			d := NewRedLightDetector(DefaultStopLineY, nil, sink)

			d.Check(1, boxAt(tt.prev), tt.phase, Evidence{})
			_, isNew := d.Check(1, boxAt(tt.cur), tt.phase, Evidence{})

			assert.Equal(t, tt.wantFire, isNew)
			assert.Equal(t, tt.wantFire, len(sink.events) == 1)
		})
	}
}

func TestRedLightNoSecondEvent(t *testing.T) {
	sink := &eventSink{}
	d := NewRedLightDetector(DefaultStopLineY, nil, sink)

	d.Check(1, boxAt(480), PhaseRed, Evidence{})
	d.Check(1, boxAt(510), PhaseRed, Evidence{})
	d.Check(1, boxAt(480), PhaseRed, Evidence{})
	status, isNew := d.Check(1, boxAt(510), PhaseRed, Evidence{})

	assert.Equal(t, CrossingViolation, status)
	assert.False(t, isNew)
	assert.Len(t, sink.events, 1)
}

func TestRedLightGreenCrossingThenRedDoesNotFire(t *testing.T) {
	sink := &eventSink{}
	d := NewRedLightDetector(DefaultStopLineY, nil, sink)

	d.Check(1, boxAt(480), PhaseGreen, Evidence{})
	d.Check(1, boxAt(510), PhaseGreen, Evidence{})
	_, isNew := d.Check(1, boxAt(540), PhaseRed, Evidence{})

	assert.False(t, isNew, "vehicle already past the line when the light turned red")
	assert.Empty(t, sink.events)
}

func TestRedLightEpochResetAllowsNewViolation(t *testing.T) {
	epoch := NewEpoch()
	sink := &eventSink{}
	d := NewRedLightDetector(DefaultStopLineY, epoch, sink)

	d.Check(1, boxAt(480), PhaseRed, Evidence{})
	d.Check(1, boxAt(510), PhaseRed, Evidence{})
	require.Len(t, sink.events, 1)

	epoch.Advance()
	assert.False(t, d.Violated(1))

	d.Check(1, boxAt(480), PhaseRed, Evidence{})
	_, isNew := d.Check(1, boxAt(510), PhaseRed, Evidence{})

	assert.True(t, isNew)
	assert.Len(t, sink.events, 2)
}
