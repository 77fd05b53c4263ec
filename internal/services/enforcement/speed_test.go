package enforcement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traffic-worker-go/internal/models"
)

func newTestSpeedTracker() *SpeedTracker {
	return NewSpeedTracker(SpeedConfig{MetersPerPixel: 0.01, FPS: 30})
}

// seedTrack places a warmed-up track at pos so policy (e) no longer applies.
func seedTrack(t *SpeedTracker, trackID int, pos models.Position, age int) *speedState {
	st := &speedState{prev: pos, age: age, window: make([]float64, 0, SpeedWindow)}
	t.tracks.Put(trackID, st)
	return st
}

func TestSpeedFirstObservationReturnsZero(t *testing.T) {
	tr := newTestSpeedTracker()

	assert.Equal(t, 0.0, tr.Estimate(1, models.Position{X: 100, Y: 100}, 0))
	assert.Equal(t, 0.0, tr.LastSpeed(1))
	assert.Equal(t, 1, tr.Tracks())
}

func TestSpeedSuppressedBeforeTenthObservation(t *testing.T) {
	tr := newTestSpeedTracker()

	for i := 0; i < MinTrackAge-1; i++ {
		got := tr.Estimate(7, models.Position{X: float64(100 + 10*i), Y: 100}, 0)
		assert.Equal(t, 0.0, got, "observation %d", i+1)
	}

	got := tr.Estimate(7, models.Position{X: float64(100 + 10*(MinTrackAge-1)), Y: 100}, 0)
	assert.InDelta(t, 10.8, got, 1e-3)
}

func TestSpeedScenarioAveragesWindow(t *testing.T) {
	tr := newTestSpeedTracker()
	seedTrack(tr, 1, models.Position{X: 100, Y: 100}, MinTrackAge)

	first := tr.Estimate(1, models.Position{X: 110, Y: 100}, 0)
	assert.InDelta(t, 10.8, first, 1e-3)

	second := tr.Estimate(1, models.Position{X: 130, Y: 100}, 0)
	assert.InDelta(t, (10.8+21.6)/2, second, 1e-3, "reported value is the window mean, not the 21.6 instantaneous speed")
	assert.InDelta(t, second, tr.LastSpeed(1), 1e-9)
}

func TestSpeedTeleportNeverEntersWindow(t *testing.T) {
	tr := newTestSpeedTracker()
	st := seedTrack(tr, 3, models.Position{X: 0, Y: 0}, 20)

	tr.Estimate(3, models.Position{X: 10, Y: 0}, 0)
	got := tr.Estimate(3, models.Position{X: 1010, Y: 0}, 0)

	assert.InDelta(t, 10.8, got, 1e-3)
	require.Len(t, st.window, 2)
	for _, v := range st.window {
		assert.LessOrEqual(t, v, MaxSpeed)
	}
	assert.InDelta(t, 10.8, st.lastValid, 1e-3, "a teleport does not replace the last valid speed")
}

func TestSpeedTeleportWithoutHistoryIsZero(t *testing.T) {
	tr := newTestSpeedTracker()
	seedTrack(tr, 4, models.Position{X: 0, Y: 0}, 20)

	got := tr.Estimate(4, models.Position{X: 5000, Y: 0}, 0)

	assert.Equal(t, 0.0, got)
}

func TestSpeedJitterSnapsToZero(t *testing.T) {
	tr := newTestSpeedTracker()
	seedTrack(tr, 5, models.Position{X: 200, Y: 200}, 20)

	got := tr.Estimate(5, models.Position{X: 200.5, Y: 200}, 0)

	assert.Equal(t, 0.0, got)
}

func TestSpeedWindowIsBounded(t *testing.T) {
	tr := newTestSpeedTracker()
	st := seedTrack(tr, 6, models.Position{X: 0, Y: 0}, 20)

	for i := 1; i <= 12; i++ {
		got := tr.Estimate(6, models.Position{X: float64(10 * i), Y: 0}, 0)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, MaxSpeed)
	}

	assert.Len(t, st.window, SpeedWindow)
}

func TestSpeedUsesElapsedTime(t *testing.T) {
	tr := newTestSpeedTracker()
	seedTrack(tr, 8, models.Position{X: 0, Y: 0}, 20)

	// three skipped frames: 30px over 0.1s is still 10.8 km/h
	got := tr.Estimate(8, models.Position{X: 30, Y: 0}, 3*tr.frameTime)

	assert.InDelta(t, 10.8, got, 1e-3)
}

func TestSpeedPositionUpdatedWhileSuppressed(t *testing.T) {
	tr := newTestSpeedTracker()

	tr.Estimate(9, models.Position{X: 0, Y: 0}, 0)
	tr.Estimate(9, models.Position{X: 50, Y: 0}, 0)

	st, ok := tr.tracks.Get(9)
	require.True(t, ok)
	assert.Equal(t, models.Position{X: 50, Y: 0}, st.prev)
	assert.Equal(t, 2, st.age)
}

func TestSpeedLastSpeedUnknownTrack(t *testing.T) {
	assert.Equal(t, 0.0, newTestSpeedTracker().LastSpeed(42))
}
