package enforcement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalPhases(t *testing.T) {
	c := NewSignalClock(SignalConfig{})
	base := time.Unix(0, 0)

	tests := []struct {
		at   time.Duration
		want Phase
	}{
		{0, PhaseGreen},
		{9999 * time.Millisecond, PhaseGreen},
		{10 * time.Second, PhaseYellow},
		{12900 * time.Millisecond, PhaseYellow},
		{13 * time.Second, PhaseRed},
		{22900 * time.Millisecond, PhaseRed},
		{23 * time.Second, PhaseGreen},
		{23*time.Second*1000 + 14*time.Second, PhaseRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Phase(base.Add(tt.at)), "at %s", tt.at)
	}
	assert.Equal(t, 23*time.Second, c.Cycle())
}

func TestSignalOffsetDesynchronizesClocks(t *testing.T) {
	a := NewSignalClock(SignalConfig{})
	b := NewSignalClock(SignalConfig{Offset: 13 * time.Second})
	now := time.Unix(0, 0)

	assert.Equal(t, PhaseGreen, a.Phase(now))
	assert.Equal(t, PhaseRed, b.Phase(now))
}

func TestSignalNegativeOffset(t *testing.T) {
	c := NewSignalClock(SignalConfig{Offset: -1 * time.Second})

	assert.Equal(t, PhaseRed, c.Phase(time.Unix(0, 0)))
}

func TestSignalCustomDurations(t *testing.T) {
	c := NewSignalClock(SignalConfig{Green: time.Second, Yellow: time.Second, Red: time.Second})
	base := time.Unix(0, 0)

	assert.Equal(t, PhaseGreen, c.Phase(base))
	assert.Equal(t, PhaseYellow, c.Phase(base.Add(time.Second)))
	assert.Equal(t, PhaseRed, c.Phase(base.Add(2*time.Second)))
	assert.Equal(t, PhaseGreen, c.Phase(base.Add(3*time.Second)))
}
