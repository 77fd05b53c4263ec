package enforcement

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEpochAdvanceIsMonotonic(t *testing.T) {
	frozen := time.Unix(1700000000, 0)
	e := &Epoch{now: func() time.Time { return frozen }}
	e.value.Store(frozen.UnixNano())

	first := e.Advance()
	second := e.Advance()

	assert.Greater(t, first, frozen.UnixNano())
	assert.Greater(t, second, first)
	assert.Equal(t, second, e.Current())
}

func TestEpochAdvanceFollowsClock(t *testing.T) {
	now := time.Unix(1700000000, 0)
	e := &Epoch{now: func() time.Time { return now }}
	e.value.Store(now.UnixNano())

	now = now.Add(time.Minute)

	assert.Equal(t, now.UnixNano(), e.Advance())
}

func TestEpochConcurrentAdvance(t *testing.T) {
	e := NewEpoch()
	start := e.Current()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				e.Advance()
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, e.Current(), start+800)
}

func TestEpochGuard(t *testing.T) {
	e := NewEpoch()
	g := newEpochGuard(e)

	assert.False(t, g.stale())
	e.Advance()
	assert.True(t, g.stale())
	assert.False(t, g.stale(), "a reset is observed once")

	var none epochGuard
	assert.False(t, none.stale())
}

func TestMapStore(t *testing.T) {
	var s TrackStore[int] = NewMapStore[int]()

	s.Put(1, 10)
	s.Put(2, 20)
	v, ok := s.Get(1)
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, 2, s.Len())

	s.Delete(1)
	_, ok = s.Get(1)
	assert.False(t, ok)

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestChecksFor(t *testing.T) {
	assert.True(t, ChecksFor(ClassMotorcycle).Has(CheckHelmet))
	assert.True(t, ChecksFor(ClassBicycle).Has(CheckHelmet))
	assert.False(t, ChecksFor(ClassCar).Has(CheckHelmet))
	assert.True(t, ChecksFor(ClassTruck).Has(CheckSpeed|CheckRedLight))
	assert.Zero(t, ChecksFor(0), "people are not enforced")
	assert.Len(t, VehicleClasses(), 5)
}
